// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Normalize(t *testing.T) {
	got := Config{SubmitFrequency: 0, CommandPoolSize: -1, FencePoolSize: 3, Profiling: true}.normalize()
	assert.Equal(t, Config{
		SubmitFrequency:    DefaultSubmitFrequency,
		CommandPoolSize:    DefaultCommandPoolSize,
		FencePoolSize:      3,
		DescriptorPoolSize: DefaultDescriptorPoolSize,
		Profiling:          true,
	}, got)
}

func TestOptions_Apply(t *testing.T) {
	prof := NewTimingProfiler()
	o := defaultOptions()
	for _, opt := range []Option{
		WithConfig(Config{SubmitFrequency: 2}),
		WithCommandPoolSize(5),
		WithFencePoolSize(6),
		WithDescriptorPoolSize(7),
		WithProfiling(true),
		WithProfiler(prof),
		WithSharedDevice(),
	} {
		opt(&o)
	}
	assert.Equal(t, Config{SubmitFrequency: 2, CommandPoolSize: 5, FencePoolSize: 6, DescriptorPoolSize: 7, Profiling: true}, o.cfg)
	assert.Same(t, prof, o.profiler)
	assert.True(t, o.sharedDevice)
}

func TestNewProfiler_FollowsBuildTag(t *testing.T) {
	p := newProfiler(Config{Profiling: true})
	if ProfilingCompiled {
		assert.IsType(t, &TimingProfiler{}, p)
	} else {
		assert.Equal(t, nopProfiler{}, p)
	}
	assert.Equal(t, nopProfiler{}, newProfiler(Config{}))
}
