// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build dispatchprofile

package dispatch

// ProfilingCompiled reports whether the timing profiler is built in.
const ProfilingCompiled = true

func newProfiler(cfg Config) Profiler {
	if cfg.Profiling {
		return NewTimingProfiler()
	}
	return nopProfiler{}
}
