// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

// Default configuration values.
const (
	DefaultSubmitFrequency    = 16
	DefaultCommandPoolSize    = 8
	DefaultFencePoolSize      = 16
	DefaultDescriptorPoolSize = 1024
)

// Config holds the settings of a Context.
type Config struct {
	// SubmitFrequency is the number of unfenced submissions after which the
	// shared command buffer is submitted without an explicit flush.
	SubmitFrequency int

	// CommandPoolSize bounds the number of command buffers alive at once,
	// recording or in flight.
	CommandPoolSize int

	// FencePoolSize bounds the number of fences handed out by the fence pool.
	FencePoolSize int

	// DescriptorPoolSize bounds the number of descriptor sets alive at once.
	DescriptorPoolSize int

	// Profiling requests the timing profiler. It only takes effect in builds
	// with the dispatchprofile tag; otherwise a no-op profiler is used.
	Profiling bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SubmitFrequency:    DefaultSubmitFrequency,
		CommandPoolSize:    DefaultCommandPoolSize,
		FencePoolSize:      DefaultFencePoolSize,
		DescriptorPoolSize: DefaultDescriptorPoolSize,
	}
}

// normalize replaces non-positive values with defaults.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.SubmitFrequency <= 0 {
		c.SubmitFrequency = d.SubmitFrequency
	}
	if c.CommandPoolSize <= 0 {
		c.CommandPoolSize = d.CommandPoolSize
	}
	if c.FencePoolSize <= 0 {
		c.FencePoolSize = d.FencePoolSize
	}
	if c.DescriptorPoolSize <= 0 {
		c.DescriptorPoolSize = d.DescriptorPoolSize
	}
	return c
}

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := dispatch.NewContext(dev, queue,
//	    dispatch.WithSubmitFrequency(32),
//	    dispatch.WithDescriptorPoolSize(4096),
//	)
type Option func(*options)

type options struct {
	cfg          Config
	profiler     Profiler
	sharedDevice bool
}

func defaultOptions() options {
	return options{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithSubmitFrequency sets Config.SubmitFrequency.
func WithSubmitFrequency(n int) Option {
	return func(o *options) {
		o.cfg.SubmitFrequency = n
	}
}

// WithCommandPoolSize sets Config.CommandPoolSize.
func WithCommandPoolSize(n int) Option {
	return func(o *options) {
		o.cfg.CommandPoolSize = n
	}
}

// WithFencePoolSize sets Config.FencePoolSize.
func WithFencePoolSize(n int) Option {
	return func(o *options) {
		o.cfg.FencePoolSize = n
	}
}

// WithDescriptorPoolSize sets Config.DescriptorPoolSize.
func WithDescriptorPoolSize(n int) Option {
	return func(o *options) {
		o.cfg.DescriptorPoolSize = n
	}
}

// WithProfiling sets Config.Profiling.
func WithProfiling(enabled bool) Option {
	return func(o *options) {
		o.cfg.Profiling = enabled
	}
}

// WithProfiler injects a profiler, overriding the build-selected one.
func WithProfiler(p Profiler) Option {
	return func(o *options) {
		o.profiler = p
	}
}

// WithSharedDevice marks the device as owned by someone else: Close leaves
// it alive.
func WithSharedDevice() Option {
	return func(o *options) {
		o.sharedDevice = true
	}
}
