// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"fmt"
	"sync"
	"time"
)

// Profiler observes every dispatch and copy the Context records. It must
// not change what is recorded.
type Profiler interface {
	// Begin opens a span for a kernel recorded into cmd and returns its index.
	Begin(cmd CommandBuffer, kernel string, global, local UVec3) int
	// End closes the span returned by Begin.
	End(cmd CommandBuffer, index int)
	// Spans returns the spans recorded since the last Reset.
	Spans() []Span
	// Reset discards all spans.
	Reset()
}

// Span is one profiled operation.
type Span struct {
	Kernel string
	Global UVec3
	Local  UVec3
	Start  time.Time
	End    time.Time
}

// Duration returns the time between Begin and End.
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

func (s Span) String() string {
	return fmt.Sprintf("%s global=%s local=%s %v", s.Kernel, s.Global, s.Local, s.Duration())
}

type nopProfiler struct{}

func (nopProfiler) Begin(CommandBuffer, string, UVec3, UVec3) int { return -1 }
func (nopProfiler) End(CommandBuffer, int)                        {}
func (nopProfiler) Spans() []Span                                 { return nil }
func (nopProfiler) Reset()                                        {}

// NopProfiler returns a profiler that records nothing.
func NopProfiler() Profiler { return nopProfiler{} }

// TimingProfiler records host-side recording time per kernel.
//
// TimingProfiler is safe for concurrent use.
type TimingProfiler struct {
	mu    sync.Mutex
	spans []Span
	now   func() time.Time
}

// NewTimingProfiler returns an empty TimingProfiler.
func NewTimingProfiler() *TimingProfiler {
	return &TimingProfiler{now: time.Now}
}

func (p *TimingProfiler) Begin(_ CommandBuffer, kernel string, global, local UVec3) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spans = append(p.spans, Span{Kernel: kernel, Global: global, Local: local, Start: p.now()})
	return len(p.spans) - 1
}

func (p *TimingProfiler) End(_ CommandBuffer, index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.spans) {
		return
	}
	p.spans[index].End = p.now()
}

func (p *TimingProfiler) Spans() []Span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Span, len(p.spans))
	copy(out, p.spans)
	return out
}

func (p *TimingProfiler) Reset() {
	p.mu.Lock()
	p.spans = nil
	p.mu.Unlock()
}
