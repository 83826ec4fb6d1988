// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import "sync"

// TraceEntry is one executed command.
type TraceEntry struct {
	// Op is "barrier", "dispatch" or the copy command name.
	Op string
	// Kernel is the shader name of a dispatch.
	Kernel string
	// Resources are the IDs of the buffers and images the command touched,
	// in binding order for dispatches and source then destination for copies.
	Resources []uint64
	// Submission numbers the submission the command belonged to, from 1.
	Submission uint64
}

// Trace is the ordered log of executed commands of a device created with
// WithTrace.
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
}

func (t *Trace) add(e TraceEntry) {
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// Entries returns a copy of the log.
func (t *Trace) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Reset clears the log.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}
