// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "sync"

// cleanupRegistry holds buffers and images whose host owners are gone but
// which submitted work may still reference. Each list has its own lock so
// registration never waits on command recording or on the other list.
type cleanupRegistry struct {
	bufMu   sync.Mutex
	buffers []Buffer

	imgMu  sync.Mutex
	images []Image
}

func (r *cleanupRegistry) addBuffer(b Buffer) {
	r.bufMu.Lock()
	r.buffers = append(r.buffers, b)
	r.bufMu.Unlock()
}

func (r *cleanupRegistry) addImage(img Image) {
	r.imgMu.Lock()
	r.images = append(r.images, img)
	r.imgMu.Unlock()
}

// pending returns the number of buffers and images awaiting destruction.
func (r *cleanupRegistry) pending() (buffers, images int) {
	r.bufMu.Lock()
	buffers = len(r.buffers)
	r.bufMu.Unlock()
	r.imgMu.Lock()
	images = len(r.images)
	r.imgMu.Unlock()
	return buffers, images
}

// drain destroys everything registered so far. The caller must have waited
// for all submitted work. Each list is detached under its lock before any
// destruction, so registrations racing with drain land in the fresh list and
// are destroyed by the next drain.
func (r *cleanupRegistry) drain(device Device) (buffers, images int) {
	r.bufMu.Lock()
	bufs := r.buffers
	r.buffers = nil
	r.bufMu.Unlock()

	r.imgMu.Lock()
	imgs := r.images
	r.images = nil
	r.imgMu.Unlock()

	for _, b := range bufs {
		device.DestroyBuffer(b)
	}
	for _, img := range imgs {
		device.DestroyImage(img)
	}
	return len(bufs), len(imgs)
}
