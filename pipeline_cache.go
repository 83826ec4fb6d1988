// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

type pipelineKey struct {
	name  string
	local UVec3
}

func (k pipelineKey) String() string { return k.name + "@" + k.local.String() }

// PipelineCache resolves a shader and local work shape to a pipeline,
// creating it on first use. Concurrent misses for the same key create the
// pipeline once.
//
// PipelineCache is safe for concurrent use.
type PipelineCache struct {
	device Device
	group  singleflight.Group

	mu        sync.RWMutex
	pipelines map[pipelineKey]Pipeline
}

func newPipelineCache(device Device) *PipelineCache {
	return &PipelineCache{device: device, pipelines: make(map[pipelineKey]Pipeline)}
}

// Get returns the pipeline for shader at local, keyed by shader name.
func (c *PipelineCache) Get(shader ShaderInfo, local UVec3) (Pipeline, error) {
	key := pipelineKey{name: shader.Name, local: local}

	c.mu.RLock()
	p, ok := c.pipelines[key]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		p, ok := c.pipelines[key]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		p, err := c.device.CreatePipeline(shader, local)
		if err != nil {
			return nil, fmt.Errorf("dispatch: pipeline %s: %w", key, err)
		}
		c.mu.Lock()
		c.pipelines[key] = p
		c.mu.Unlock()
		Logger().Debug("dispatch: pipeline created", "shader", shader.Name, "local", local.String())
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Pipeline), nil
}

// Len returns the number of cached pipelines.
func (c *PipelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// Purge destroys every cached pipeline. No submitted work may still use them.
func (c *PipelineCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.pipelines {
		c.device.DestroyPipeline(p)
		delete(c.pipelines, key)
	}
}
