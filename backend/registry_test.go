// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/backend/software"
	"github.com/gogpu/dispatch/backend/wgpu"
)

var errBroken = errors.New("broken backend")

func brokenOpen(int) (dispatch.Device, dispatch.Queue, error) {
	return nil, nil, errBroken
}

// replaceWGPU swaps the wgpu opener for the duration of the test.
func replaceWGPU(t *testing.T, open dispatch.Opener) {
	t.Helper()
	Register(WGPU, open)
	t.Cleanup(func() { Register(WGPU, wgpu.Open) })
}

func TestAvailable(t *testing.T) {
	got := Available()
	if !slices.Equal(got, []string{Software, WGPU}) {
		t.Errorf("Available() = %v", got)
	}
	if Default() != WGPU {
		t.Errorf("Default() = %q, want %q", Default(), WGPU)
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("metal"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Get(metal) error = %v, want ErrNotRegistered", err)
	}
	if _, _, err := Open("metal", 0); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Open(metal) error = %v, want ErrNotRegistered", err)
	}
	if _, err := NewFactory("metal"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("NewFactory(metal) error = %v, want ErrNotRegistered", err)
	}
}

func TestOpenSoftware(t *testing.T) {
	dev, queue, err := Open(Software, 0)
	if err != nil {
		t.Fatalf("Open(software) error = %v", err)
	}
	defer dev.Destroy()
	if _, ok := dev.(*software.Device); !ok {
		t.Errorf("device is %T", dev)
	}
	if queue == nil {
		t.Error("nil queue")
	}

	if _, _, err := Open(Software, 1); !errors.Is(err, software.ErrNoAdapter) {
		t.Errorf("Open(software, 1) error = %v, want ErrNoAdapter", err)
	}
}

func TestOpenFallsBack(t *testing.T) {
	replaceWGPU(t, brokenOpen)

	dev, _, err := Open("", 0)
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	defer dev.Destroy()
	if _, ok := dev.(*software.Device); !ok {
		t.Errorf("fallback device is %T, want *software.Device", dev)
	}

	if _, _, err := Open(WGPU, 0); !errors.Is(err, errBroken) {
		t.Errorf("Open(wgpu) error = %v, want errBroken", err)
	}
}

func TestOpenAllFail(t *testing.T) {
	replaceWGPU(t, brokenOpen)
	Register(Software, brokenOpen)
	t.Cleanup(func() { Register(Software, software.Open) })

	_, _, err := Open("", 0)
	if !errors.Is(err, errBroken) {
		t.Fatalf("Open(\"\") error = %v, want errBroken", err)
	}
}

func TestRegisterCustom(t *testing.T) {
	var opened []int
	Register("custom", func(index int) (dispatch.Device, dispatch.Queue, error) {
		opened = append(opened, index)
		return software.Open(0)
	})
	defer Unregister("custom")

	replaceWGPU(t, brokenOpen)
	Unregister(Software)
	t.Cleanup(func() { Register(Software, software.Open) })

	dev, _, err := Open("", 3)
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	dev.Destroy()
	if !slices.Equal(opened, []int{3}) {
		t.Errorf("custom opened %v, want [3]", opened)
	}
}

func TestNewFactory(t *testing.T) {
	f, err := NewFactory(Software, dispatch.WithSubmitFrequency(8))
	if err != nil {
		t.Fatalf("NewFactory error = %v", err)
	}
	defer f.Close()

	ctx, err := f.Context(0)
	if err != nil {
		t.Fatalf("Context(0) error = %v", err)
	}
	if ctx.Config().SubmitFrequency != 8 {
		t.Errorf("SubmitFrequency = %d, want 8", ctx.Config().SubmitFrequency)
	}
	if f.Available(1) {
		t.Error("software backend reports adapter 1")
	}
}
