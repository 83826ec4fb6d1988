// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/backend/software"
	"github.com/gogpu/dispatch/shaders"
)

// createNoopDevice opens the HAL noop backend. Submissions complete
// immediately and commands have no effect, but buffers hold real bytes.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop instance has no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		open.Device.Destroy()
		instance.Destroy()
	})
	return open.Device, open.Queue
}

func newTestDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	raw, queue := createNoopDevice(t)
	d := New(raw, queue, opts...)
	t.Cleanup(d.Destroy)
	return d
}

func createBuffer(t *testing.T, d *Device, size uint64, hostVisible bool) dispatch.Buffer {
	t.Helper()
	b, err := d.CreateBuffer(dispatch.BufferDescriptor{
		Label:       "test",
		Size:        size,
		Usage:       dispatch.BufferStorage,
		HostVisible: hostVisible,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return b
}

// stalledQueue never reports a submission as completed.
type stalledQueue struct{ hal.Queue }

func (stalledQueue) PollCompleted() uint64 { return 0 }

func TestSpecialize(t *testing.T) {
	src := "@workgroup_size(WG_X, WG_Y, WG_Z)"
	got := specialize(src, dispatch.Vec3(64, 2, 1))
	if want := "@workgroup_size(64, 2, 1)"; got != want {
		t.Errorf("specialize = %q, want %q", got, want)
	}
}

func TestBufferUsage(t *testing.T) {
	u := bufferUsage(dispatch.BufferDescriptor{Usage: dispatch.BufferUniform})
	if u&gputypes.BufferUsageUniform == 0 || u&gputypes.BufferUsageCopyDst == 0 {
		t.Errorf("uniform usage = %v", u)
	}
	if u&gputypes.BufferUsageMapRead != 0 {
		t.Error("device-local buffer must not be mappable")
	}
	u = bufferUsage(dispatch.BufferDescriptor{Usage: dispatch.BufferStorage, HostVisible: true})
	if u&gputypes.BufferUsageStorage == 0 || u&gputypes.BufferUsageMapRead == 0 || u&gputypes.BufferUsageMapWrite == 0 {
		t.Errorf("host-visible storage usage = %v", u)
	}
}

func TestAccessMapping(t *testing.T) {
	if got := bufferAccess(dispatch.AccessShaderWrite); got != gputypes.BufferUsageStorage {
		t.Errorf("shader write = %v", got)
	}
	if got := bufferAccess(dispatch.AccessTransferRead | dispatch.AccessUniformRead); got != gputypes.BufferUsageCopySrc|gputypes.BufferUsageUniform {
		t.Errorf("transfer read|uniform = %v", got)
	}
	if got := textureAccess(dispatch.AccessShaderRead); got != gputypes.TextureUsageTextureBinding {
		t.Errorf("image shader read = %v", got)
	}
	if got := textureAccess(dispatch.AccessShaderRead | dispatch.AccessShaderWrite); got != gputypes.TextureUsageStorageBinding {
		t.Errorf("image shader read/write = %v", got)
	}
}

func TestLayoutEntry(t *testing.T) {
	e := layoutEntry(2, dispatch.DescriptorReadOnlyStorageBuffer)
	if e.Binding != 2 || e.Visibility != gputypes.ShaderStageCompute {
		t.Errorf("entry = %+v", e)
	}
	if e.Buffer == nil || e.Buffer.Type != gputypes.BufferBindingTypeReadOnlyStorage {
		t.Errorf("buffer layout = %+v", e.Buffer)
	}
	if e := layoutEntry(0, dispatch.DescriptorSampler); e.Sampler == nil || e.Buffer != nil {
		t.Errorf("sampler entry = %+v", e)
	}
	if e := layoutEntry(0, dispatch.DescriptorStorageImage); e.StorageTexture == nil {
		t.Errorf("storage image entry = %+v", e)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	b := createBuffer(t, d, 16, true)

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := d.Queue().WriteBuffer(b, 4, want); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	got := make([]byte, len(want))
	if err := d.Queue().ReadBuffer(b, 4, got); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("read %v, want %v", got, want)
	}

	d.DestroyBuffer(b)
	d.DestroyBuffer(b)
	if s := d.Stats(); s.BuffersCreated != 1 || s.BuffersDestroyed != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHostAccessErrors(t *testing.T) {
	d := newTestDevice(t)

	local := createBuffer(t, d, 16, false)
	if err := d.Queue().ReadBuffer(local, 0, make([]byte, 4)); !errors.Is(err, dispatch.ErrNotHostVisible) {
		t.Errorf("read device-local: %v, want ErrNotHostVisible", err)
	}
	if err := d.Queue().WriteBuffer(local, 0, make([]byte, 4)); !errors.Is(err, dispatch.ErrNotHostVisible) {
		t.Errorf("write device-local: %v, want ErrNotHostVisible", err)
	}

	host := createBuffer(t, d, 16, true)
	if err := d.Queue().WriteBuffer(host, 12, make([]byte, 8)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("write past end: %v, want ErrOutOfRange", err)
	}

	foreign := software.New()
	defer foreign.Destroy()
	sb, err := foreign.CreateBuffer(dispatch.BufferDescriptor{Size: 4, HostVisible: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Queue().WriteBuffer(sb, 0, make([]byte, 4)); !errors.Is(err, ErrForeignResource) {
		t.Errorf("foreign buffer: %v, want ErrForeignResource", err)
	}
}

func TestCreateErrors(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CreateBuffer(dispatch.BufferDescriptor{Label: "empty"}); err == nil {
		t.Error("zero-size buffer: expected error")
	}
	if _, err := d.CreateImage(dispatch.ImageDescriptor{Extent: dispatch.Vec3(4, 0, 1)}); err == nil {
		t.Error("empty image: expected error")
	}
	_, err := d.CreateImage(dispatch.ImageDescriptor{Extent: dispatch.Vec3(4, 4, 1), Format: dispatch.ImageFormat(99)})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unknown format: %v, want ErrUnsupportedFormat", err)
	}
	if _, err := d.CreatePipeline(shaders.Fill, dispatch.Vec3(0, 1, 1)); !errors.Is(err, dispatch.ErrInvalidWorkShape) {
		t.Errorf("zero local: %v, want ErrInvalidWorkShape", err)
	}
}

func TestImageAndSampler(t *testing.T) {
	d := newTestDevice(t)
	img, err := d.CreateImage(dispatch.ImageDescriptor{Label: "img", Extent: dispatch.Vec3(8, 8, 1), Format: dispatch.FormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if img.Extent() != dispatch.Vec3(8, 8, 1) || img.Format() != dispatch.FormatRGBA8Unorm {
		t.Errorf("image = %v %v", img.Extent(), img.Format())
	}
	d.DestroyImage(img)
	d.DestroyImage(img)
	if s := d.Stats(); s.ImagesCreated != 1 || s.ImagesDestroyed != 1 {
		t.Errorf("stats = %+v", s)
	}

	for _, desc := range []dispatch.SamplerDescriptor{
		{Label: "nearest"},
		{Label: "linear", Linear: true},
	} {
		s, err := d.CreateSampler(desc)
		if err != nil {
			t.Fatalf("CreateSampler(%s): %v", desc.Label, err)
		}
		if s.Label() != desc.Label {
			t.Errorf("label = %q, want %q", s.Label(), desc.Label)
		}
		d.DestroySampler(s)
	}
}

func TestSubmitSignalsFence(t *testing.T) {
	d := newTestDevice(t)
	src := createBuffer(t, d, 16, true)
	dst := createBuffer(t, d, 16, true)

	fence, err := d.CreateFence()
	if err != nil {
		t.Fatal(err)
	}
	if err := fence.Wait(); !errors.Is(err, dispatch.ErrFenceNotSubmitted) {
		t.Fatalf("Wait before submit: %v, want ErrFenceNotSubmitted", err)
	}

	cmd, err := d.CreateCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	defer d.FreeCommandBuffer(cmd)

	if err := d.Queue().Submit(cmd, fence); !errors.Is(err, ErrNotEnded) {
		t.Fatalf("Submit before End: %v, want ErrNotEnded", err)
	}

	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	cmd.PipelineBarrier(dispatch.Barrier{Buffers: []dispatch.BufferBarrier{
		{Buffer: src, Src: dispatch.AccessHostWrite, Dst: dispatch.AccessTransferRead},
	}})
	cmd.CopyBufferToBuffer(src, dst, dispatch.BufferCopy{Size: 16})
	if err := cmd.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := d.Queue().Submit(cmd, fence); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := fence.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !fence.Signaled() {
		t.Error("fence not signaled after Wait")
	}
	if err := fence.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fence.Signaled() {
		t.Error("fence signaled after Reset")
	}

	cmd.Reset()
	if err := cmd.Begin(); err != nil {
		t.Fatalf("Begin after Reset: %v", err)
	}
	if err := cmd.End(); err != nil {
		t.Fatalf("End after Reset: %v", err)
	}
	if got := d.Stats().Submissions; got != 1 {
		t.Errorf("submissions = %d, want 1", got)
	}
}

func TestRecordingErrorsReportedAtEnd(t *testing.T) {
	d := newTestDevice(t)
	cmd, err := d.CreateCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	defer d.FreeCommandBuffer(cmd)

	if err := cmd.End(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("End without Begin: %v, want ErrNotRecording", err)
	}

	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	cmd.Dispatch(dispatch.Vec3(4, 1, 1))
	if err := cmd.End(); !errors.Is(err, ErrNoPipeline) {
		t.Errorf("dispatch without pipeline: %v, want ErrNoPipeline", err)
	}

	foreign := software.New()
	defer foreign.Destroy()
	sb, err := foreign.CreateBuffer(dispatch.BufferDescriptor{Size: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	cmd.CopyBufferToBuffer(sb, createBuffer(t, d, 4, false), dispatch.BufferCopy{Size: 4})
	if err := cmd.End(); !errors.Is(err, ErrForeignResource) {
		t.Errorf("foreign copy source: %v, want ErrForeignResource", err)
	}
}

// createPipeline compiles shader with naga, skipping the test on WGSL
// features the compiler does not support yet.
func createPipeline(t *testing.T, d *Device, shader dispatch.ShaderInfo, local dispatch.UVec3) dispatch.Pipeline {
	t.Helper()
	p, err := d.CreatePipeline(shader, local)
	if err != nil {
		if msg := err.Error(); strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("naga: %v", err)
		}
		t.Fatalf("CreatePipeline(%s): %v", shader.Name, err)
	}
	t.Cleanup(func() { d.DestroyPipeline(p) })
	return p
}

func TestDispatchRecordsComputePass(t *testing.T) {
	d := newTestDevice(t)
	p := createPipeline(t, d, shaders.Fill, dispatch.Vec3(64, 1, 1))
	if p.Local() != dispatch.Vec3(64, 1, 1) || p.Shader().Name != shaders.Fill.Name {
		t.Errorf("pipeline = %s %s", p.Shader().Name, p.Local())
	}

	set, err := d.CreateDescriptorSet(p)
	if err != nil {
		t.Fatal(err)
	}
	defer d.DestroyDescriptorSet(set)

	cmd, err := d.CreateCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	defer d.FreeCommandBuffer(cmd)

	// Slot 1 unbound.
	set.BindBuffer(0, createBuffer(t, d, 256, false))
	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	cmd.BindPipeline(p)
	cmd.BindDescriptorSet(set)
	cmd.Dispatch(dispatch.Vec3(64, 1, 1))
	if err := cmd.End(); err == nil {
		t.Fatal("dispatch with unbound slot: expected error")
	}

	params, err := d.CreateBuffer(dispatch.BufferDescriptor{Size: 16, Usage: dispatch.BufferUniform})
	if err != nil {
		t.Fatal(err)
	}
	set.BindBuffer(1, params)
	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	cmd.BindPipeline(p)
	cmd.BindDescriptorSet(set)
	cmd.Dispatch(dispatch.Vec3(100, 1, 1))
	cmd.Dispatch(dispatch.Vec3(100, 1, 1))
	if err := cmd.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if got := cmd.(*CommandBuffer).dispatches; got != 2 {
		t.Errorf("dispatches = %d, want 2", got)
	}
	if err := d.Queue().Submit(cmd, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestContextOnHAL(t *testing.T) {
	d := newTestDevice(t)
	ctx, err := dispatch.NewContext(d, d.Queue())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	out, err := dispatch.NewStorageBuffer(ctx, dispatch.Float32, 256, false)
	if err != nil {
		t.Fatal(err)
	}
	params, err := dispatch.NewUniformParamsBuffer(ctx, shaders.FillParams{Value: 1, Count: 256})
	if err != nil {
		t.Fatal(err)
	}
	// Skips when naga cannot compile the shader.
	createPipeline(t, d, shaders.Fill, dispatch.Vec3(64, 1, 1))

	job := dispatch.ComputeJob{Shader: shaders.Fill, Global: dispatch.Vec3(256, 1, 1), Local: dispatch.Vec3(64, 1, 1)}
	if err := ctx.SubmitComputeJob(job, out.Arg(), params.Arg()); err != nil {
		t.Fatalf("SubmitComputeJob: %v", err)
	}
	params.Release()
	out.Release()
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s := d.Stats()
	if s.Submissions == 0 {
		t.Error("no submissions reached the HAL queue")
	}
	if s.BuffersDestroyed != s.BuffersCreated {
		t.Errorf("buffers created %d, destroyed %d", s.BuffersCreated, s.BuffersDestroyed)
	}
}

func TestFenceTimeout(t *testing.T) {
	raw, queue := createNoopDevice(t)
	d := New(raw, stalledQueue{queue}, WithFenceTimeout(5*time.Millisecond))

	cmd, err := d.CreateCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	fence, _ := d.CreateFence()
	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := cmd.End(); err != nil {
		t.Fatal(err)
	}
	if err := d.Queue().Submit(cmd, fence); err != nil {
		t.Fatal(err)
	}

	if fence.Signaled() {
		t.Error("stalled submission reported signaled")
	}
	if err := fence.Wait(); !errors.Is(err, ErrFenceTimeout) {
		t.Errorf("Wait: %v, want ErrFenceTimeout", err)
	}
	if err := fence.Reset(); !errors.Is(err, ErrFencePending) {
		t.Errorf("Reset: %v, want ErrFencePending", err)
	}

	d.Destroy()
	if err := fence.Wait(); !errors.Is(err, dispatch.ErrDeviceLost) {
		t.Errorf("Wait after Destroy: %v, want ErrDeviceLost", err)
	}
	if err := d.Queue().Submit(cmd, nil); !errors.Is(err, dispatch.ErrDeviceLost) {
		t.Errorf("Submit after Destroy: %v, want ErrDeviceLost", err)
	}
}

type halProvider struct {
	plainProvider
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

// plainProvider exposes no HAL objects.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device   { return nil }
func (plainProvider) Queue() gpucontext.Queue     { return nil }
func (plainProvider) Adapter() gpucontext.Adapter { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "test adapter"}
}

func TestNewFromProvider(t *testing.T) {
	raw, queue := createNoopDevice(t)
	d, err := NewFromProvider(halProvider{device: raw, queue: queue})
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if d.Raw() != raw || d.Queue().Raw() != queue {
		t.Error("provider objects not used")
	}
	if d.Info().Name != "test adapter" {
		t.Errorf("adapter name = %q", d.Info().Name)
	}

	if _, err := NewFromProvider(halProvider{device: raw, queue: nil}); !errors.Is(err, ErrProvider) {
		t.Errorf("nil queue: %v, want ErrProvider", err)
	}
	if _, err := NewFromProvider(plainProvider{}); !errors.Is(err, ErrProvider) {
		t.Errorf("no HAL accessors: %v, want ErrProvider", err)
	}
}

func TestOpenBackendNotRegistered(t *testing.T) {
	_, err := OpenBackend(gputypes.BackendBrowserWebGPU, 0)
	if !errors.Is(err, hal.ErrBackendNotFound) {
		t.Errorf("OpenBackend: %v, want ErrBackendNotFound", err)
	}
}
