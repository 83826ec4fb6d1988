// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build stress

package dispatch_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/shaders"
)

// Run with: go test -tags stress -run Stress -count=1 .

func TestStress_ReleaseUniformsUnderLoad(t *testing.T) {
	ctx, dev := newContext(t, dispatch.WithSubmitFrequency(7), dispatch.WithCommandPoolSize(3))
	const workers, rounds, n = 16, 500, 256

	in := newStorage(t, ctx, n)
	ones := make([]float32, n)
	for i := range ones {
		ones[i] = 1
	}
	require.NoError(t, in.WriteFloat32s(ones))

	var g errgroup.Group
	for w := range workers {
		out := newStorage(t, ctx, n)
		g.Go(func() error {
			for r := range rounds {
				params, err := dispatch.NewUniformParamsBuffer(ctx, shaders.ScaleParams{Alpha: float32(w), Count: n})
				if err != nil {
					return err
				}
				err = ctx.SubmitComputeJob(dispatch.ComputeJob{
					Shader: shaders.Scale,
					Global: dispatch.Vec3(n, 1, 1),
					Local:  dispatch.Vec3(64, 1, 1),
				}, out.Arg(), in.Arg(), params.Arg())
				params.Release()
				if err != nil {
					return err
				}
				if r%50 == 0 {
					if err := ctx.Flush(); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, ctx.Flush())

	st := dev.Stats()
	assert.Zero(t, st.UseAfterFree)
	assert.Zero(t, st.DoubleFree)
	assert.Equal(t, uint64(workers*rounds), st.Dispatches)
	runtime.KeepAlive(in)
}
