// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command dispatchdemo runs scale jobs from several goroutines on one
// dispatch context and checks the results.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/backend"
	"github.com/gogpu/dispatch/shaders"
)

func main() {
	var (
		name    = flag.String("backend", "", "backend name (empty selects the best available)")
		adapter = flag.Int("adapter", 0, "adapter index")
		n       = flag.Int("n", 1<<16, "elements per job")
		jobs    = flag.Int("jobs", 64, "number of jobs")
		workers = flag.Int("workers", 4, "concurrent submitters")
		freq    = flag.Int("freq", dispatch.DefaultSubmitFrequency, "submissions per automatic submit")
		profile = flag.Bool("profile", false, "record per-dispatch timings")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	dispatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	f, err := backend.NewFactory(*name,
		dispatch.WithSubmitFrequency(*freq),
		dispatch.WithProfiling(*profile),
	)
	if err != nil {
		log.Fatal(err)
	}
	ctx, err := f.Context(*adapter)
	if err != nil {
		log.Fatalf("open adapter %d: %v", *adapter, err)
	}

	start := time.Now()
	if err := run(ctx, *n, *jobs, *workers); err != nil {
		_ = f.Close()
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	st := ctx.Stats()
	fmt.Printf("%d jobs of %d elements in %s\n", *jobs, *n, elapsed.Round(time.Microsecond))
	fmt.Printf("recorded %d, submissions %d, flushes %d\n", st.Recorded, st.Submissions, st.Flushes)
	if *profile {
		for _, s := range ctx.Profiler().Spans() {
			fmt.Println(s)
		}
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *dispatch.Context, n, jobs, workers int) error {
	var g errgroup.Group
	g.SetLimit(workers)
	for j := range jobs {
		g.Go(func() error { return scale(ctx, n, float32(j%7)+0.5) })
	}
	return g.Wait()
}

// scale uploads 0..n-1, multiplies by alpha on the device and checks the
// result. The parameter block is released right after submission; the
// context keeps it alive until the job has run.
func scale(ctx *dispatch.Context, n int, alpha float32) error {
	in, err := dispatch.NewStorageBuffer(ctx, dispatch.Float32, n, false)
	if err != nil {
		return err
	}
	defer in.Release()
	out, err := dispatch.NewStorageBuffer(ctx, dispatch.Float32, n, false)
	if err != nil {
		return err
	}
	defer out.Release()

	values := make([]float32, n)
	for i := range values {
		values[i] = float32(i % 1024)
	}
	if err := in.WriteFloat32s(values); err != nil {
		return err
	}

	params, err := dispatch.NewUniformParamsBuffer(ctx, shaders.ScaleParams{Alpha: alpha, Count: uint32(n)})
	if err != nil {
		return err
	}
	job := dispatch.ComputeJob{
		Shader: shaders.Scale,
		Global: dispatch.Vec3(uint32(n), 1, 1),
		Local:  dispatch.Vec3(64, 1, 1),
	}
	err = ctx.SubmitComputeJob(job, out.Arg(), in.Arg(), params.Arg())
	params.Release()
	if err != nil {
		return err
	}
	if err := ctx.Flush(); err != nil {
		return err
	}

	got, err := out.ReadFloat32s()
	if err != nil {
		return err
	}
	for i, v := range got {
		if want := values[i] * alpha; v != want {
			return fmt.Errorf("alpha %g: element %d = %g, want %g", alpha, i, v, want)
		}
	}
	return nil
}
