// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shaders

import (
	"strings"
	"testing"
)

func TestShaderSources(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range All() {
		t.Run(s.Name, func(t *testing.T) {
			if seen[s.Name] {
				t.Fatalf("duplicate shader name %q", s.Name)
			}
			seen[s.Name] = true

			for _, req := range []string{"@compute", "@workgroup_size(WG_X, WG_Y, WG_Z)", "fn " + s.EntryPoint} {
				if !strings.Contains(s.Source, req) {
					t.Errorf("source missing %q", req)
				}
			}
			if got := strings.Count(s.Source, "@binding("); got != len(s.Layout) {
				t.Errorf("source declares %d bindings, layout has %d", got, len(s.Layout))
			}
			if !s.TileSize.Positive() {
				t.Errorf("tile size %s must be positive", s.TileSize)
			}
		})
	}
}
