// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleShader = `
@group(0) @binding(0)
var<storage, read_write> data: array<u32>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	data[gid.x] = data[gid.x] * 2u;
}
`

func TestProgramCompile(t *testing.T) {
	dv := testDevice(t)
	pr, err := NewProgram(dv, doubleShader, "double.wgsl", "main")
	require.NoError(t, err)
	defer pr.Release()
	assert.Equal(t, "double.wgsl", pr.Name)
	assert.NotEmpty(t, pr.SPIRV())
	assert.Empty(t, pr.Warnings())
}

func TestProgramSyntaxError(t *testing.T) {
	dv := testDevice(t)
	src := `
@compute @workgroup_size(1)
fn main() { let x: u32 = }
`
	_, err := NewProgram(dv, src, "broken.wgsl", "main")
	require.Error(t, err)
	ce := &CompileError{}
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken.wgsl", ce.Name)
	assert.NotEmpty(t, ce.Diagnostics)
}

func TestProgramEntryPointMissing(t *testing.T) {
	dv := testDevice(t)
	_, err := NewProgram(dv, doubleShader, "double.wgsl", "not_main")
	assert.ErrorIs(t, err, ErrEntryPointNotFound)
}

func TestComputeEntryScan(t *testing.T) {
	tests := []struct {
		source string
		entry  string
		want   bool
	}{
		{"@compute fn main() {}", "main", true},
		{"@compute @workgroup_size(64) fn run() {}", "run", true},
		{"@workgroup_size(8, 8) @compute fn tiles() {}", "tiles", true},
		{"fn helper() {}\n@compute @workgroup_size(1)\nfn main() {}", "main", true},
		{"@compute fn main() {}", "helper", false},
		{"fn main() {}", "main", false},
		{"@fragment fn main() {}", "main", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hasComputeEntry(tt.source, tt.entry), "entry %q in %q", tt.entry, tt.source)
	}
}
