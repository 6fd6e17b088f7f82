// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererBlank(t *testing.T) {
	dv := testDevice(t)
	src := `
@group(0) @binding(0)
var<storage, read_write> img: array<vec4<f32>>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) pos: vec3<u32>, @builtin(num_workgroups) size: vec3<u32>) {
	img[pos.y * size.x + pos.x] = vec4<f32>(1.0);
}
`
	rd, err := NewRenderer(dv, src, "blank.wgsl", "main")
	require.NoError(t, err)
	defer rd.Release()

	img, err := rd.Render(32, 16)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Rect.Dx())
	assert.Equal(t, 16, img.Rect.Dy())
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			require.Equal(t, white, img.RGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestRendererGradient(t *testing.T) {
	dv := testDevice(t)
	src := `
@group(0) @binding(0)
var<storage, read_write> img: array<vec4<f32>>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) pos: vec3<u32>, @builtin(num_workgroups) size: vec3<u32>) {
	let uv = vec2<f32>(f32(pos.x), f32(pos.y)) / vec2<f32>(f32(size.x), f32(size.y));
	img[pos.y * size.x + pos.x] = vec4<f32>(uv, 0.0, 1.0);
}
`
	rd, err := NewRenderer(dv, src, "grad.wgsl", "main")
	require.NoError(t, err)
	defer rd.Release()

	const w, h = 8, 4
	img, err := rd.Render(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := color.RGBA{
				R: channel8(float32(x) / w),
				G: channel8(float32(y) / h),
				B: 0,
				A: 255,
			}
			require.Equal(t, want, img.RGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestRendererInvalidSize(t *testing.T) {
	dv := testDevice(t)
	src := `
@group(0) @binding(0)
var<storage, read_write> img: array<vec4<f32>>;

@compute @workgroup_size(1)
fn main() { img[0] = vec4<f32>(0.0); }
`
	rd, err := NewRenderer(dv, src, "noop.wgsl", "main")
	require.NoError(t, err)
	defer rd.Release()

	_, err = rd.Render(0, 16)
	assert.ErrorIs(t, err, ErrZeroLength)
	_, err = rd.Render(16, -1)
	assert.ErrorIs(t, err, ErrZeroLength)
}

func TestChannel8(t *testing.T) {
	assert.Equal(t, uint8(0), channel8(0))
	assert.Equal(t, uint8(255), channel8(1))
	assert.Equal(t, uint8(255), channel8(2.5))
	assert.Equal(t, uint8(0), channel8(-0.5))
	assert.Equal(t, uint8(128), channel8(0.5))
}
