// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
	"image/color"

	"cogentcore.org/gpu/base/errors"
	"github.com/chewxy/math32"
)

// Renderer runs a compute shader that fills an RGBA float image
// buffer, one workgroup per pixel, and converts the result to an
// 8-bit [image.RGBA]. The shader receives the image as an
// array<vec4<f32>> storage buffer at binding 0, in row-major order;
// the image size is the workgroup count, available in the shader as
// num_workgroups.
type Renderer struct {
	Device *Device
	prog   *Program
}

// NewRenderer compiles source as the rendering program, with the
// same compilation errors as [NewProgram].
func NewRenderer(dev *Device, source, name, entry string) (*Renderer, error) {
	pr, err := NewProgram(dev, source, name, entry)
	if err != nil {
		return nil, err
	}
	return &Renderer{Device: dev, prog: pr}, nil
}

// Render runs the rendering program over a width x height pixel grid
// and returns the resulting image, blocking until the device is done.
// Channel values are clamped to [0, 1] before conversion to 8 bits.
func (rd *Renderer) Render(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Log(fmt.Errorf("%w: image size %dx%d", ErrZeroLength, width, height))
	}
	buf, err := NewBuffer[float32](rd.Device, 4*width*height)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	tb, err := NewTaskBuilder(rd.Device)
	if err != nil {
		return nil, err
	}
	if err := tb.Dispatch(rd.prog, width, height, 1, buf.Bind(0)); err != nil {
		return nil, err
	}
	if err := tb.BuildSubmitAndWait(); err != nil {
		return nil, err
	}
	pix, err := buf.Read()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := pix[4*(y*width+x):]
			img.SetRGBA(x, y, color.RGBA{
				R: channel8(p[0]),
				G: channel8(p[1]),
				B: channel8(p[2]),
				A: channel8(p[3]),
			})
		}
	}
	return img, nil
}

// Release releases the rendering program. The Device is the caller's.
func (rd *Renderer) Release() {
	if rd.prog != nil {
		rd.prog.Release()
		rd.prog = nil
	}
}

func channel8(v float32) uint8 {
	return uint8(math32.Round(math32.Min(math32.Max(v, 0), 1) * 255))
}
