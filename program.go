// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"regexp"
	"strings"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// Program is a compiled compute pipeline: a WGSL shader compiled and
// validated, with an entry point resolved and the resource binding
// layout derived automatically from the bindings the shader declares.
// A Program is immutable after construction and can be shared and
// reused across any number of tasks.
type Program struct {
	// Name is the label used in diagnostics for this program.
	Name string

	// Entry is the name of the compute entry point function.
	Entry string

	warnings string
	spirv    []byte
	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
}

// NewProgram compiles source as a compute shader and builds the
// pipeline for the given entry point, with name used as the label in
// diagnostics. Errors distinguish their origin: a [*CompileError]
// carries the compiler's full diagnostics for an error in the source
// itself; [ErrEntryPointNotFound] names a missing entry function; and
// [ErrShaderModuleCreationFailed], [ErrPipelineLayoutCreationFailed],
// and [ErrPipelineCreationFailed] indicate the device rejecting a
// shader that compiled cleanly. Non-fatal compiler warnings are
// retained and available from [Program.Warnings]; they never fail
// the compile.
func NewProgram(dev *Device, source, name, entry string) (*Program, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, errors.Log(&CompileError{Name: name, Diagnostics: err.Error()})
	}

	if !hasComputeEntry(source, entry) {
		return nil, errors.Log(fmt.Errorf("%w: %q in shader %q", ErrEntryPointNotFound, entry, name))
	}

	module, err := dev.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderModuleCreationFailed, err)
	}

	pipeline, err := dev.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: entry,
		},
	})
	if errors.Log(err) != nil {
		module.Release()
		return nil, fmt.Errorf("%w: %w", ErrPipelineCreationFailed, err)
	}

	// no layout given above, so it is derived from the shader bindings
	layout := pipeline.GetBindGroupLayout(0)
	if layout == nil {
		pipeline.Release()
		module.Release()
		return nil, errors.Log(fmt.Errorf("%w: shader %q", ErrPipelineLayoutCreationFailed, name))
	}

	return &Program{
		Name:     name,
		Entry:    entry,
		spirv:    spirv,
		module:   module,
		pipeline: pipeline,
		layout:   layout,
	}, nil
}

// Warnings returns any non-fatal diagnostics the compiler produced.
func (pr *Program) Warnings() string { return pr.warnings }

// SPIRV returns the compiled SPIR-V binary for this program,
// for tooling and debugging.
func (pr *Program) SPIRV() []byte { return pr.spirv }

// Release releases the pipeline and shader module resources.
func (pr *Program) Release() {
	if pr.layout != nil {
		pr.layout.Release()
		pr.layout = nil
	}
	if pr.pipeline != nil {
		pr.pipeline.Release()
		pr.pipeline = nil
	}
	if pr.module != nil {
		pr.module.Release()
		pr.module = nil
	}
}

// fnDecl matches a WGSL function declaration together with the
// attribute list in front of it.
var fnDecl = regexp.MustCompile(`((?:@[A-Za-z_]\w*(?:\([^)]*\))?\s*)*)fn\s+([A-Za-z_]\w*)`)

// hasComputeEntry reports whether the WGSL source declares a
// @compute entry function with the given name.
func hasComputeEntry(source, entry string) bool {
	for _, m := range fnDecl.FindAllStringSubmatch(source, -1) {
		if m[2] == entry && strings.Contains(m[1], "@compute") {
			return true
		}
	}
	return false
}
