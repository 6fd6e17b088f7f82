// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/gpu/base/errors"
)

// Buffer errors. The first three are caller-contract violations,
// detected before touching the device; the rest wrap device failures.
var (
	// ErrZeroLength is returned when allocating a buffer of length 0.
	ErrZeroLength = errors.New("gpu: buffer length must be > 0")

	// ErrEmptyRange is returned by Sub when start >= end.
	ErrEmptyRange = errors.New("gpu: requested buffer range is empty")

	// ErrOutOfBounds is returned by Sub when the range extends
	// past the end of the buffer.
	ErrOutOfBounds = errors.New("gpu: requested buffer range is out of bounds")

	// ErrAllocationFailed is returned when the device rejects
	// a buffer allocation.
	ErrAllocationFailed = errors.New("gpu: failed to allocate buffer")

	// ErrReadFailed is returned when buffer memory cannot be
	// mapped for reading, e.g., during concurrent device access
	// without a prior wait.
	ErrReadFailed = errors.New("gpu: failed to read from buffer")

	// ErrWriteFailed is returned when the queue rejects a buffer write.
	ErrWriteFailed = errors.New("gpu: failed to write to buffer")
)

// Program errors. A [CompileError] indicates an error in the shader
// source itself; the others indicate a device or compiler mismatch.
var (
	// ErrEntryPointNotFound is returned when the requested entry
	// point is not a compute entry function in the shader source.
	ErrEntryPointNotFound = errors.New("gpu: entry point not found")

	// ErrShaderModuleCreationFailed is returned when the device
	// rejects the compiled shader module.
	ErrShaderModuleCreationFailed = errors.New("gpu: failed to create shader module")

	// ErrPipelineLayoutCreationFailed is returned when the resource
	// binding layout cannot be derived from the shader.
	ErrPipelineLayoutCreationFailed = errors.New("gpu: failed to derive pipeline layout")

	// ErrPipelineCreationFailed is returned when the device rejects
	// the compute pipeline.
	ErrPipelineCreationFailed = errors.New("gpu: failed to create compute pipeline")
)

// Task errors.
var (
	// ErrBuilderCreationFailed is returned when command recording
	// resources cannot be allocated.
	ErrBuilderCreationFailed = errors.New("gpu: failed to create task builder")

	// ErrUnequalBufferSize is returned by Copy when source and
	// destination lengths differ. Nothing is recorded.
	ErrUnequalBufferSize = errors.New("gpu: source and destination buffer sizes are unequal")

	// ErrCopyRecordingFailed is returned when a copy operation
	// cannot be recorded.
	ErrCopyRecordingFailed = errors.New("gpu: failed to record copy")

	// ErrBindGroupCreationFailed is returned by Dispatch when the
	// given bindings do not match the program's binding layout
	// in count, slot index, or type.
	ErrBindGroupCreationFailed = errors.New("gpu: failed to create bind group")

	// ErrDispatchRecordingFailed is returned when a dispatch
	// operation cannot be recorded.
	ErrDispatchRecordingFailed = errors.New("gpu: failed to record dispatch")

	// ErrTaskBuilt is returned when recording on a builder that
	// has already been built.
	ErrTaskBuilt = errors.New("gpu: task builder already built")

	// ErrTaskBuildFailed is returned by Build when the recorded
	// command sequence is not usable, e.g., it is empty.
	ErrTaskBuildFailed = errors.New("gpu: failed to build task")

	// ErrSubmissionFailed is returned when the queue rejects a
	// task submission, e.g., on device loss.
	ErrSubmissionFailed = errors.New("gpu: failed to submit task")

	// ErrWaitFailed is returned when waiting on a submission fails.
	ErrWaitFailed = errors.New("gpu: failed to wait for task")

	// ErrFutureConsumed is returned when waiting on a future that
	// has already been waited on.
	ErrFutureConsumed = errors.New("gpu: task future already consumed")
)

// CompileError is returned when the shader compiler rejects the
// shader source, carrying the compiler's full diagnostic output.
type CompileError struct {
	// Name is the diagnostic label the program was compiled with.
	Name string

	// Diagnostics is the compiler's full diagnostic text.
	Diagnostics string
}

func (ce *CompileError) Error() string {
	return fmt.Sprintf("gpu: failed to compile shader %q: %s", ce.Name, ce.Diagnostics)
}
