// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// TaskBuilder accumulates copy and dispatch operations, in order,
// into one command sequence, and [TaskBuilder.Build] freezes the
// sequence into a reusable [Task]. A builder is single-owner and
// strictly sequential: recording methods return errors immediately,
// and once built, all further recording fails with [ErrTaskBuilt].
type TaskBuilder struct {
	device *Device
	ops    []op
	built  bool
}

// Task is a finalized command sequence that can be submitted any
// number of times. Operations within a Task execute on the queue
// strictly in recorded order. A Task is a command template over the
// buffers it references, not a snapshot: each submission operates on
// the buffers' contents at execution time.
type Task struct {
	device *Device
	ops    []op
}

// op is one recorded operation, re-encoded on every submission,
// since WebGPU command buffers are single-use.
type op interface {
	encode(cmd *wgpu.CommandEncoder)
}

type copyOp struct {
	src rawView
	dst rawView
}

func (co *copyOp) encode(cmd *wgpu.CommandEncoder) {
	cmd.CopyBufferToBuffer(co.src.buffer, co.src.offset, co.dst.buffer, co.dst.offset, co.src.size)
}

type dispatchOp struct {
	pipeline   *wgpu.ComputePipeline
	bindGroup  *wgpu.BindGroup
	nx, ny, nz uint32
}

func (do *dispatchOp) encode(cmd *wgpu.CommandEncoder) {
	pass := cmd.BeginComputePass(nil)
	pass.SetPipeline(do.pipeline)
	pass.SetBindGroup(0, do.bindGroup, nil)
	pass.DispatchWorkgroups(do.nx, do.ny, do.nz)
	pass.End()
	pass.Release()
}

// NewTaskBuilder returns a new TaskBuilder recording against the
// given device, returning [ErrBuilderCreationFailed] if recording
// resources are not available.
func NewTaskBuilder(dev *Device) (*TaskBuilder, error) {
	if dev == nil || dev.Device == nil {
		return nil, errors.Log(fmt.Errorf("%w: no device", ErrBuilderCreationFailed))
	}
	return &TaskBuilder{device: dev}, nil
}

// Copy records a copy of every element of src into dst. The two
// buffers must hold the same element type, in either memory location:
// a copy is the only path that moves data to or from device-local
// memory. Unlike the lenient Buffer.Write, Copy requires equal
// lengths, returning [ErrUnequalBufferSize] and recording nothing
// when they differ, since a mis-sized copy almost always indicates a
// caller bug.
func Copy[T any](tb *TaskBuilder, src, dst View[T]) error {
	if tb.built {
		return errors.Log(ErrTaskBuilt)
	}
	if src.Len() != dst.Len() {
		return errors.Log(fmt.Errorf("%w: source %d, destination %d elements", ErrUnequalBufferSize, src.Len(), dst.Len()))
	}
	sv, dv := src.raw(), dst.raw()
	if sv.buffer == nil || dv.buffer == nil {
		return errors.Log(fmt.Errorf("%w: buffer already released", ErrCopyRecordingFailed))
	}
	tb.ops = append(tb.ops, &copyOp{src: sv, dst: dv})
	return nil
}

// View is a typed buffer view of either memory location:
// a [Buffer], [DeviceBuffer], or a Sub view of one.
type View[T any] interface {
	// Len returns the number of elements in the view.
	Len() int

	elem() T
	raw() rawView
}

// Dispatch records a dispatch of the given program over
// nx x ny x nz workgroups, with the given buffer bindings attached.
// The total invocation count is the workgroup count times the
// workgroup size declared in the shader source. Caller errors surface
// here, at recording time, rather than at submission: non-positive
// workgroup counts return [ErrDispatchRecordingFailed], and bindings
// are resolved against the program's binding layout now, so a wrong
// slot index, missing binding, or extra binding returns
// [ErrBindGroupCreationFailed].
func (tb *TaskBuilder) Dispatch(pr *Program, nx, ny, nz int, bindings ...Binding) error {
	if tb.built {
		return errors.Log(ErrTaskBuilt)
	}
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return errors.Log(fmt.Errorf("%w: workgroup counts %dx%dx%d must be > 0", ErrDispatchRecordingFailed, nx, ny, nz))
	}
	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i := range bindings {
		entries[i] = bindings[i].entry()
	}
	bg, err := tb.device.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   pr.Name,
		Layout:  pr.layout,
		Entries: entries,
	})
	if errors.Log(err) != nil {
		return fmt.Errorf("%w: program %q: %w", ErrBindGroupCreationFailed, pr.Name, err)
	}
	if pr.pipeline == nil {
		bg.Release()
		return errors.Log(fmt.Errorf("%w: program %q already released", ErrDispatchRecordingFailed, pr.Name))
	}
	tb.ops = append(tb.ops, &dispatchOp{
		pipeline:  pr.pipeline,
		bindGroup: bg,
		nx:        uint32(nx),
		ny:        uint32(ny),
		nz:        uint32(nz),
	})
	return nil
}

// Build finalizes the recorded sequence into a [Task], consuming the
// builder: all further recording and building fails. It returns
// [ErrTaskBuildFailed] if the sequence is empty.
func (tb *TaskBuilder) Build() (*Task, error) {
	if tb.built {
		return nil, errors.Log(ErrTaskBuilt)
	}
	if len(tb.ops) == 0 {
		return nil, errors.Log(fmt.Errorf("%w: no operations recorded", ErrTaskBuildFailed))
	}
	tb.built = true
	return &Task{device: tb.device, ops: tb.ops}, nil
}

// BuildSubmitAndWait builds the task, submits it once, and blocks
// until it completes, surfacing the first error verbatim.
func (tb *TaskBuilder) BuildSubmitAndWait() error {
	tk, err := tb.Build()
	if err != nil {
		return err
	}
	return tk.SubmitAndWait()
}

// Submit enqueues the task's command sequence on the device queue
// and returns immediately with a [TaskFuture] for this submission.
// The device executes concurrently with the host from here until
// [TaskFuture.Wait]. Submissions of different tasks have no
// guaranteed relative order or memory visibility: two tasks touching
// the same buffer race unless the caller waits on the first future
// before submitting the second.
func (tk *Task) Submit() (*TaskFuture, error) {
	cmd, err := tk.device.Device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	for _, o := range tk.ops {
		o.encode(cmd)
	}
	cb, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		cmd.Release()
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	idx := tk.device.Queue.Submit(cb)
	cb.Release()
	cmd.Release()
	return &TaskFuture{device: tk.device, index: idx}, nil
}

// SubmitAndWait submits the task and blocks until it completes,
// surfacing either the submission or the wait error verbatim.
func (tk *Task) SubmitAndWait() error {
	tf, err := tk.Submit()
	if err != nil {
		return err
	}
	return tf.Wait()
}

// Release releases the bind groups created while recording.
// Call only after all submissions of this task have completed.
func (tk *Task) Release() {
	for _, o := range tk.ops {
		if do, ok := o.(*dispatchOp); ok && do.bindGroup != nil {
			do.bindGroup.Release()
			do.bindGroup = nil
		}
	}
	tk.ops = nil
}
