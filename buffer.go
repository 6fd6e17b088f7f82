// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"unsafe"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferUsages is the usage flag set that every buffer is created
// with: generic storage resource, copy source, and copy destination.
// This uniform set lets any buffer participate in any copy or
// binding operation, without separate allocation classes.
const BufferUsages = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// allocation is the shared storage behind one or more buffer views.
// It is reference counted: every Sub view holds a reference, and the
// underlying device buffer is released when the last view is released.
// Counting is not synchronized: buffers on one Device are used from
// one goroutine at a time, like everything else on the Device.
type allocation struct {
	device *Device
	buffer *wgpu.Buffer
	label  string
	refs   int
}

func (al *allocation) ref() { al.refs++ }

func (al *allocation) unref() {
	al.refs--
	if al.refs > 0 {
		return
	}
	if al.buffer != nil {
		al.buffer.Release()
		al.buffer = nil
	}
}

// rawView locates a typed view within its allocation in device terms,
// for recording copies and bindings.
type rawView struct {
	buffer   *wgpu.Buffer
	offset   uint64 // in bytes
	size     uint64 // in bytes
	n        int    // in elements
	elemSize int    // in bytes
}

// view is the state shared by [Buffer] and [DeviceBuffer]: a typed
// window onto a reference-counted allocation. A view produced by Sub
// aliases its parent's memory: writes through any view are immediately
// visible through every overlapping view.
type view[T any] struct {
	alloc *allocation
	off   int // element offset into the allocation
	n     int // element count; always > 0
}

// Len returns the number of elements in this view.
func (vw *view[T]) Len() int { return vw.n }

func (vw *view[T]) elemSize() int { return int(unsafe.Sizeof(*new(T))) }

// elem carries the element type in the method set, so that the type
// parameter of [Copy] is inferable from its [View] arguments.
func (vw *view[T]) elem() (t T) { return }

func (vw *view[T]) raw() rawView {
	if vw.alloc == nil {
		return rawView{n: vw.n, elemSize: vw.elemSize()}
	}
	es := vw.elemSize()
	return rawView{
		buffer:   vw.alloc.buffer,
		offset:   uint64(vw.off * es),
		size:     uint64(vw.n * es),
		n:        vw.n,
		elemSize: es,
	}
}

// Bind returns a [Binding] that attaches this view's storage to the
// given shader binding slot. It always succeeds. The binding does not
// extend the buffer's lifetime: keep the buffer alive until the task
// using the binding has been submitted.
func (vw *view[T]) Bind(slot uint32) Binding {
	rw := vw.raw()
	return Binding{Slot: slot, buffer: rw.buffer, offset: rw.offset, size: rw.size}
}

// Release drops this view's reference on the shared allocation.
// The device buffer is released when the last view (parent or any
// Sub view) has been released.
func (vw *view[T]) Release() {
	if vw.alloc == nil {
		return
	}
	vw.alloc.unref()
	vw.alloc = nil
}

// sub returns a sub-view sharing this view's allocation.
func (vw *view[T]) sub(start, end int) (view[T], error) {
	if vw.alloc == nil {
		return view[T]{}, errors.Log(fmt.Errorf("%w: buffer already released", ErrOutOfBounds))
	}
	if start >= end {
		return view[T]{}, errors.Log(fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, start, end))
	}
	if end > vw.n {
		return view[T]{}, errors.Log(fmt.Errorf("%w: [%d, %d) in buffer of length %d", ErrOutOfBounds, start, end, vw.n))
	}
	vw.alloc.ref()
	return view[T]{alloc: vw.alloc, off: vw.off + start, n: end - start}, nil
}

// Binding describes attaching a buffer view's storage to a numbered
// shader binding slot, as passed to [TaskBuilder.Dispatch]. It borrows
// the buffer and does not own or extend its lifetime.
type Binding struct {
	// Slot is the binding index declared in the shader.
	Slot uint32

	buffer *wgpu.Buffer
	offset uint64
	size   uint64
}

func (bd *Binding) entry() wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{
		Binding: bd.Slot,
		Buffer:  bd.buffer,
		Offset:  bd.offset,
		Size:    bd.size,
	}
}

// Buffer is a typed buffer of fixed-size elements on host-visible
// memory. It supports direct [Buffer.Read] and [Buffer.Write] access
// in addition to the sub-ranging and binding shared with
// [DeviceBuffer]. The element type must have a fixed, bit-reproducible
// layout: scalars, or structs composed of them.
type Buffer[T any] struct {
	view[T]
}

// DeviceBuffer is a typed buffer of fixed-size elements on
// device-local memory. It has no host read/write access: data moves
// in and out only through recorded copies, with a host-visible
// [Buffer] as the staging side.
type DeviceBuffer[T any] struct {
	view[T]
}

// NewBuffer allocates a host-visible buffer of n elements of type T.
// It returns [ErrZeroLength] if n is 0, and [ErrAllocationFailed]
// if the device rejects the allocation.
func NewBuffer[T any](dev *Device, n int) (*Buffer[T], error) {
	vw, err := alloc[T](dev, n)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{view: vw}, nil
}

// NewBufferFrom allocates a host-visible buffer holding a copy of
// data, allocating and writing in one step. It fails the same ways
// as [NewBuffer], plus any write failure.
func NewBufferFrom[T any](dev *Device, data []T) (*Buffer[T], error) {
	if len(data) == 0 {
		return nil, errors.Log(fmt.Errorf("%w: data is empty", ErrZeroLength))
	}
	label := bufferLabel[T](len(data))
	wbuf, err := dev.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(data),
		Usage:    BufferUsages,
	})
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	al := &allocation{device: dev, buffer: wbuf, label: label, refs: 1}
	return &Buffer[T]{view: view[T]{alloc: al, n: len(data)}}, nil
}

// NewDeviceBuffer allocates a device-local buffer of n elements of
// type T. It returns [ErrZeroLength] if n is 0, and
// [ErrAllocationFailed] if the device rejects the allocation.
func NewDeviceBuffer[T any](dev *Device, n int) (*DeviceBuffer[T], error) {
	vw, err := alloc[T](dev, n)
	if err != nil {
		return nil, err
	}
	return &DeviceBuffer[T]{view: vw}, nil
}

// alloc creates the device buffer behind a new root view.
// WebGPU chooses the memory placement from the usage flags; the
// host-visible vs device-local distinction governs which host access
// operations the wrapping type exposes.
func alloc[T any](dev *Device, n int) (view[T], error) {
	if n == 0 {
		return view[T]{}, errors.Log(fmt.Errorf("%w: requested 0 elements", ErrZeroLength))
	}
	label := bufferLabel[T](n)
	es := int(unsafe.Sizeof(*new(T)))
	wbuf, err := dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(n * es),
		Usage: BufferUsages,
	})
	if errors.Log(err) != nil {
		return view[T]{}, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	al := &allocation{device: dev, buffer: wbuf, label: label, refs: 1}
	return view[T]{alloc: al, n: n}, nil
}

func bufferLabel[T any](n int) string {
	return fmt.Sprintf("%T(%d)", *new(T), n)
}

// Sub returns a view of the range [start, end) of this buffer,
// sharing its storage: writes through either are visible through
// both. It returns [ErrEmptyRange] if start >= end and
// [ErrOutOfBounds] if end > Len().
func (bf *Buffer[T]) Sub(start, end int) (*Buffer[T], error) {
	vw, err := bf.sub(start, end)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{view: vw}, nil
}

// Sub returns a view of the range [start, end) of this buffer,
// sharing its storage. It returns [ErrEmptyRange] if start >= end
// and [ErrOutOfBounds] if end > Len().
func (bf *DeviceBuffer[T]) Sub(start, end int) (*DeviceBuffer[T], error) {
	vw, err := bf.sub(start, end)
	if err != nil {
		return nil, err
	}
	return &DeviceBuffer[T]{view: vw}, nil
}

// Read returns a copy of this view's elements in index order.
// It copies through a transient staging buffer and blocks until the
// device has produced the data, returning [ErrReadFailed] if the
// memory cannot be mapped. Reading while a submitted task is still
// writing the buffer is a data race: wait on the task's future first.
func (bf *Buffer[T]) Read() ([]T, error) {
	if bf.alloc == nil {
		return nil, errors.Log(fmt.Errorf("%w: buffer already released", ErrReadFailed))
	}
	rw := bf.raw()
	dev := bf.alloc.device
	staging, err := dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: bf.alloc.label + ".read",
		Size:  rw.size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer staging.Release()

	cmd, err := dev.Device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	cmd.CopyBufferToBuffer(rw.buffer, rw.offset, staging, 0, rw.size)
	cb, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	dev.Queue.Submit(cb)
	cb.Release()
	cmd.Release()

	var status wgpu.BufferMapAsyncStatus
	err = staging.MapAsync(wgpu.MapModeRead, 0, rw.size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	dev.WaitDone()
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, errors.Log(fmt.Errorf("%w: map status %s", ErrReadFailed, status.String()))
	}
	mapped := staging.GetMappedRange(0, uint(rw.size))
	if mapped == nil {
		return nil, errors.Log(fmt.Errorf("%w: no mapped range", ErrReadFailed))
	}
	data := make([]T, rw.n)
	copy(data, wgpu.FromBytes[T](mapped))
	staging.Unmap()
	return data, nil
}

// Write copies min(len(data), Len()) elements of data into this view
// starting at index 0. If data is longer than the view it is silently
// truncated, and if shorter the tail elements are left untouched;
// this lenient contract supports partial refresh, and callers needing
// strictness must check lengths themselves. The write is visible to
// subsequent Reads and to task submissions, not to work already
// executing on the device.
func (bf *Buffer[T]) Write(data []T) error {
	if bf.alloc == nil {
		return errors.Log(fmt.Errorf("%w: buffer already released", ErrWriteFailed))
	}
	rw := bf.raw()
	n := min(len(data), rw.n)
	if n == 0 {
		return nil
	}
	dev := bf.alloc.device
	err := dev.Queue.WriteBuffer(rw.buffer, rw.offset, wgpu.ToBytes(data[:n]))
	if errors.Log(err) != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
