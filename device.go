// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device holds the logical Device and its single compute Queue.
// All buffers, programs, and tasks are created against a Device,
// which must outlive them. Operations on one Device are not
// internally synchronized: share it across goroutines only with
// external serialization.
type Device struct {
	// Device is the logical device.
	Device *wgpu.Device

	// Queue is the single compute-capable queue for the device.
	Queue *wgpu.Queue
}

// NewDevice returns a new logical Device for the given GPU,
// with its default queue.
func NewDevice(gp *GPU) (*Device, error) {
	wdev, err := gp.Adapter.RequestDevice(nil)
	if errors.Log(err) != nil {
		return nil, fmt.Errorf("gpu: failed to create device: %w", err)
	}
	return &Device{Device: wdev, Queue: wdev.GetQueue()}, nil
}

// WaitDone blocks until the device is done with all
// currently submitted work.
func (dv *Device) WaitDone() {
	if dv.Device == nil {
		return
	}
	dv.Device.Poll(true, nil)
}

// Release waits for outstanding work and releases the device.
func (dv *Device) Release() {
	if dv.Device == nil {
		return
	}
	dv.WaitDone()
	dv.Queue.Release()
	dv.Device.Release()
	dv.Device = nil
	dv.Queue = nil
}
