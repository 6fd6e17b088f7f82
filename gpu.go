// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu provides a minimal compute execution layer over WebGPU:
// typed buffers living on host-visible or device-local memory, compute
// programs compiled from WGSL source, and tasks that record a sequence
// of copy and dispatch operations which can be submitted any number of
// times, each submission returning a future that is waited on once.
package gpu

import (
	"fmt"
	"log/slog"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Debug enables extra logging of gpu operations,
// including the selected adapter at startup.
var Debug = false

// GPU represents the WebGPU instance and the hardware adapter
// selected for compute use. It is created once per application,
// and must outlive every [Device], Buffer, [Program], and [Task]
// created against it.
type GPU struct {
	// Instance is the top-level WebGPU instance.
	Instance *wgpu.Instance

	// Adapter is the selected hardware adapter.
	Adapter *wgpu.Adapter

	// Info describes the selected adapter.
	Info AdapterInfo
}

// AdapterInfo contains information about the selected GPU adapter.
type AdapterInfo struct {
	// Name is the adapter name (e.g., "NVIDIA GeForce RTX 3080").
	Name string

	// Vendor is the adapter vendor.
	Vendor string

	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend string

	// DeviceType is the type of adapter (discrete, integrated, etc).
	DeviceType string

	// Driver is the driver description string.
	Driver string
}

// String returns a human-readable description of the adapter.
func (ai *AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", ai.Name, ai.DeviceType, ai.Backend)
}

// NewGPU returns a new GPU with the instance created and an adapter
// selected, preferring a high-performance adapter and falling back
// to low-power and then any available adapter. It returns an error
// if no WebGPU adapter can be found on this system.
func NewGPU() (*GPU, error) {
	gp := &GPU{}
	gp.Instance = wgpu.CreateInstance(nil)
	if gp.Instance == nil {
		return nil, errors.Log(errors.New("gpu: failed to create WebGPU instance"))
	}
	var err error
	gp.Adapter, err = gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || gp.Adapter == nil {
		gp.Adapter, err = gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreferenceLowPower,
		})
	}
	if err != nil || gp.Adapter == nil {
		gp.Adapter, err = gp.Instance.RequestAdapter(nil)
	}
	if err != nil || gp.Adapter == nil {
		gp.Release()
		return nil, errors.Log(fmt.Errorf("gpu: no WebGPU adapter available: %v", err))
	}
	info := gp.Adapter.GetInfo()
	gp.Info = AdapterInfo{
		Name:       info.Name,
		Vendor:     info.VendorName,
		Backend:    info.BackendType.String(),
		DeviceType: info.AdapterType.String(),
		Driver:     info.DriverDescription,
	}
	if Debug {
		slog.Info("gpu: selected adapter", "adapter", gp.Info.String(), "driver", gp.Info.Driver)
	}
	return gp, nil
}

// Release releases the adapter and instance resources.
// Call only after all Devices created on this GPU are released.
func (gp *GPU) Release() {
	if gp.Adapter != nil {
		gp.Adapter.Release()
		gp.Adapter = nil
	}
	if gp.Instance != nil {
		gp.Instance.Release()
		gp.Instance = nil
	}
}
