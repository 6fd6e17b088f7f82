// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testDevice returns a Device for testing, skipping the test when no
// WebGPU adapter is available (e.g., on CI without a software GPU).
func testDevice(t *testing.T) *Device {
	t.Helper()
	gp, err := NewGPU()
	if err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}
	dv, err := NewDevice(gp)
	require.NoError(t, err)
	t.Cleanup(func() {
		dv.Release()
		gp.Release()
	})
	return dv
}

func TestGPUAdapter(t *testing.T) {
	gp, err := NewGPU()
	if err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}
	defer gp.Release()
	require.NotNil(t, gp.Adapter)
	t.Logf("adapter: %s", gp.Info.String())
}
