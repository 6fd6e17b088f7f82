// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/gpu/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// TaskFuture represents exactly one in-flight submission of a [Task].
// It is consumed by the single [TaskFuture.Wait] call; there is no
// non-blocking poll and no timeout at this layer. A caller needing a
// bounded wait must layer that externally.
type TaskFuture struct {
	device   *Device
	index    wgpu.SubmissionIndex
	consumed bool
}

// Wait blocks the calling thread until the submission has completed
// on the device. This is the only blocking operation in the package.
// Wait consumes the future: a second call returns
// [ErrFutureConsumed].
func (tf *TaskFuture) Wait() error {
	if tf.consumed {
		return errors.Log(ErrFutureConsumed)
	}
	tf.consumed = true
	if tf.device == nil || tf.device.Device == nil {
		return errors.Log(fmt.Errorf("%w: no device", ErrWaitFailed))
	}
	tf.device.Device.Poll(true, &wgpu.WrappedSubmissionIndex{
		Queue:           tf.device.Queue,
		SubmissionIndex: tf.index,
	})
	return nil
}
