// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds every wait for GPU completion.
const fenceTimeout = 5 * time.Second

// createBuffer allocates a buffer of at least 4 bytes and uploads data
// when it is non-empty.
func createBuffer(device hal.Device, queue hal.Queue, label string,
	usage gputypes.BufferUsage, data []byte, size uint64) (hal.Buffer, error) {
	size = max(size, uint64(len(data)), 4)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	if len(data) > 0 {
		queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// submit records commands into one encoder, submits them and waits for
// the fence.
func submit(device hal.Device, queue hal.Queue, label string, record func(hal.CommandEncoder)) error {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// readBack copies size bytes of buf through a staging buffer.
func readBack(device hal.Device, queue hal.Queue, buf hal.Buffer, size uint64,
	record func(hal.CommandEncoder)) ([]byte, error) {
	staging, err := createBuffer(device, queue, "subdiv_staging",
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst, nil, size)
	if err != nil {
		return nil, err
	}
	defer device.DestroyBuffer(staging)

	err = submit(device, queue, "subdiv_readback", func(enc hal.CommandEncoder) {
		if record != nil {
			record(enc)
		}
		enc.CopyBufferToBuffer(buf, staging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: size}})
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if err := queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return out, nil
}

func floatsToBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func bytesToFloats(b []byte, dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
}

func intsToBytes(v []int) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(x)) //nolint:gosec // table indices are non-negative
	}
	return out
}
