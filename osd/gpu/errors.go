// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "errors"

var (
	// ErrContextReleased is returned when a Context, or a buffer or
	// evaluator created from it, is used after Context.Release.
	ErrContextReleased = errors.New("gpu: context released")

	// ErrBufferReleased is returned when a VertexBuffer is used after
	// its Release.
	ErrBufferReleased = errors.New("gpu: vertex buffer released")

	// ErrNoDevice is returned when no GPU adapter or device can be opened.
	ErrNoDevice = errors.New("gpu: no device available")
)
