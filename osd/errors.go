// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import "errors"

var (
	// ErrEvalStencilsFailed is wrapped by every evaluation failure.
	ErrEvalStencilsFailed = errors.New("osd: stencil evaluation failed")

	// ErrInvalidDescriptor is returned when a BufferDescriptor is invalid
	// or does not fit its buffer.
	ErrInvalidDescriptor = errors.New("osd: invalid buffer descriptor")

	// ErrBackendUnavailable is returned when a backend cannot acquire its
	// resources, as opposed to rejecting its input.
	ErrBackendUnavailable = errors.New("osd: backend unavailable")

	// ErrBackendNotFound is returned when no backend is registered under
	// a name.
	ErrBackendNotFound = errors.New("osd: backend not found")
)

// BackendNotFoundError names a backend missing from the registry.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "osd: backend not found: " + e.Name
}

// Unwrap returns ErrBackendNotFound.
func (e *BackendNotFoundError) Unwrap() error { return ErrBackendNotFound }

// BackendUnavailableError names a registered backend that cannot run on
// this system.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "osd: backend unavailable: " + e.Name
}

// Unwrap returns ErrBackendUnavailable.
func (e *BackendUnavailableError) Unwrap() error { return ErrBackendUnavailable }
