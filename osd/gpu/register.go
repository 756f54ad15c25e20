// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/osd"
)

// Priority is the registry priority of the GPU backend.
const Priority = 100

var registerOnce sync.Once

// Register adds the "gpu" backend to the osd registry and subscribes the
// package logger to subdiv.SetLogger. It is safe to call more than once.
//
// Evaluators created through the registry open their own device and
// release it on Close.
func Register() {
	registerOnce.Do(func() {
		subdiv.AttachLogger(loggerSink{})
		osd.Register("gpu", Priority, newOwnedEvaluator, available)
	})
}

func available() bool {
	_, ok := hal.GetBackend(gputypes.BackendVulkan)
	return ok
}

func newOwnedEvaluator() (osd.Evaluator, error) {
	ctx, err := NewContext()
	if err != nil {
		slogger().Warn("gpu: init failed", "err", err)
		return nil, &osd.BackendUnavailableError{Name: "gpu"}
	}
	ev, err := NewEvaluator(ctx)
	if err != nil {
		slogger().Warn("gpu: pipeline creation failed", "err", err)
		ctx.Release()
		return nil, err
	}
	ev.ownsContext = true
	return ev, nil
}
