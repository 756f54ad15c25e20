// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package subdiv

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

var (
	sinksMu sync.RWMutex
	sinks   []LoggerSetter
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// LoggerSetter is implemented by components that keep their own logger,
// such as GPU evaluators.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}

// SetLogger configures the logger for subdiv and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent logger.
//
// Log levels used by subdiv:
//   - [slog.LevelDebug]: refinement and stencil table summaries, evaluator selection
//   - [slog.LevelInfo]: GPU adapter selection
//   - [slog.LevelWarn]: GPU initialization failures, resource release errors
//
// Example:
//
//	subdiv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	sinksMu.RLock()
	defer sinksMu.RUnlock()
	for _, s := range sinks {
		s.SetLogger(l)
	}
}

// Logger returns the current logger. Sub-packages call this to share the
// same configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// AttachLogger hands the current logger to s and keeps s informed of
// later SetLogger calls until DetachLogger is called.
func AttachLogger(s LoggerSetter) {
	if s == nil {
		return
	}
	sinksMu.Lock()
	sinks = append(sinks, s)
	sinksMu.Unlock()
	s.SetLogger(Logger())
}

// DetachLogger stops propagating logger changes to s.
func DetachLogger(s LoggerSetter) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	for i, x := range sinks {
		if x == s {
			sinks = append(sinks[:i], sinks[i+1:]...)
			return
		}
	}
}
