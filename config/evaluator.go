// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package config

import (
	"github.com/gogpu/subdiv/osd"
)

// NewEvaluator creates the evaluator named by the evaluator section.
// The parallel backend honors Workers and BatchSize; other backends come
// from the osd registry, and an empty name selects osd.Default.
func (c *Config) NewEvaluator() (osd.Evaluator, error) {
	e := c.Evaluator
	switch e.Backend {
	case "":
		return osd.Default()
	case "parallel":
		var opts []osd.ParallelOption
		if e.Workers > 0 {
			opts = append(opts, osd.WithWorkers(e.Workers))
		}
		if e.BatchSize > 0 {
			opts = append(opts, osd.WithBatchSize(e.BatchSize))
		}
		return osd.NewParallelEvaluator(opts...), nil
	default:
		return osd.New(e.Backend)
	}
}
