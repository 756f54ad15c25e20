// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads subdivision pipeline settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	refiner:
//	  scheme: loop
//	  boundary: edge-and-corner
//	refine:
//	  mode: adaptive
//	  level: 3
//	evaluator:
//	  backend: parallel
//	  workers: 4
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/sdc"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Refinement modes.
const (
	ModeUniform  = "uniform"
	ModeAdaptive = "adaptive"
)

// Config holds every setting of a subdivision pipeline.
type Config struct {
	Refiner   RefinerConfig   `yaml:"refiner"`
	Refine    RefineConfig    `yaml:"refine"`
	Stencils  StencilConfig   `yaml:"stencils"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RefinerConfig holds the subdivision options of sdc.Options. Values are
// the enum names, case-insensitive, with optional dashes
// ("edge-and-corner" or "EdgeAndCorner").
type RefinerConfig struct {
	Scheme     string `yaml:"scheme"`
	Boundary   string `yaml:"boundary"`
	FVarLinear string `yaml:"fvar_linear"`
	Creasing   string `yaml:"creasing"`
	Triangles  string `yaml:"triangles"`
}

// RefineConfig selects uniform or adaptive refinement.
type RefineConfig struct {
	Mode string `yaml:"mode"`

	// Level is the uniform refinement level or the adaptive isolation level.
	Level int `yaml:"level"`

	FacesFirst        bool `yaml:"faces_first"`
	SecondaryLevel    int  `yaml:"secondary_level"`
	SingleCreasePatch bool `yaml:"single_crease_patch"`
}

// StencilConfig mirrors far.StencilTableOptions.
type StencilConfig struct {
	Interpolation      string `yaml:"interpolation"`
	Offsets            bool   `yaml:"offsets"`
	ControlVertices    bool   `yaml:"control_vertices"`
	IntermediateLevels bool   `yaml:"intermediate_levels"`
	MaxLevel           int    `yaml:"max_level"`
	FirstDerivatives   bool   `yaml:"first_derivatives"`
	SecondDerivatives  bool   `yaml:"second_derivatives"`
	FVarChannel        int    `yaml:"fvar_channel"`
}

// EvaluatorConfig selects a backend from the osd registry. An empty
// Backend picks the best available one.
type EvaluatorConfig struct {
	Backend   string `yaml:"backend"`
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
}

// LoggingConfig holds the slog level name.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration matching the library defaults.
func Default() *Config {
	opts := sdc.DefaultOptions()
	uniform := far.DefaultUniformOptions()
	adaptive := far.DefaultAdaptiveOptions()
	stencils := far.DefaultStencilTableOptions()
	return &Config{
		Refiner: RefinerConfig{
			Scheme:     opts.Scheme.String(),
			Boundary:   opts.VtxBoundaryInterpolation.String(),
			FVarLinear: opts.FVarLinearInterpolation.String(),
			Creasing:   opts.CreasingMethod.String(),
			Triangles:  opts.TriangleSubdivision.String(),
		},
		Refine: RefineConfig{
			Mode:           ModeUniform,
			Level:          uniform.RefinementLevel,
			FacesFirst:     uniform.OrderVerticesFromFacesFirst,
			SecondaryLevel: adaptive.SecondaryLevel,
		},
		Stencils: StencilConfig{
			Interpolation:      stencils.InterpolationMode.String(),
			IntermediateLevels: stencils.GenerateIntermediateLevels,
			MaxLevel:           stencils.MaxLevel,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks every enum name and range.
func (c *Config) Validate() error {
	if _, err := c.RefinerOptions(); err != nil {
		return err
	}
	switch c.Refine.Mode {
	case ModeUniform, ModeAdaptive:
	default:
		return fmt.Errorf("%w: refine.mode %q", ErrInvalidConfig, c.Refine.Mode)
	}
	if c.Refine.Level < 1 || c.Refine.Level > far.MaxRefinementLevel {
		return fmt.Errorf("%w: refine.level %d outside [1, %d]", ErrInvalidConfig, c.Refine.Level, far.MaxRefinementLevel)
	}
	if c.Refine.SecondaryLevel < 0 {
		return fmt.Errorf("%w: refine.secondary_level %d", ErrInvalidConfig, c.Refine.SecondaryLevel)
	}
	if _, err := c.StencilOptions(); err != nil {
		return err
	}
	if c.Stencils.MaxLevel < 0 || c.Stencils.FVarChannel < 0 {
		return fmt.Errorf("%w: negative stencils.max_level or stencils.fvar_channel", ErrInvalidConfig)
	}
	if c.Evaluator.Workers < 0 || c.Evaluator.BatchSize < 0 {
		return fmt.Errorf("%w: negative evaluator.workers or evaluator.batch_size", ErrInvalidConfig)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// RefinerOptions converts the refiner section.
func (c *Config) RefinerOptions() (sdc.Options, error) {
	var opts sdc.Options
	var err error
	r := c.Refiner
	if opts.Scheme, err = parseEnum("refiner.scheme", r.Scheme, sdc.Loop); err != nil {
		return opts, err
	}
	if opts.VtxBoundaryInterpolation, err = parseEnum("refiner.boundary", r.Boundary, sdc.BoundaryEdgeAndCorner); err != nil {
		return opts, err
	}
	if opts.FVarLinearInterpolation, err = parseEnum("refiner.fvar_linear", r.FVarLinear, sdc.FVarLinearAll); err != nil {
		return opts, err
	}
	if opts.CreasingMethod, err = parseEnum("refiner.creasing", r.Creasing, sdc.CreaseChaikin); err != nil {
		return opts, err
	}
	if opts.TriangleSubdivision, err = parseEnum("refiner.triangles", r.Triangles, sdc.TriSmooth); err != nil {
		return opts, err
	}
	return opts, nil
}

// Adaptive reports whether the refine section selects adaptive refinement.
func (c *Config) Adaptive() bool { return c.Refine.Mode == ModeAdaptive }

// UniformOptions converts the refine section for RefineUniform.
func (c *Config) UniformOptions() far.UniformOptions {
	return far.UniformOptions{
		RefinementLevel:             c.Refine.Level,
		OrderVerticesFromFacesFirst: c.Refine.FacesFirst,
	}
}

// AdaptiveOptions converts the refine section for RefineAdaptive.
func (c *Config) AdaptiveOptions() far.AdaptiveOptions {
	return far.AdaptiveOptions{
		IsolationLevel:    c.Refine.Level,
		SecondaryLevel:    c.Refine.SecondaryLevel,
		SingleCreasePatch: c.Refine.SingleCreasePatch,
	}
}

// StencilOptions converts the stencils section.
func (c *Config) StencilOptions() (far.StencilTableOptions, error) {
	s := c.Stencils
	mode, err := parseEnum("stencils.interpolation", s.Interpolation, far.InterpolateFaceVarying)
	if err != nil {
		return far.StencilTableOptions{}, err
	}
	return far.StencilTableOptions{
		InterpolationMode:           mode,
		GenerateOffsets:             s.Offsets,
		GenerateControlVertices:     s.ControlVertices,
		GenerateIntermediateLevels:  s.IntermediateLevels,
		FactorizeIntermediateLevels: true,
		MaxLevel:                    s.MaxLevel,
		GenerateFirstDerivatives:    s.FirstDerivatives,
		GenerateSecondDerivatives:   s.SecondDerivatives,
		FVarChannel:                 s.FVarChannel,
	}, nil
}

// SlogLevel parses the level name ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, l.Level)
	}
	return level, nil
}

// parseEnum matches name against the String of every value in [0, last].
func parseEnum[E interface {
	~uint8
	fmt.Stringer
}](field, name string, last E) (E, error) {
	want := normalize(name)
	for v := E(0); v <= last; v++ {
		if normalize(v.String()) == want {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrInvalidConfig, field, name)
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
}
