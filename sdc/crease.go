// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sdc

import "fmt"

// Sharpness bounds.
const (
	SharpnessSmooth   float32 = 0
	SharpnessInfinite float32 = 10
)

// IsSmooth reports whether s carries no crease.
func IsSmooth(s float32) bool { return s <= SharpnessSmooth }

// IsSharp reports whether s carries any crease.
func IsSharp(s float32) bool { return s > SharpnessSmooth }

// IsInfinite reports whether s never decays.
func IsInfinite(s float32) bool { return s >= SharpnessInfinite }

// IsSemiSharp reports whether s is sharp but decays.
func IsSemiSharp(s float32) bool { return s > SharpnessSmooth && s < SharpnessInfinite }

// Rule classifies how a vertex is subdivided.
type Rule uint8

const (
	// RuleUnknown asks mask functions to derive the rule themselves.
	RuleUnknown Rule = iota
	RuleSmooth
	RuleDart
	RuleCrease
	RuleCorner
)

// String returns the rule name.
func (r Rule) String() string {
	switch r {
	case RuleUnknown:
		return "Unknown"
	case RuleSmooth:
		return "Smooth"
	case RuleDart:
		return "Dart"
	case RuleCrease:
		return "Crease"
	case RuleCorner:
		return "Corner"
	default:
		return fmt.Sprintf("Rule(%d)", r)
	}
}

// Crease computes sharpness decay and vertex rules for one creasing method.
type Crease struct {
	method CreasingMethod
}

// NewCrease returns the crease rules selected by opts.
func NewCrease(opts Options) Crease {
	return Crease{method: opts.CreasingMethod}
}

// IsUniform reports whether the crease uses uniform decay.
func (c Crease) IsUniform() bool { return c.method == CreaseUniform }

// SubdivideUniformSharpness returns s decremented by one level.
func (c Crease) SubdivideUniformSharpness(s float32) float32 {
	if IsInfinite(s) {
		return SharpnessInfinite
	}
	if s <= 1 {
		return SharpnessSmooth
	}
	return s - 1
}

// SubdivideVertexSharpness returns the sharpness of a vertex's child.
// Vertex sharpness always decays uniformly.
func (c Crease) SubdivideVertexSharpness(s float32) float32 {
	return c.SubdivideUniformSharpness(s)
}

// SubdivideEdgeSharpnessAtVertex returns the sharpness of the child edge of
// an edge with sharpness s that touches a vertex whose incident edges have
// the given sharpness values (s included).
func (c Crease) SubdivideEdgeSharpnessAtVertex(s float32, incident []float32) float32 {
	if c.IsUniform() || len(incident) < 2 {
		return c.SubdivideUniformSharpness(s)
	}
	if IsSmooth(s) {
		return SharpnessSmooth
	}
	if IsInfinite(s) {
		return SharpnessInfinite
	}

	var sum float32
	count := 0
	for _, e := range incident {
		if IsSemiSharp(e) {
			sum += e
			count++
		}
	}
	if count > 1 {
		avg := (sum - s) / float32(count-1)
		s = 0.75*s + 0.25*avg
	}
	s--
	if IsSharp(s) {
		return s
	}
	return SharpnessSmooth
}

// SubdivideEdgeSharpnessesAroundVertex writes the child sharpness of every
// incident edge of a vertex into out and returns it.
func (c Crease) SubdivideEdgeSharpnessesAroundVertex(incident, out []float32) []float32 {
	out = out[:0]
	for _, s := range incident {
		out = append(out, c.SubdivideEdgeSharpnessAtVertex(s, incident))
	}
	return out
}

// DetermineVertexVertexRule classifies a vertex from its own sharpness and
// the sharpness of its incident edges.
func (c Crease) DetermineVertexVertexRule(vertexSharpness float32, edges []float32) Rule {
	if IsSharp(vertexSharpness) {
		return RuleCorner
	}
	sharp := 0
	for _, s := range edges {
		if IsSharp(s) {
			sharp++
		}
	}
	switch sharp {
	case 0:
		return RuleSmooth
	case 1:
		return RuleDart
	case 2:
		return RuleCrease
	default:
		return RuleCorner
	}
}

// ComputeFractionalWeightAtVertex returns the weight of the parent mask when
// a vertex changes rule between levels: the mean parent sharpness of the
// features that become smooth, clamped to 1.
func (c Crease) ComputeFractionalWeightAtVertex(parentVertex, childVertex float32,
	parentEdges, childEdges []float32) float64 {
	var sum float64
	count := 0
	if IsSharp(parentVertex) && IsSmooth(childVertex) {
		sum += float64(parentVertex)
		count++
	}
	for i, p := range parentEdges {
		if IsSharp(p) && IsSmooth(childEdges[i]) {
			sum += float64(p)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return min(sum/float64(count), 1)
}
