// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"golang.org/x/exp/slices"

	"github.com/gogpu/subdiv/sdc"
)

type hashWriter struct {
	h   hash.Hash64
	buf [8]byte
}

func (w *hashWriter) int(v int) {
	binary.LittleEndian.PutUint64(w.buf[:], uint64(v))
	w.h.Write(w.buf[:])
}

func (w *hashWriter) float(v float32) {
	w.int(int(math.Float32bits(v)))
}

func (w *hashWriter) ints(vs []int) {
	w.int(len(vs))
	for _, v := range vs {
		w.int(v)
	}
}

// fingerprintBase hashes everything that determines the base level.
// Creases, corners and holes are hashed in sorted order so that their
// listing order does not matter.
func fingerprintBase(desc *TopologyDescriptor, opts sdc.Options) uint64 {
	w := hashWriter{h: fnv.New64a()}
	w.int(int(opts.Scheme))
	w.int(int(opts.VtxBoundaryInterpolation))
	w.int(int(opts.FVarLinearInterpolation))
	w.int(int(opts.CreasingMethod))
	w.int(int(opts.TriangleSubdivision))

	w.int(desc.VertexCount)
	w.ints(desc.FaceVertexCounts)
	w.ints(desc.FaceVertexIndices)
	w.int(boolInt(desc.LeftHanded))

	creases := slices.Clone(desc.Creases)
	for i, c := range creases {
		k := edgeKey(c.V0, c.V1)
		creases[i].V0, creases[i].V1 = k[0], k[1]
	}
	slices.SortStableFunc(creases, func(a, b Crease) int {
		if a.V0 != b.V0 {
			return a.V0 - b.V0
		}
		return a.V1 - b.V1
	})
	w.int(len(creases))
	for _, c := range creases {
		w.int(c.V0)
		w.int(c.V1)
		w.float(c.Sharpness)
	}

	corners := slices.Clone(desc.Corners)
	slices.SortStableFunc(corners, func(a, b Corner) int { return a.Vertex - b.Vertex })
	w.int(len(corners))
	for _, c := range corners {
		w.int(c.Vertex)
		w.float(c.Sharpness)
	}

	holes := slices.Clone(desc.Holes)
	slices.Sort(holes)
	w.ints(holes)

	w.int(len(desc.FVarChannels))
	for _, ch := range desc.FVarChannels {
		w.int(ch.ValueCount)
		w.ints(ch.ValueIndices)
	}
	return w.h.Sum64()
}

// fingerprintRefinement mixes the refinement parameters into base.
func fingerprintRefinement(base uint64, uniform bool, params ...int) uint64 {
	w := hashWriter{h: fnv.New64a()}
	w.int(int(base))
	w.int(boolInt(uniform))
	w.ints(params)
	return w.h.Sum64()
}
