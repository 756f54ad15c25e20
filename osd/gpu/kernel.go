// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	_ "embed"
	"fmt"
	"unsafe"

	"github.com/gogpu/naga"
)

//go:embed shaders/stencil.wgsl
var stencilShaderWGSL string

// workgroupSize matches @workgroup_size in shaders/stencil.wgsl.
const workgroupSize = 64

// maxGroupsPerDimension is the WebGPU default limit on workgroups per
// dispatch dimension.
const maxGroupsPerDimension = 65535

// KernelSource returns the WGSL source of the stencil kernel.
func KernelSource() string { return stencilShaderWGSL }

// CompileKernel compiles the stencil kernel to SPIR-V words.
func CompileKernel() ([]uint32, error) {
	spirvBytes, err := naga.Compile(stencilShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile stencil kernel: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// stencilParams mirrors Params in shaders/stencil.wgsl.
type stencilParams struct {
	SrcOffset uint32
	SrcStride uint32
	DstOffset uint32
	DstStride uint32
	Length    uint32
	Count     uint32
	Term      uint32
	RowWidth  uint32
}

func (p *stencilParams) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p)) //nolint:gosec // plain uint32 struct
}

// dispatchSize spreads threads invocations over a 2D grid of workgroups.
// It returns the group counts and the number of threads per grid row.
func dispatchSize(threads int) (x, y, rowWidth uint32) {
	groups := (threads + workgroupSize - 1) / workgroupSize
	if groups == 0 {
		return 0, 0, 0
	}
	gx := min(groups, maxGroupsPerDimension)
	gy := (groups + gx - 1) / gx
	return uint32(gx), uint32(gy), uint32(gx * workgroupSize) //nolint:gosec // bounded by limits above
}
