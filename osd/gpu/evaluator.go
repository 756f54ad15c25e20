// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/osd"
)

// Evaluator runs stencil tables through the compute kernel in
// shaders/stencil.wgsl. The last table used stays resident on the device
// until a different table is evaluated or the evaluator is closed.
//
// Results match the CPU evaluators to float32 rounding; the device may
// fuse multiply-adds, so they are not guaranteed bit-identical.
type Evaluator struct {
	mu  sync.Mutex
	ctx *Context

	// ownsContext is set for evaluators created by the registry factory.
	ownsContext bool

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	resident *residentTable
	closed   bool
}

var (
	_ osd.Evaluator = (*Evaluator)(nil)
	_ osd.Closer    = (*Evaluator)(nil)
)

// residentTable is a stencil table uploaded to the device.
type residentTable struct {
	table   *far.StencilTable
	sizes   hal.Buffer
	offsets hal.Buffer
	indices hal.Buffer
	weights hal.Buffer
	terms   int
}

// NewEvaluator creates the compute pipeline on ctx.
func NewEvaluator(ctx *Context) (*Evaluator, error) {
	device, _, unlock, err := ctx.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	e := &Evaluator{ctx: ctx}
	if err := e.createPipeline(device); err != nil {
		e.destroyPipeline(device)
		return nil, fmt.Errorf("%w: %w", osd.ErrBackendUnavailable, err)
	}
	return e, nil
}

// Name returns "gpu".
func (*Evaluator) Name() string { return "gpu" }

// SetLogger implements subdiv.LoggerSetter.
func (*Evaluator) SetLogger(l *slog.Logger) { setLogger(l) }

// Context returns the context the evaluator runs on.
func (e *Evaluator) Context() *Context { return e.ctx }

// EvalStencils implements osd.Evaluator for host buffers: src and dst are
// uploaded, evaluated and dst is read back. Values of dst outside dstDesc
// are preserved.
func (e *Evaluator) EvalStencils(src []float32, srcDesc osd.BufferDescriptor,
	dst []float32, dstDesc osd.BufferDescriptor, table *far.StencilTable) error {
	if err := osd.CheckBuffers(len(src), srcDesc, len(dst), dstDesc, table); err != nil {
		return err
	}
	if err := osd.CheckAliasing(src, srcDesc, dst, dstDesc, table); err != nil {
		return err
	}
	if table.Len() == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	device, queue, unlock, err := e.begin()
	if err != nil {
		return err
	}
	defer unlock()

	dstBytes := floatsToBytes(dst)
	srcBuf, err := createBuffer(device, queue, "subdiv_src",
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst, floatsToBytes(src), 0)
	if err != nil {
		return unavailable(err)
	}
	defer device.DestroyBuffer(srcBuf)
	dstBuf, err := createBuffer(device, queue, "subdiv_dst",
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst, dstBytes, 0)
	if err != nil {
		return unavailable(err)
	}
	defer device.DestroyBuffer(dstBuf)

	rt, err := e.upload(device, queue, table)
	if err != nil {
		return unavailable(err)
	}
	params := e.params(srcDesc, dstDesc, table.Len())
	bindings, err := e.createBindings(device, queue, rt, params, srcBuf, uint64(len(src))*4, dstBuf, uint64(len(dstBytes)))
	defer bindings.destroy(device)
	if err != nil {
		return unavailable(err)
	}

	out, err := readBack(device, queue, dstBuf, uint64(len(dstBytes)), func(enc hal.CommandEncoder) {
		e.encodePasses(enc, bindings, params)
	})
	if err != nil {
		return unavailable(err)
	}
	bytesToFloats(out, dst)
	return nil
}

// EvalStencilsBuffers evaluates table from src into dst without leaving
// the device. src and dst may be the same buffer; the source is then
// copied to a scratch buffer before any write.
func (e *Evaluator) EvalStencilsBuffers(src *VertexBuffer, srcDesc osd.BufferDescriptor,
	dst *VertexBuffer, dstDesc osd.BufferDescriptor, table *far.StencilTable) error {
	srcUnlock, err := src.lock(e.ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", osd.ErrEvalStencilsFailed, err)
	}
	defer srcUnlock()
	aliased := src == dst
	if !aliased {
		dstUnlock, err := dst.lock(e.ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", osd.ErrEvalStencilsFailed, err)
		}
		defer dstUnlock()
	}
	if err := osd.CheckBuffers(src.Len(), srcDesc, dst.Len(), dstDesc, table); err != nil {
		return err
	}
	if table.Len() == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	device, queue, unlock, err := e.begin()
	if err != nil {
		return err
	}
	defer unlock()

	srcSize := uint64(4 * src.Len()) //nolint:gosec // positive size
	srcBuf := src.buf
	var copyIn func(hal.CommandEncoder)
	if aliased {
		scratch, err := createBuffer(device, queue, "subdiv_scratch",
			gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst, nil, srcSize)
		if err != nil {
			return unavailable(err)
		}
		defer device.DestroyBuffer(scratch)
		srcBuf = scratch
		copyIn = func(enc hal.CommandEncoder) {
			enc.CopyBufferToBuffer(src.buf, scratch, []hal.BufferCopy{{Size: srcSize}})
		}
	}

	rt, err := e.upload(device, queue, table)
	if err != nil {
		return unavailable(err)
	}
	params := e.params(srcDesc, dstDesc, table.Len())
	bindings, err := e.createBindings(device, queue, rt, params, srcBuf, srcSize, dst.buf, uint64(4*dst.Len())) //nolint:gosec // positive size
	defer bindings.destroy(device)
	if err != nil {
		return unavailable(err)
	}

	err = submit(device, queue, "subdiv_eval", func(enc hal.CommandEncoder) {
		if copyIn != nil {
			copyIn(enc)
		}
		e.encodePasses(enc, bindings, params)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Close destroys the pipeline and the resident table. An evaluator created
// through the registry also releases its context.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if device, _, unlock, err := e.ctx.acquire(); err == nil {
		e.dropResident(device)
		e.destroyPipeline(device)
		unlock()
	}
	e.resident = nil
	if e.ownsContext {
		e.ctx.Release()
	}
}

// begin checks the evaluator and its context. The caller holds e.mu.
func (e *Evaluator) begin() (hal.Device, hal.Queue, func(), error) {
	if e.closed {
		return nil, nil, nil, fmt.Errorf("%w: %w: evaluator closed", osd.ErrEvalStencilsFailed, osd.ErrBackendUnavailable)
	}
	device, queue, unlock, err := e.ctx.acquire()
	if err != nil {
		return nil, nil, nil, unavailable(err)
	}
	return device, queue, unlock, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w: %w", osd.ErrEvalStencilsFailed, osd.ErrBackendUnavailable, err)
}

func (e *Evaluator) params(srcDesc, dstDesc osd.BufferDescriptor, count int) stencilParams {
	_, _, rowWidth := dispatchSize(count * srcDesc.Length)
	//nolint:gosec // descriptors validated, values fit uint32
	return stencilParams{
		SrcOffset: uint32(srcDesc.Offset),
		SrcStride: uint32(srcDesc.Stride),
		DstOffset: uint32(dstDesc.Offset),
		DstStride: uint32(dstDesc.Stride),
		Length:    uint32(srcDesc.Length),
		Count:     uint32(count),
		RowWidth:  rowWidth,
	}
}

// upload makes table resident, reusing the previous upload when the table
// is unchanged.
func (e *Evaluator) upload(device hal.Device, queue hal.Queue, table *far.StencilTable) (*residentTable, error) {
	if e.resident != nil && e.resident.table == table {
		return e.resident, nil
	}
	e.dropResident(device)

	sizes := table.Sizes()
	offsets := make([]int, len(sizes))
	terms, at := 0, 0
	for i, s := range sizes {
		offsets[i] = at
		at += s
		terms = max(terms, s)
	}
	rt := &residentTable{table: table, terms: max(terms, 1)}
	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	var err error
	if rt.sizes, err = createBuffer(device, queue, "subdiv_sizes", usage, intsToBytes(sizes), 0); err != nil {
		return nil, err
	}
	if rt.offsets, err = createBuffer(device, queue, "subdiv_offsets", usage, intsToBytes(offsets), 0); err != nil {
		rt.destroy(device)
		return nil, err
	}
	if rt.indices, err = createBuffer(device, queue, "subdiv_indices", usage, intsToBytes(table.ControlIndices()), 0); err != nil {
		rt.destroy(device)
		return nil, err
	}
	if rt.weights, err = createBuffer(device, queue, "subdiv_weights", usage, floatsToBytes(table.Weights()), 0); err != nil {
		rt.destroy(device)
		return nil, err
	}
	e.resident = rt
	slogger().Debug("gpu: stencil table uploaded", "stencils", len(sizes), "passes", rt.terms)
	return rt, nil
}

func (e *Evaluator) dropResident(device hal.Device) {
	if e.resident != nil {
		e.resident.destroy(device)
		e.resident = nil
	}
}

func (rt *residentTable) destroy(device hal.Device) {
	for _, b := range []hal.Buffer{rt.sizes, rt.offsets, rt.indices, rt.weights} {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
}

// passBindings holds one uniform buffer and bind group per term.
type passBindings struct {
	uniforms   []hal.Buffer
	bindGroups []hal.BindGroup
}

func (p *passBindings) destroy(device hal.Device) {
	for _, bg := range p.bindGroups {
		if bg != nil {
			device.DestroyBindGroup(bg)
		}
	}
	for _, ub := range p.uniforms {
		if ub != nil {
			device.DestroyBuffer(ub)
		}
	}
}

// createBindings creates a uniform buffer with the term index and a bind
// group for every pass. All passes share the table, src and dst buffers.
func (e *Evaluator) createBindings(device hal.Device, queue hal.Queue, rt *residentTable, params stencilParams,
	srcBuf hal.Buffer, srcSize uint64, dstBuf hal.Buffer, dstSize uint64) (*passBindings, error) {
	p := &passBindings{
		uniforms:   make([]hal.Buffer, 0, rt.terms),
		bindGroups: make([]hal.BindGroup, 0, rt.terms),
	}
	table := rt.table
	sizesSize := uint64(max(4, 4*table.Len()))                   //nolint:gosec // positive size
	indicesSize := uint64(max(4, 4*len(table.ControlIndices()))) //nolint:gosec // positive size
	paramSize := uint64(len(params.bytes()))

	for term := range rt.terms {
		params.Term = uint32(term) //nolint:gosec // bounded by stencil size
		ub, err := createBuffer(device, queue, "subdiv_params",
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, params.bytes(), 0)
		if err != nil {
			return p, fmt.Errorf("create uniform buffer %d: %w", term, err)
		}
		p.uniforms = append(p.uniforms, ub)

		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: "subdiv_stencil_bind", Layout: e.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Size: paramSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: rt.sizes.NativeHandle(), Size: sizesSize}},
				{Binding: 2, Resource: gputypes.BufferBinding{Buffer: rt.offsets.NativeHandle(), Size: sizesSize}},
				{Binding: 3, Resource: gputypes.BufferBinding{Buffer: rt.indices.NativeHandle(), Size: indicesSize}},
				{Binding: 4, Resource: gputypes.BufferBinding{Buffer: rt.weights.NativeHandle(), Size: indicesSize}},
				{Binding: 5, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Size: max(srcSize, 4)}},
				{Binding: 6, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Size: max(dstSize, 4)}},
			},
		})
		if err != nil {
			return p, fmt.Errorf("create bind group %d: %w", term, err)
		}
		p.bindGroups = append(p.bindGroups, bg)
	}
	return p, nil
}

// encodePasses records one compute pass per term. Passes are ordered, so
// each sees the partial sums written by the previous one.
func (e *Evaluator) encodePasses(enc hal.CommandEncoder, p *passBindings, params stencilParams) {
	x, y, _ := dispatchSize(int(params.Count * params.Length))
	for _, bg := range p.bindGroups {
		pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "subdiv_stencil_pass"})
		pass.SetPipeline(e.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(x, y, 1)
		pass.End()
	}
}

func (e *Evaluator) createPipeline(device hal.Device) error {
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "subdiv_stencil",
		Source: hal.ShaderSource{WGSL: stencilShaderWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile stencil shader: %w", err)
	}
	e.shader = shader

	entry := func(binding uint32, kind gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding: binding, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: kind},
		}
	}
	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "subdiv_stencil_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			entry(0, gputypes.BufferBindingTypeUniform),
			entry(1, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(2, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(3, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(4, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(5, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(6, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	e.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "subdiv_stencil_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	e.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "subdiv_stencil_pipeline", Layout: e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	e.pipeline = pipeline
	return nil
}

func (e *Evaluator) destroyPipeline(device hal.Device) {
	if e.pipeline != nil {
		device.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
	if e.pipeLayout != nil {
		device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}
