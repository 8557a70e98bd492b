//go:build windows

package webgpu

import (
	"errors"
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// ErrReleased is returned by kernels called after Release.
var ErrReleased = errors.New("webgpu: backend released")

// DenseBackward implements seqconv.Backend.
func (b *Backend) DenseBackward(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	if err := p.ValidateDense(grad); err != nil {
		return err
	}
	return b.run(grad, p, true, false)
}

// SegmentCorrection implements seqconv.Backend.
func (b *Backend) SegmentCorrection(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	if err := p.ValidateWithGrad(grad); err != nil {
		return err
	}
	return b.run(grad, p, false, true)
}

// Backward records the dense pass and the correction pass in one command
// buffer. Passes in a submission execute in order, which gives the barrier
// between them.
func (b *Backend) Backward(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	if err := p.ValidateWithGrad(grad); err != nil {
		return err
	}
	return b.run(grad, p, true, true)
}

func (b *Backend) constants(p *seqconv.Problem[float32]) kernelConstants {
	return kernelConstants{
		filterSize:   p.FilterSize,
		nchannel:     p.NChannel,
		sampleTile:   b.tiling.SampleTile,
		filterTile:   b.tiling.FilterTile,
		segmentBlock: b.tiling.SegmentBlock,
	}
}

// checkLimits rejects launches exceeding the portable WebGPU limits.
func (b *Backend) checkLimits(k kernelConstants, p *seqconv.Problem[float32]) error {
	if bytes := 4 * k.windowLen(); bytes > maxWorkgroupBytes {
		return fmt.Errorf("webgpu: sample window of %d bytes exceeds %d bytes of workgroup memory; lower the sample tile", bytes, maxWorkgroupBytes)
	}
	if bytes := 4 * k.spillLen(); bytes > maxWorkgroupBytes {
		return fmt.Errorf("webgpu: boundary scratch of %d bytes exceeds %d bytes of workgroup memory; lower the segment block", bytes, maxWorkgroupBytes)
	}
	for _, n := range []int{
		b.tiling.SampleTiles(p.NSample()),
		b.tiling.FilterTiles(p.NFilter()),
		b.tiling.SegmentBlocks(len(p.Segments)),
	} {
		if n > maxDispatch {
			return fmt.Errorf("webgpu: %d workgroups exceed the dispatch limit %d; raise the tile sizes", n, maxDispatch)
		}
	}
	return nil
}

// run uploads the problem and grad, records the requested passes, and reads
// grad back. Inputs are assumed valid.
func (b *Backend) run(grad *tensor.Tensor[float32], p *seqconv.Problem[float32], dense, correction bool) error {
	k := b.constants(p)
	if err := b.checkLimits(k, p); err != nil {
		return err
	}
	correction = correction && p.FilterSize > 1
	if !dense && !correction {
		return nil
	}

	b.launch.Lock()
	defer b.launch.Unlock()
	if b.device == nil {
		return ErrReleased
	}

	gradSize := uint64(4 * grad.NumElements())
	bufSamples := b.upload(encodeCodes(p.Samples), wgpu.BufferUsageStorage)
	defer bufSamples.Release()
	bufDelta := b.upload(encodeFloats(p.Delta.Data()), wgpu.BufferUsageStorage)
	defer bufDelta.Release()
	bufGrad := b.upload(encodeFloats(grad.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer bufGrad.Release()
	bufParams := b.uniform(encodeU32s(p.NSample(), p.NFilter(), len(p.Segments), 0))
	defer bufParams.Release()

	entries := []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufSamples, 0, uint64(4*p.NSample())),
		wgpu.BufferBindingEntry(1, bufDelta, 0, uint64(4*p.Delta.NumElements())),
		wgpu.BufferBindingEntry(2, bufGrad, 0, gradSize),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	}

	encoder := b.device.CreateCommandEncoder(nil)

	if dense {
		pipeline := b.pipeline(k.key("dense"), denseShader(k))
		bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
		defer bindGroup.Release()

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		//nolint:gosec // G115: bounded by checkLimits
		pass.DispatchWorkgroups(uint32(b.tiling.SampleTiles(p.NSample())), uint32(b.tiling.FilterTiles(p.NFilter())), 1)
		pass.End()
	}

	if correction {
		bufSegments := b.upload(encodeU32s(p.Segments...), wgpu.BufferUsageStorage)
		defer bufSegments.Release()

		pipeline := b.pipeline(k.key("correction"), correctionShader(k))
		withSegments := append(entries[:len(entries):len(entries)],
			wgpu.BufferBindingEntry(4, bufSegments, 0, uint64(4*len(p.Segments))))
		bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), withSegments)
		defer bindGroup.Release()

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		//nolint:gosec // G115: bounded by checkLimits
		pass.DispatchWorkgroups(uint32(b.tiling.SegmentBlocks(len(p.Segments))), uint32(b.tiling.FilterTiles(p.NFilter())), 1)
		pass.End()
	}

	b.queue.Submit(encoder.Finish(nil))

	out, err := b.download(bufGrad, gradSize)
	if err != nil {
		return err
	}
	decodeFloats(grad.Data(), out)
	return nil
}
