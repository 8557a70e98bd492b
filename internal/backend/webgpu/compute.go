//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached under key.
func (b *Backend) compileShader(key, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[key]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[key] = shader
	b.mu.Unlock()

	return shader
}

// pipeline returns the cached compute pipeline for key, compiling code on
// first use.
func (b *Backend) pipeline(key, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[key]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	shader := b.compileShader(key, code)
	// Auto layout (nil layout): bindings come from the shader.
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[key] = pipeline
	b.mu.Unlock()

	return pipeline
}

// upload creates a GPU buffer holding data. len(data) must be a positive
// multiple of 4.
func (b *Backend) upload(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	return buffer
}

// uniform creates a uniform buffer padded to 16-byte alignment.
func (b *Backend) uniform(data []byte) *wgpu.Buffer {
	aligned := make([]byte, (len(data)+15)&^15)
	copy(aligned, data)
	return b.upload(aligned, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

// download reads size bytes of src back to CPU memory through a staging
// buffer, since storage buffers can't be mapped directly.
func (b *Backend) download(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	out := make([]byte, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(out, unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()

	return out, nil
}

func encodeCodes(codes []uint8) []byte {
	out := make([]byte, 4*len(codes))
	for i, c := range codes {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(c))
	}
	return out
}

func encodeFloats(xs []float32) []byte {
	out := make([]byte, 4*len(xs))
	for i, v := range xs {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func decodeFloats(dst []float32, data []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
}

func encodeU32s(xs ...int) []byte {
	out := make([]byte, 4*len(xs))
	for i, v := range xs {
		//nolint:gosec // G115: values are validated non-negative sizes
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}
