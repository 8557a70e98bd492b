//go:build windows

package webgpu

import (
	"fmt"
	"strings"
)

// workgroupSize is the number of invocations per workgroup in both kernels.
const workgroupSize = 256

// maxWorkgroupBytes is the portable minimum of maxComputeWorkgroupStorageSize.
const maxWorkgroupBytes = 16384

// maxDispatch is the portable minimum of maxComputeWorkgroupsPerDimension.
const maxDispatch = 65535

// kernelConstants are baked into the WGSL source, one pipeline per set.
type kernelConstants struct {
	filterSize   int
	nchannel     int
	sampleTile   int
	filterTile   int
	segmentBlock int
}

func (k kernelConstants) key(kernel string) string {
	return fmt.Sprintf("%s/fs=%d/nch=%d/st=%d/ft=%d/sb=%d",
		kernel, k.filterSize, k.nchannel, k.sampleTile, k.filterTile, k.segmentBlock)
}

// windowLen is the dense workgroup's sample window: tile plus apron.
func (k kernelConstants) windowLen() int {
	return k.sampleTile + k.filterSize - 1
}

// spillLen is the correction workgroup's scratch: filter_size-1 codes after
// each boundary of the block.
func (k kernelConstants) spillLen() int {
	return k.segmentBlock * (k.filterSize - 1)
}

func (k kernelConstants) header() string {
	return fmt.Sprintf(`
const FS: u32 = %du;
const NCH: u32 = %du;
const SLOTS: u32 = %du;
const SAMPLE_TILE: u32 = %du;
const FILTER_TILE: u32 = %du;
const SEGMENT_BLOCK: u32 = %du;
const WINDOW: u32 = %du;
const SPILL: u32 = %du;
`, k.filterSize, k.nchannel, k.nchannel+1, k.sampleTile, k.filterTile, k.segmentBlock, k.windowLen(), max(k.spillLen(), 1))
}

// commonBindings declares the buffers shared by both kernels. Codes are
// widened to u32 on upload; grad holds f32 bit patterns.
const commonBindings = `
@group(0) @binding(0) var<storage, read> samples: array<u32>;
@group(0) @binding(1) var<storage, read> delta: array<f32>;
@group(0) @binding(2) var<storage, read_write> grad: array<atomic<u32>>;

struct Params {
    nsample: u32,
    nfilter: u32,
    nsegment: u32,
    _pad: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

// grad_add adds v to grad[idx] with a compare-exchange loop on the bits.
fn grad_add(idx: u32, v: f32) {
    var old = atomicLoad(&grad[idx]);
    loop {
        let next = bitcast<u32>(bitcast<f32>(old) + v);
        let r = atomicCompareExchangeWeak(&grad[idx], old, next);
        if (r.exchanged) {
            break;
        }
        old = r.old_value;
    }
}

// flush merges one (filter, offset) row of a private accumulator. The
// sentinel slot acc[NCH] is dropped.
fn flush(f: u32, t: u32, acc: ptr<function, array<f32, SLOTS>>) {
    let base = (f * FS + t) * NCH;
    for (var q = 0u; q < NCH; q++) {
        let v = (*acc)[q];
        if (v != 0.0) {
            grad_add(base + q, v);
        }
    }
}
`

// denseBody: one workgroup per (sample tile, filter tile). The window is
// staged in workgroup memory; each invocation owns (filter, offset) cells
// and scatters into a private row indexed by the clamped code.
const denseBody = `
var<workgroup> codes: array<u32, WINDOW>;

@compute @workgroup_size(256)
fn main(
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let s0 = workgroup_id.x * SAMPLE_TILE;
    let s1 = min(s0 + SAMPLE_TILE, params.nsample);
    let f0 = workgroup_id.y * FILTER_TILE;
    let f1 = min(f0 + FILTER_TILE, params.nfilter);

    // Load: tile plus apron, sentinel past nsample.
    for (var k = local_id.x; k < WINDOW; k += 256u) {
        let i = s0 + k;
        var code = NCH;
        if (i < params.nsample) {
            code = min(samples[i], NCH);
        }
        codes[k] = code;
    }
    workgroupBarrier();

    let cells = (f1 - f0) * FS;
    for (var cell = local_id.x; cell < cells; cell += 256u) {
        let f = f0 + cell / FS;
        let t = cell % FS;
        var acc: array<f32, SLOTS>;
        for (var i = s0; i < s1; i++) {
            acc[codes[i - s0 + t]] += delta[i * params.nfilter + f];
        }
        flush(f, t, &acc);
    }
}
`

// correctionBody: one workgroup per (segment block, filter tile). The
// filter_size-1 codes after every boundary of the block are staged in
// workgroup memory. Cell (filter, t) with t >= 1 subtracts every window start
// o in [max(j1-t, j0), j1) whose offset t read samples[o+t] across boundary j1.
const correctionBody = `
@group(0) @binding(4) var<storage, read> segments: array<u32>;

var<workgroup> spill: array<u32, SPILL>;

@compute @workgroup_size(256)
fn main(
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let b0 = workgroup_id.x * SEGMENT_BLOCK;
    let b1 = min(b0 + SEGMENT_BLOCK, params.nsegment);
    let f0 = workgroup_id.y * FILTER_TILE;
    let f1 = min(f0 + FILTER_TILE, params.nfilter);

    // Load: the samples the dense pass read after each j1, sentinel past nsample.
    let apron = FS - 1u;
    for (var k = local_id.x; k < (b1 - b0) * apron; k += 256u) {
        let i = segments[b0 + k / apron] + k % apron;
        var code = NCH;
        if (i < params.nsample) {
            code = min(samples[i], NCH);
        }
        spill[k] = code;
    }
    workgroupBarrier();

    let cells = (f1 - f0) * apron;
    for (var cell = local_id.x; cell < cells; cell += 256u) {
        let f = f0 + cell / apron;
        let t = 1u + cell % apron;
        var acc: array<f32, SLOTS>;
        for (var k = b0; k < b1; k++) {
            let j1 = segments[k];
            var j0 = 0u;
            if (k > 0u) {
                j0 = segments[k - 1u];
            }
            var o = j0;
            if (j1 >= j0 + t) {
                o = j1 - t;
            }
            let row = (k - b0) * apron;
            for (; o < j1; o++) {
                acc[spill[row + o + t - j1]] -= delta[o * params.nfilter + f];
            }
        }
        flush(f, t, &acc);
    }
}
`

func denseShader(k kernelConstants) string {
	return strings.Join([]string{k.header(), commonBindings, denseBody}, "\n")
}

func correctionShader(k kernelConstants) string {
	return strings.Join([]string{k.header(), commonBindings, correctionBody}, "\n")
}
