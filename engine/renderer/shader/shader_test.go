package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litSource = `
/* material block
   /* nested */ still a comment */
struct Params {
	mvp: mat4x4<f32>,
	tint: vec3<f32>,
	strength: f32,
	offsets: array<vec2<f32>, 4>,
};

struct VertexIn {
	@location(0) position: vec3<f32>,
	@location(1) normal: vec3<f32>,
	@location(2) uv: vec2<f32>,
};

struct VertexOut {
	@builtin(position) clip: vec4<f32>,
	@location(0) uv: vec2<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(1) @binding(1) var albedoSampler: sampler;
@group(1) @binding(0) var albedo: texture_2d<f32>;

// @fragment fn commented_out() {}
@vertex
fn vertex_main(in: VertexIn) -> VertexOut {
	var out: VertexOut;
	return out;
}

@fragment
fn fragment_main(in: VertexOut) -> @location(0) vec4<f32> {
	return vec4<f32>(params.tint, 1.0);
}
`

func TestReflectEntryPointsAndLayouts(t *testing.T) {
	r := Reflect(litSource)
	assert.Equal(t, "vertex_main", r.VertexEntry)
	assert.Equal(t, "fragment_main", r.FragmentEntry)
	assert.Empty(t, r.ComputeEntry)
	assert.Equal(t, [3]uint32{1, 1, 1}, r.WorkgroupSize)

	require.Len(t, r.VertexLayouts, 1)
	layout := r.VertexLayouts[0]
	assert.Equal(t, uint64(32), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	}, layout.Attributes)
}

func TestReflectBindingsAndUniformSize(t *testing.T) {
	r := Reflect(litSource)
	require.Len(t, r.Bindings, 3)
	assert.Equal(t, "params", r.Bindings[0].Name)
	assert.Equal(t, "albedo", r.Bindings[1].Name)
	assert.Equal(t, "albedoSampler", r.Bindings[2].Name)

	// mvp 0..64, tint 64..76, strength 76..80, offsets 80..112
	assert.Equal(t, uint64(112), r.UniformSize(0, 0))
	assert.Zero(t, r.UniformSize(1, 0))
	assert.Zero(t, r.UniformSize(2, 0))

	b, ok := r.Binding(1, 0)
	require.True(t, ok)
	assert.Equal(t, "texture_2d<f32>", b.Type)
	assert.Empty(t, b.AddressSpace)
}

func TestReflectCompute(t *testing.T) {
	r := Reflect(`
struct Particle { pos: vec3<f32>, vel: vec3<f32> };
@group(0) @binding(0) var<storage, read_write> particles: array<Particle>;
@compute @workgroup_size(64, 2)
fn simulate(@builtin(global_invocation_id) id: vec3<u32>) {}
`)
	assert.Equal(t, "simulate", r.ComputeEntry)
	assert.Equal(t, [3]uint32{64, 2, 1}, r.WorkgroupSize)
	assert.Empty(t, r.VertexLayouts)

	b, ok := r.Binding(0, 0)
	require.True(t, ok)
	assert.Equal(t, "storage,read_write", b.AddressSpace)
	assert.Equal(t, uint64(32), b.Size)
	assert.Zero(t, r.UniformSize(0, 0))
}

func TestStructSizesResolveForwardReferences(t *testing.T) {
	structs := parseStructBlocks(stripComments(`
struct Outer { inner: Inner, scale: f32 };
struct Inner { a: vec4<f32> };
struct Broken { x: unknown_t };
`))
	sizes := computeStructSizes(structs)
	assert.Equal(t, wgslTypeLayout{32, 16}, sizes["Outer"])
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Inner"])
	assert.NotContains(t, sizes, "Broken")
}

func TestSplitAtTopLevelCommas(t *testing.T) {
	assert.Equal(t, []string{"a: f32", " b: array<u32, 4>", ""}, splitAtTopLevelCommas("a: f32, b: array<u32, 4>,"))
}
