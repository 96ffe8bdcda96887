package wgpu_backend

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func state(kind render.StateKind, params ...float32) render.State {
	s := render.State{Kind: kind}
	copy(s.Params[:], params)
	return s
}

func TestPipelineStateDefaults(t *testing.T) {
	ps := toPipelineState(renderer.DefaultStates())
	assert.Equal(t, wgpu.CompareFunctionLess, ps.depthCompare)
	assert.True(t, ps.depthWrite)
	assert.False(t, ps.blend)
	assert.Equal(t, wgpu.CullModeNone, ps.cullMode)
	assert.Equal(t, wgpu.FrontFaceCCW, ps.frontFace)
	assert.Equal(t, wgpu.ColorWriteMaskAll, ps.writeMask)

	empty := toPipelineState(renderer.StateSet{})
	assert.Equal(t, wgpu.CompareFunctionAlways, empty.depthCompare)
	assert.False(t, empty.depthWrite)
}

func TestPipelineStateMapping(t *testing.T) {
	ps := toPipelineState(renderer.NewStateSet(
		state(render.StateBlendFunction, 1),
		state(render.StateCullFace, 2),
		state(render.StateFrontFace, 1),
		state(render.StateColorMask, 1, 0, 1, 0),
		state(render.StatePolygonOffset, 1.5, 4),
		state(render.StateAlphaCoverage, 1),
		state(render.StateLineWidth, 3),
	))
	assert.True(t, ps.blend)
	assert.Equal(t, wgpu.CullModeBack, ps.cullMode)
	assert.Equal(t, wgpu.FrontFaceCW, ps.frontFace)
	assert.Equal(t, wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskBlue, ps.writeMask)
	assert.Equal(t, float32(1.5), ps.depthBiasSlope)
	assert.Equal(t, int32(4), ps.depthBias)
	assert.True(t, ps.alphaToCoverage)

	// Equal sets map to the same pipeline variant.
	a := toPipelineState(renderer.NewStateSet(state(render.StateCullFace, 1), state(render.StateDepthTest, 1)))
	b := toPipelineState(renderer.NewStateSet(state(render.StateDepthTest, 1), state(render.StateCullFace, 1)))
	assert.Equal(t, a, b)
}

func TestTopologyAndIndexFormats(t *testing.T) {
	top, err := topology(render.TriangleStrip)
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, top)
	for _, p := range []render.PrimitiveType{render.TriangleFan, render.LineLoop, render.Patches} {
		_, err := topology(p)
		assert.Error(t, err, p.String())
	}

	f, err := indexFormat(render.UnsignedInt)
	require.NoError(t, err)
	assert.Equal(t, wgpu.IndexFormatUint32, f)
	_, err = indexFormat(render.Float)
	assert.Error(t, err)

	assert.Equal(t, wgpu.IndexFormatUint16, stripIndexFormat(wgpu.PrimitiveTopologyLineStrip, true, render.UnsignedShort))
	assert.Equal(t, wgpu.IndexFormatUndefined, stripIndexFormat(wgpu.PrimitiveTopologyTriangleList, true, render.UnsignedShort))
	assert.Equal(t, wgpu.IndexFormatUndefined, stripIndexFormat(wgpu.PrimitiveTopologyTriangleStrip, false, render.UnsignedShort))
}

func floatAt(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func TestEncodeParametersLayout(t *testing.T) {
	var p renderer.ParameterPack
	p.Set("b_color", mgl32.Vec3{1, 2, 3})
	p.Set("a_scale", float32(0.5))
	p.Set("c_lit", true)
	p.Set("d_model", mgl32.Translate3D(4, 5, 6))

	b, err := encodeParameters(nil, p)
	require.NoError(t, err)
	// a_scale @0, b_color @16 (padded to 16), c_lit @32, d_model @48.
	require.Len(t, b, 48+64)
	assert.Equal(t, float32(0.5), floatAt(b, 0))
	assert.Equal(t, float32(1), floatAt(b, 16))
	assert.Equal(t, float32(3), floatAt(b, 24))
	assert.Equal(t, float32(0), floatAt(b, 28))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[32:]))
	assert.Equal(t, float32(4), floatAt(b, 48+12*4))
}

func TestEncodeParametersMat3Padding(t *testing.T) {
	var p renderer.ParameterPack
	p.Set("normal", mgl32.Ident3())
	b, err := encodeParameters(nil, p)
	require.NoError(t, err)
	require.Len(t, b, 48)
	assert.Equal(t, float32(1), floatAt(b, 0))
	assert.Equal(t, float32(1), floatAt(b, 20))
	assert.Equal(t, float32(1), floatAt(b, 40))
}

func TestEncodeParametersRejectsUnknownTypes(t *testing.T) {
	var p renderer.ParameterPack
	p.Set("name", "not a uniform")
	_, err := encodeParameters(nil, p)
	assert.ErrorContains(t, err, `parameter "name"`)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, alignUp(0))
	assert.Equal(t, 256, alignUp(1))
	assert.Equal(t, 256, alignUp(256))
	assert.Equal(t, 512, alignUp(257))
}

func TestParsePresentModeAndMSAA(t *testing.T) {
	m, err := ParsePresentMode("")
	require.NoError(t, err)
	assert.Equal(t, PresentModeVSync, m)
	m, err = ParsePresentMode("Uncapped")
	require.NoError(t, err)
	assert.Equal(t, PresentModeUncapped, m)
	_, err = ParsePresentMode("triple")
	assert.Error(t, err)

	assert.True(t, MSAA4x.Valid())
	assert.False(t, MSAASampleCount(2).Valid())
}

func TestProgramDescriptorReflection(t *testing.T) {
	const src = `
struct Params { color: vec4<f32>, scale: f32 };
struct VertexIn { @location(0) pos: vec2<f32> };
@group(0) @binding(0) var<uniform> params: Params;
@vertex fn main_vs(in: VertexIn) -> @builtin(position) vec4<f32> { return vec4<f32>(in.pos, 0.0, 1.0); }
@fragment fn main_fs() -> @location(0) vec4<f32> { return params.color; }
`
	desc := withReflection(ProgramDescriptor{VertexSource: src, FragmentSource: src})
	assert.Equal(t, "main_vs", desc.VertexEntryPoint)
	assert.Equal(t, "main_fs", desc.FragmentEntryPoint)
	assert.Equal(t, uint64(32), desc.UniformSize)
	require.Len(t, desc.VertexLayouts, 1)
	assert.Equal(t, uint64(8), desc.VertexLayouts[0].ArrayStride)

	explicit := withReflection(ProgramDescriptor{
		VertexSource:     src,
		FragmentSource:   src,
		VertexEntryPoint: "other",
		VertexLayouts:    []wgpu.VertexBufferLayout{},
		UniformSize:      64,
	})
	assert.Equal(t, "other", explicit.VertexEntryPoint)
	assert.Empty(t, explicit.VertexLayouts)
	assert.NotNil(t, explicit.VertexLayouts)
	assert.Equal(t, uint64(64), explicit.UniformSize)

	compute := withReflection(ProgramDescriptor{ComputeSource: "@compute @workgroup_size(8) fn step() {}"})
	assert.Equal(t, "step", compute.ComputeEntryPoint)
	assert.Zero(t, compute.UniformSize)

	bare := withReflection(ProgramDescriptor{})
	assert.Equal(t, "vs_main", bare.VertexEntryPoint)
	assert.Equal(t, "fs_main", bare.FragmentEntryPoint)
}
