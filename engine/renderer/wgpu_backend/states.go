package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineState is the fixed-function part of a render pipeline derived from a state set.
// WebGPU bakes these into the pipeline, so every distinct value needs its own pipeline variant.
type pipelineState struct {
	depthCompare    wgpu.CompareFunction
	depthWrite      bool
	blend           bool
	cullMode        wgpu.CullMode
	frontFace       wgpu.FrontFace
	writeMask       wgpu.ColorWriteMask
	depthBias       int32
	depthBiasSlope  float32
	alphaToCoverage bool
}

// toPipelineState maps a state set onto pipeline state. Kinds without a WebGPU pipeline
// equivalent (line width, point size, scissor, stencil, multisample toggles) are ignored.
func toPipelineState(s renderer.StateSet) pipelineState {
	ps := pipelineState{
		depthCompare: wgpu.CompareFunctionAlways,
		cullMode:     wgpu.CullModeNone,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, st := range s.States() {
		on := st.Params[0] != 0
		switch st.Kind {
		case render.StateDepthTest:
			if on {
				ps.depthCompare = wgpu.CompareFunctionLess
			}
		case render.StateDepthWrite:
			ps.depthWrite = on
		case render.StateBlendEquation, render.StateBlendFunction:
			ps.blend = true
		case render.StateCullFace:
			switch int(st.Params[0]) {
			case 1:
				ps.cullMode = wgpu.CullModeFront
			case 2:
				ps.cullMode = wgpu.CullModeBack
			}
		case render.StateFrontFace:
			if on {
				ps.frontFace = wgpu.FrontFaceCW
			}
		case render.StateColorMask:
			var mask wgpu.ColorWriteMask
			for i, bit := range [4]wgpu.ColorWriteMask{wgpu.ColorWriteMaskRed, wgpu.ColorWriteMaskGreen, wgpu.ColorWriteMaskBlue, wgpu.ColorWriteMaskAlpha} {
				if st.Params[i] != 0 {
					mask |= bit
				}
			}
			ps.writeMask = mask
		case render.StatePolygonOffset:
			ps.depthBiasSlope = st.Params[0]
			ps.depthBias = int32(st.Params[1])
		case render.StateAlphaCoverage:
			ps.alphaToCoverage = on
		}
	}
	return ps
}

// alphaBlend is the blend state used whenever a blend toggle is set.
var alphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// topology maps a primitive type onto a WebGPU topology. Fans, loops, adjacency and patch
// primitives have no WebGPU equivalent.
func topology(p render.PrimitiveType) (wgpu.PrimitiveTopology, error) {
	switch p {
	case render.Points:
		return wgpu.PrimitiveTopologyPointList, nil
	case render.Lines:
		return wgpu.PrimitiveTopologyLineList, nil
	case render.LineStrip:
		return wgpu.PrimitiveTopologyLineStrip, nil
	case render.Triangles:
		return wgpu.PrimitiveTopologyTriangleList, nil
	case render.TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, nil
	}
	return 0, fmt.Errorf("wgpu_backend: primitive type %s is not supported", p)
}

// indexFormat maps an index attribute type onto a WebGPU index format.
func indexFormat(t render.VertexBaseType) (wgpu.IndexFormat, error) {
	switch t {
	case render.UnsignedShort:
		return wgpu.IndexFormatUint16, nil
	case render.UnsignedInt:
		return wgpu.IndexFormatUint32, nil
	}
	return 0, fmt.Errorf("wgpu_backend: index type %d is not supported", t)
}

// stripIndexFormat returns the strip index format a pipeline needs for primitive restart.
// Restart only applies to strip topologies in WebGPU.
func stripIndexFormat(top wgpu.PrimitiveTopology, restart bool, t render.VertexBaseType) wgpu.IndexFormat {
	if !restart || (top != wgpu.PrimitiveTopologyLineStrip && top != wgpu.PrimitiveTopologyTriangleStrip) {
		return wgpu.IndexFormatUndefined
	}
	f, err := indexFormat(t)
	if err != nil {
		return wgpu.IndexFormatUndefined
	}
	return f
}
