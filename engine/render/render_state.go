package render

import (
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// StateKind identifies a GPU state toggle.
type StateKind uint8

const (
	StateNone StateKind = iota
	StateDepthTest
	StateDepthWrite
	StateBlendEquation
	StateBlendFunction
	StateCullFace
	StateFrontFace
	StateScissorTest
	StateStencilTest
	StateColorMask
	StatePolygonOffset
	StateAlphaCoverage
	StateMultiSample
	StateLineWidth
	StatePointSize
)

var stateKindNames = map[string]StateKind{
	"DepthTest":     StateDepthTest,
	"DepthWrite":    StateDepthWrite,
	"BlendEquation": StateBlendEquation,
	"BlendFunction": StateBlendFunction,
	"CullFace":      StateCullFace,
	"FrontFace":     StateFrontFace,
	"ScissorTest":   StateScissorTest,
	"StencilTest":   StateStencilTest,
	"ColorMask":     StateColorMask,
	"PolygonOffset": StatePolygonOffset,
	"AlphaCoverage": StateAlphaCoverage,
	"MultiSample":   StateMultiSample,
	"LineWidth":     StateLineWidth,
	"PointSize":     StatePointSize,
}

// ParseStateKind maps a state name such as "DepthTest" to its kind.
func ParseStateKind(name string) (StateKind, bool) {
	k, ok := stateKindNames[name]
	return k, ok
}

// Blends reports whether the state makes draws translucent.
func (k StateKind) Blends() bool {
	return k == StateBlendEquation || k == StateBlendFunction
}

// State is one GPU state toggle and its arguments. States compare by value.
type State struct {
	Kind   StateKind
	Params [4]float32
}

// RenderState mirrors one frontend render state node.
type RenderState struct {
	backend.BaseNode
	state State
}

var _ backend.Node = &RenderState{}

func NewRenderState() *RenderState {
	return &RenderState{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (s *RenderState) SceneChangeEvent(r *change.Record) { applyChange(&s.BaseNode, s, r) }

func (s *RenderState) setProperty(name string, v any) {
	switch name {
	case "kind":
		switch k := v.(type) {
		case StateKind:
			s.state.Kind = k
		case string:
			s.state.Kind, _ = ParseStateKind(k)
		}
	case "params":
		switch p := v.(type) {
		case [4]float32:
			s.state.Params = p
		case []float32:
			s.state.Params = [4]float32{}
			copy(s.state.Params[:], p)
		}
	}
}

func (s *RenderState) Cleanup() {
	s.BaseNode.Cleanup()
	s.state = State{}
}

// State returns the mirrored state.
func (s *RenderState) State() State { return s.state }
