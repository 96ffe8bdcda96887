package render

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Material references an effect and overrides its parameters.
type Material struct {
	backend.BaseNode
	effect     common.NodeID
	parameters refList
}

var _ backend.Node = &Material{}

func NewMaterial() *Material {
	return &Material{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (m *Material) SceneChangeEvent(r *change.Record) { applyChange(&m.BaseNode, m, r) }

func (m *Material) setProperty(name string, v any) {
	switch name {
	case "effect":
		m.effect, _ = backend.AsNodeID(v)
	case "parameters":
		if ids, ok := backend.AsNodeIDs(v); ok {
			m.parameters.set(ids)
		}
	}
}

func (m *Material) addRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"parameters": &m.parameters}, name, r, true)
}

func (m *Material) removeRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"parameters": &m.parameters}, name, r, false)
}

func (m *Material) Cleanup() {
	m.BaseNode.Cleanup()
	m.effect = common.NilNodeID
	m.parameters = nil
}

func (m *Material) Effect() common.NodeID       { return m.effect }
func (m *Material) Parameters() []common.NodeID { return m.parameters }

// Effect groups alternative techniques for one material.
type Effect struct {
	backend.BaseNode
	techniques refList
	parameters refList
}

var _ backend.Node = &Effect{}

func NewEffect() *Effect {
	return &Effect{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (e *Effect) lists() map[string]*refList {
	return map[string]*refList{"techniques": &e.techniques, "parameters": &e.parameters}
}

func (e *Effect) SceneChangeEvent(r *change.Record) { applyChange(&e.BaseNode, e, r) }

func (e *Effect) setProperty(name string, v any) {
	if l, ok := e.lists()[name]; ok {
		if ids, ok := backend.AsNodeIDs(v); ok {
			l.set(ids)
		}
	}
}

func (e *Effect) addRef(name string, r *change.Record)    { applyRef(e.lists(), name, r, true) }
func (e *Effect) removeRef(name string, r *change.Record) { applyRef(e.lists(), name, r, false) }

func (e *Effect) Cleanup() {
	e.BaseNode.Cleanup()
	e.techniques = nil
	e.parameters = nil
}

func (e *Effect) Techniques() []common.NodeID { return e.techniques }
func (e *Effect) Parameters() []common.NodeID { return e.parameters }

// Technique is one way of rendering an effect, selected by its filter keys.
type Technique struct {
	backend.BaseNode
	renderPasses refList
	filterKeys   refList
	parameters   refList
}

var _ backend.Node = &Technique{}

func NewTechnique() *Technique {
	return &Technique{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (t *Technique) lists() map[string]*refList {
	return map[string]*refList{
		"renderPasses": &t.renderPasses,
		"filterKeys":   &t.filterKeys,
		"parameters":   &t.parameters,
	}
}

func (t *Technique) SceneChangeEvent(r *change.Record) { applyChange(&t.BaseNode, t, r) }

func (t *Technique) setProperty(name string, v any) {
	if l, ok := t.lists()[name]; ok {
		if ids, ok := backend.AsNodeIDs(v); ok {
			l.set(ids)
		}
	}
}

func (t *Technique) addRef(name string, r *change.Record)    { applyRef(t.lists(), name, r, true) }
func (t *Technique) removeRef(name string, r *change.Record) { applyRef(t.lists(), name, r, false) }

func (t *Technique) Cleanup() {
	t.BaseNode.Cleanup()
	t.renderPasses, t.filterKeys, t.parameters = nil, nil, nil
}

func (t *Technique) RenderPasses() []common.NodeID { return t.renderPasses }
func (t *Technique) FilterKeys() []common.NodeID   { return t.filterKeys }
func (t *Technique) Parameters() []common.NodeID   { return t.parameters }

// RenderPass binds a shader program and the render states used while it runs.
type RenderPass struct {
	backend.BaseNode
	shaderProgram common.NodeID
	renderStates  refList
	filterKeys    refList
	parameters    refList
}

var _ backend.Node = &RenderPass{}

func NewRenderPass() *RenderPass {
	return &RenderPass{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (p *RenderPass) lists() map[string]*refList {
	return map[string]*refList{
		"renderStates": &p.renderStates,
		"filterKeys":   &p.filterKeys,
		"parameters":   &p.parameters,
	}
}

func (p *RenderPass) SceneChangeEvent(r *change.Record) { applyChange(&p.BaseNode, p, r) }

func (p *RenderPass) setProperty(name string, v any) {
	if name == "shaderProgram" {
		p.shaderProgram, _ = backend.AsNodeID(v)
		return
	}
	if l, ok := p.lists()[name]; ok {
		if ids, ok := backend.AsNodeIDs(v); ok {
			l.set(ids)
		}
	}
}

func (p *RenderPass) addRef(name string, r *change.Record)    { applyRef(p.lists(), name, r, true) }
func (p *RenderPass) removeRef(name string, r *change.Record) { applyRef(p.lists(), name, r, false) }

func (p *RenderPass) Cleanup() {
	p.BaseNode.Cleanup()
	p.shaderProgram = common.NilNodeID
	p.renderStates, p.filterKeys, p.parameters = nil, nil, nil
}

func (p *RenderPass) ShaderProgram() common.NodeID  { return p.shaderProgram }
func (p *RenderPass) RenderStates() []common.NodeID { return p.renderStates }
func (p *RenderPass) FilterKeys() []common.NodeID   { return p.filterKeys }
func (p *RenderPass) Parameters() []common.NodeID   { return p.parameters }

// ShaderProgram holds shader sources. Compilation is done by the resource layer; the backend
// node only tracks the sources and whether they changed.
type ShaderProgram struct {
	backend.BaseNode
	sources map[string]string
	dirty   bool
}

var _ backend.Node = &ShaderProgram{}

func NewShaderProgram() *ShaderProgram {
	return &ShaderProgram{BaseNode: backend.NewBaseNode(backend.ReadOnly), sources: map[string]string{}}
}

func (s *ShaderProgram) SceneChangeEvent(r *change.Record) { applyChange(&s.BaseNode, s, r) }

func (s *ShaderProgram) setProperty(name string, v any) {
	switch name {
	case "vertexShaderCode", "fragmentShaderCode", "computeShaderCode",
		"geometryShaderCode", "tessellationControlShaderCode", "tessellationEvaluationShaderCode":
		if src, ok := backend.AsString(v); ok {
			s.sources[name] = src
			s.dirty = true
		}
	}
}

func (s *ShaderProgram) Cleanup() {
	s.BaseNode.Cleanup()
	s.sources = map[string]string{}
	s.dirty = false
}

// Source returns the source stored for stage, for example "vertexShaderCode".
func (s *ShaderProgram) Source(stage string) string { return s.sources[stage] }

// TakeDirty reports whether a source changed since the last call and clears the flag.
func (s *ShaderProgram) TakeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// Parameter is a named uniform value.
type Parameter struct {
	backend.BaseNode
	name  string
	value any
}

var _ backend.Node = &Parameter{}

func NewParameter() *Parameter {
	return &Parameter{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (p *Parameter) SceneChangeEvent(r *change.Record) { applyChange(&p.BaseNode, p, r) }

func (p *Parameter) setProperty(name string, v any) {
	switch name {
	case "name":
		p.name, _ = backend.AsString(v)
	case "value":
		p.value = v
	}
}

func (p *Parameter) Cleanup() {
	p.BaseNode.Cleanup()
	p.name, p.value = "", nil
}

func (p *Parameter) Name() string { return p.name }
func (p *Parameter) Value() any   { return p.value }

// FilterKey is a name/value pair matched against technique and render pass filters.
type FilterKey struct {
	backend.BaseNode
	name  string
	value any
}

var _ backend.Node = &FilterKey{}

func NewFilterKey() *FilterKey {
	return &FilterKey{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (k *FilterKey) SceneChangeEvent(r *change.Record) { applyChange(&k.BaseNode, k, r) }

func (k *FilterKey) setProperty(name string, v any) {
	switch name {
	case "name":
		k.name, _ = backend.AsString(v)
	case "value":
		k.value = v
	}
}

func (k *FilterKey) Cleanup() {
	k.BaseNode.Cleanup()
	k.name, k.value = "", nil
}

func (k *FilterKey) Name() string { return k.name }
func (k *FilterKey) Value() any   { return k.value }
