package render

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// GeometryRenderer holds the draw parameters of a mesh and references its geometry.
type GeometryRenderer struct {
	backend.BaseNode

	instanceCount     uint32
	vertexCount       uint32
	indexOffset       uint32
	firstInstance     uint32
	firstVertex       uint32
	restartIndexValue int
	verticesPerPatch  uint32
	primitiveRestart  bool
	primitiveType     PrimitiveType
	geometry          common.NodeID
}

var _ backend.Node = &GeometryRenderer{}

// NewGeometryRenderer returns a renderer drawing one instance of triangles.
func NewGeometryRenderer() *GeometryRenderer {
	g := &GeometryRenderer{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
	g.reset()
	return g
}

func (g *GeometryRenderer) reset() {
	base := g.BaseNode
	*g = GeometryRenderer{
		BaseNode:          base,
		instanceCount:     1,
		restartIndexValue: -1,
		primitiveType:     Triangles,
	}
}

func (g *GeometryRenderer) SceneChangeEvent(r *change.Record) { applyChange(&g.BaseNode, g, r) }

func (g *GeometryRenderer) setProperty(name string, v any) {
	switch name {
	case "instanceCount":
		g.instanceCount, _ = backend.AsUint32(v)
	case "vertexCount":
		g.vertexCount, _ = backend.AsUint32(v)
	case "indexOffset":
		g.indexOffset, _ = backend.AsUint32(v)
	case "firstInstance":
		g.firstInstance, _ = backend.AsUint32(v)
	case "firstVertex":
		g.firstVertex, _ = backend.AsUint32(v)
	case "restartIndexValue":
		if i, ok := backend.AsInt(v); ok {
			g.restartIndexValue = i
		}
	case "verticesPerPatch":
		g.verticesPerPatch, _ = backend.AsUint32(v)
	case "primitiveRestart":
		g.primitiveRestart, _ = backend.AsBool(v)
	case "primitiveType":
		switch p := v.(type) {
		case PrimitiveType:
			g.primitiveType = p
		default:
			if i, ok := backend.AsInt(v); ok && i >= 0 && i <= int(Patches) {
				g.primitiveType = PrimitiveType(i)
			}
		}
	case "geometry":
		g.geometry, _ = backend.AsNodeID(v)
	}
}

func (g *GeometryRenderer) Cleanup() {
	g.BaseNode.Cleanup()
	g.reset()
}

func (g *GeometryRenderer) InstanceCount() uint32        { return g.instanceCount }
func (g *GeometryRenderer) VertexCount() uint32          { return g.vertexCount }
func (g *GeometryRenderer) IndexOffset() uint32          { return g.indexOffset }
func (g *GeometryRenderer) FirstInstance() uint32        { return g.firstInstance }
func (g *GeometryRenderer) FirstVertex() uint32          { return g.firstVertex }
func (g *GeometryRenderer) RestartIndexValue() int       { return g.restartIndexValue }
func (g *GeometryRenderer) VerticesPerPatch() uint32     { return g.verticesPerPatch }
func (g *GeometryRenderer) PrimitiveRestart() bool       { return g.primitiveRestart }
func (g *GeometryRenderer) PrimitiveType() PrimitiveType { return g.primitiveType }
func (g *GeometryRenderer) Geometry() common.NodeID      { return g.geometry }

// Geometry groups the attributes describing a vertex layout.
type Geometry struct {
	backend.BaseNode
	attributes refList
}

var _ backend.Node = &Geometry{}

func NewGeometry() *Geometry {
	return &Geometry{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (g *Geometry) SceneChangeEvent(r *change.Record) { applyChange(&g.BaseNode, g, r) }

func (g *Geometry) setProperty(name string, v any) {
	if name == "attributes" {
		if ids, ok := backend.AsNodeIDs(v); ok {
			g.attributes.set(ids)
		}
	}
}

func (g *Geometry) addRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"attributes": &g.attributes}, name, r, true)
}

func (g *Geometry) removeRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"attributes": &g.attributes}, name, r, false)
}

func (g *Geometry) Cleanup() {
	g.BaseNode.Cleanup()
	g.attributes = nil
}

// Attributes returns the geometry's attribute references in order.
func (g *Geometry) Attributes() []common.NodeID { return g.attributes }

// Attribute describes how one vertex attribute, index list or indirect draw record is read
// from a buffer.
type Attribute struct {
	backend.BaseNode

	name          string
	buffer        common.NodeID
	baseType      VertexBaseType
	vertexSize    uint32
	count         uint32
	byteStride    uint32
	byteOffset    uint32
	attributeType AttributeType
}

var _ backend.Node = &Attribute{}

func NewAttribute() *Attribute {
	return &Attribute{BaseNode: backend.NewBaseNode(backend.ReadOnly), baseType: Float, vertexSize: 1}
}

func (a *Attribute) SceneChangeEvent(r *change.Record) { applyChange(&a.BaseNode, a, r) }

func (a *Attribute) setProperty(name string, v any) {
	switch name {
	case "name":
		a.name, _ = backend.AsString(v)
	case "buffer":
		a.buffer, _ = backend.AsNodeID(v)
	case "vertexBaseType":
		switch t := v.(type) {
		case VertexBaseType:
			a.baseType = t
		default:
			if i, ok := backend.AsInt(v); ok && i >= 0 && i <= int(Double) {
				a.baseType = VertexBaseType(i)
			}
		}
	case "vertexSize":
		a.vertexSize, _ = backend.AsUint32(v)
	case "count":
		a.count, _ = backend.AsUint32(v)
	case "byteStride":
		a.byteStride, _ = backend.AsUint32(v)
	case "byteOffset":
		a.byteOffset, _ = backend.AsUint32(v)
	case "attributeType":
		switch t := v.(type) {
		case AttributeType:
			a.attributeType = t
		default:
			if i, ok := backend.AsInt(v); ok && i >= 0 && i <= int(DrawIndirectAttribute) {
				a.attributeType = AttributeType(i)
			}
		}
	}
}

func (a *Attribute) Cleanup() {
	a.BaseNode.Cleanup()
	base := a.BaseNode
	*a = Attribute{BaseNode: base, baseType: Float, vertexSize: 1}
}

func (a *Attribute) Name() string                   { return a.name }
func (a *Attribute) Buffer() common.NodeID          { return a.buffer }
func (a *Attribute) VertexBaseType() VertexBaseType { return a.baseType }
func (a *Attribute) VertexSize() uint32             { return a.vertexSize }
func (a *Attribute) Count() uint32                  { return a.count }
func (a *Attribute) ByteStride() uint32             { return a.byteStride }
func (a *Attribute) ByteOffset() uint32             { return a.byteOffset }
func (a *Attribute) AttributeType() AttributeType   { return a.attributeType }

// Buffer mirrors a frontend data buffer. The bytes themselves are owned by the resource layer;
// the backend node only tracks size and whether the content changed.
type Buffer struct {
	backend.BaseNode
	byteSize uint32
	dirty    bool
}

var _ backend.Node = &Buffer{}

func NewBuffer() *Buffer {
	return &Buffer{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (b *Buffer) SceneChangeEvent(r *change.Record) { applyChange(&b.BaseNode, b, r) }

func (b *Buffer) setProperty(name string, v any) {
	switch name {
	case "byteSize":
		b.byteSize, _ = backend.AsUint32(v)
		b.dirty = true
	case "data":
		if d, ok := v.([]byte); ok {
			b.byteSize = uint32(len(d))
		}
		b.dirty = true
	}
}

func (b *Buffer) Cleanup() {
	b.BaseNode.Cleanup()
	b.byteSize = 0
	b.dirty = false
}

func (b *Buffer) ByteSize() uint32 { return b.byteSize }

// TakeDirty reports whether the content changed since the last call and clears the flag.
func (b *Buffer) TakeDirty() bool {
	d := b.dirty
	b.dirty = false
	return d
}
