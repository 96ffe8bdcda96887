package render

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/go-gl/mathgl/mgl32"
)

// Entity is the backend mirror of a renderable scene entity: its components and transform.
type Entity struct {
	backend.BaseNode

	geometryRenderer common.NodeID
	material         common.NodeID
	computeCommand   common.NodeID
	layers           refList

	worldMatrix    mgl32.Mat4
	boundingCenter mgl32.Vec3
	boundingRadius float32
}

var _ backend.Node = &Entity{}

// NewEntity returns an Entity with an identity transform.
func NewEntity() *Entity {
	return &Entity{BaseNode: backend.NewBaseNode(backend.ReadOnly), worldMatrix: mgl32.Ident4()}
}

func (e *Entity) SceneChangeEvent(r *change.Record) { applyChange(&e.BaseNode, e, r) }

func (e *Entity) setProperty(name string, v any) {
	switch name {
	case "geometryRenderer":
		e.geometryRenderer, _ = backend.AsNodeID(v)
	case "material":
		e.material, _ = backend.AsNodeID(v)
	case "computeCommand":
		e.computeCommand, _ = backend.AsNodeID(v)
	case "layers":
		if ids, ok := backend.AsNodeIDs(v); ok {
			e.layers.set(ids)
		}
	case "worldMatrix":
		if m, ok := backend.AsMat4(v); ok {
			e.worldMatrix = m
		}
	case "boundingCenter":
		if c, ok := backend.AsVec3(v); ok {
			e.boundingCenter = c
		}
	case "boundingRadius":
		if f, ok := backend.AsFloat32(v); ok {
			e.boundingRadius = f
		}
	}
}

func (e *Entity) addRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"layers": &e.layers}, name, r, true)
}

func (e *Entity) removeRef(name string, r *change.Record) {
	applyRef(map[string]*refList{"layers": &e.layers}, name, r, false)
}

func (e *Entity) Cleanup() {
	e.BaseNode.Cleanup()
	*e = Entity{BaseNode: e.BaseNode, worldMatrix: mgl32.Ident4()}
}

// GeometryRenderer returns the referenced geometry renderer, or the nil id.
func (e *Entity) GeometryRenderer() common.NodeID { return e.geometryRenderer }

// Material returns the referenced material, or the nil id.
func (e *Entity) Material() common.NodeID { return e.material }

// ComputeCommand returns the referenced compute command, or the nil id.
func (e *Entity) ComputeCommand() common.NodeID { return e.computeCommand }

// Layers returns the entity's layer references.
func (e *Entity) Layers() []common.NodeID { return e.layers }

// WorldMatrix returns the entity's world transform.
func (e *Entity) WorldMatrix() mgl32.Mat4 { return e.worldMatrix }

// WorldBoundingSphere returns the bounding sphere in world space. A radius of zero or less
// means the entity has no bounds and is never culled.
func (e *Entity) WorldBoundingSphere() (center mgl32.Vec3, radius float32) {
	center = common.TransformPoint(e.worldMatrix, e.boundingCenter)
	return center, e.boundingRadius * common.MaxAxisScale(e.worldMatrix)
}
