package renderer

import (
	"slices"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
)

// CommandType selects how a RenderCommand is dispatched at submission.
type CommandType uint8

const (
	CommandDraw CommandType = iota
	CommandCompute
)

func (t CommandType) String() string {
	if t == CommandCompute {
		return "Compute"
	}
	return "Draw"
}

// Handle is an opaque GPU resource handle produced by the resource layer. Zero is unresolved.
type Handle uint64

// RenderCommand is one frame's resolved draw or dispatch for a single entity and render pass.
// Commands reference GPU resources by handle only and are discarded after submission.
type RenderCommand struct {
	Type CommandType

	Entity           common.NodeID
	Material         common.NodeID
	ShaderID         common.NodeID
	Geometry         common.NodeID
	GeometryRenderer common.NodeID
	ComputeCommand   common.NodeID

	Program            Handle
	VertexArray        Handle
	IndirectDrawBuffer Handle

	Parameters ParameterPack
	StateSet   StateSet

	// ActiveAttributes lists the geometry's vertex attribute names in declaration order.
	ActiveAttributes []string

	Depth      float32
	ChangeCost int
	WorkGroups [3]int

	PrimitiveCount              uint32
	PrimitiveType               render.PrimitiveType
	RestartIndexValue           int
	FirstInstance               uint32
	FirstVertex                 uint32
	VerticesPerPatch            uint32
	InstanceCount               uint32
	IndexOffset                 uint32
	IndexAttributeByteOffset    uint32
	IndexAttributeDataType      render.VertexBaseType
	IndirectAttributeByteOffset uint32

	DrawIndexed      bool
	DrawIndirect     bool
	PrimitiveRestart bool
	IsValid          bool

	SortKey        uint64
	TraversalOrder int
}

// Equal reports whether c and o issue the same GPU work. Every draw parameter, resolved handle,
// state set and parameter pack is compared by value; the originating entity, sort key and
// traversal order are not.
//
// Parameters:
//   - o: the command to compare against
//
// Returns:
//   - bool: true when both commands are interchangeable at submission
func (c *RenderCommand) Equal(o *RenderCommand) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.Type == o.Type &&
		c.Material == o.Material &&
		c.ShaderID == o.ShaderID &&
		c.Geometry == o.Geometry &&
		c.GeometryRenderer == o.GeometryRenderer &&
		c.ComputeCommand == o.ComputeCommand &&
		c.Program == o.Program &&
		c.VertexArray == o.VertexArray &&
		c.IndirectDrawBuffer == o.IndirectDrawBuffer &&
		c.Depth == o.Depth &&
		c.ChangeCost == o.ChangeCost &&
		c.WorkGroups == o.WorkGroups &&
		c.PrimitiveCount == o.PrimitiveCount &&
		c.PrimitiveType == o.PrimitiveType &&
		c.RestartIndexValue == o.RestartIndexValue &&
		c.FirstInstance == o.FirstInstance &&
		c.FirstVertex == o.FirstVertex &&
		c.VerticesPerPatch == o.VerticesPerPatch &&
		c.InstanceCount == o.InstanceCount &&
		c.IndexOffset == o.IndexOffset &&
		c.IndexAttributeByteOffset == o.IndexAttributeByteOffset &&
		c.IndexAttributeDataType == o.IndexAttributeDataType &&
		c.IndirectAttributeByteOffset == o.IndirectAttributeByteOffset &&
		c.DrawIndexed == o.DrawIndexed &&
		c.DrawIndirect == o.DrawIndirect &&
		c.PrimitiveRestart == o.PrimitiveRestart &&
		c.IsValid == o.IsValid &&
		slices.Equal(c.ActiveAttributes, o.ActiveAttributes) &&
		c.StateSet.Equal(o.StateSet) &&
		c.Parameters.Equal(o.Parameters)
}
