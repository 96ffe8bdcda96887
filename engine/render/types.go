package render

// Node type names carried by NodeCreated records. The render aspect creates a backend node
// for each of them.
const (
	TypeEntity           = "Entity"
	TypeGeometryRenderer = "GeometryRenderer"
	TypeGeometry         = "Geometry"
	TypeAttribute        = "Attribute"
	TypeBuffer           = "Buffer"
	TypeMaterial         = "Material"
	TypeEffect           = "Effect"
	TypeTechnique        = "Technique"
	TypeRenderPass       = "RenderPass"
	TypeShaderProgram    = "ShaderProgram"
	TypeParameter        = "Parameter"
	TypeFilterKey        = "FilterKey"
	TypeRenderState      = "RenderState"
	TypeLayer            = "Layer"
	TypeComputeCommand   = "ComputeCommand"
)

// PrimitiveType is the topology of a draw.
type PrimitiveType uint8

const (
	Points PrimitiveType = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
	LinesAdjacency
	TrianglesAdjacency
	LineStripAdjacency
	TriangleStripAdjacency
	Patches
)

var primitiveTypeNames = [...]string{
	"Points", "Lines", "LineLoop", "LineStrip", "Triangles", "TriangleStrip", "TriangleFan",
	"LinesAdjacency", "TrianglesAdjacency", "LineStripAdjacency", "TriangleStripAdjacency", "Patches",
}

func (p PrimitiveType) String() string {
	if int(p) < len(primitiveTypeNames) {
		return primitiveTypeNames[p]
	}
	return "Unknown"
}

// VertexBaseType is the scalar type of an attribute's components.
type VertexBaseType uint8

const (
	Byte VertexBaseType = iota
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	HalfFloat
	Float
	Double
)

// ByteSize returns the size in bytes of one component.
func (t VertexBaseType) ByteSize() uint32 {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort, HalfFloat:
		return 2
	case Int, UnsignedInt, Float:
		return 4
	case Double:
		return 8
	}
	return 0
}

// IsIndexType reports whether t can be used for an index buffer.
func (t VertexBaseType) IsIndexType() bool {
	return t == UnsignedByte || t == UnsignedShort || t == UnsignedInt
}

// AttributeType tells what an attribute feeds.
type AttributeType uint8

const (
	VertexAttribute AttributeType = iota
	IndexAttribute
	DrawIndirectAttribute
)
