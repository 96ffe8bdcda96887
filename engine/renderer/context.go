package renderer

import "github.com/Carmen-Shannon/oxy3d/engine/render"

// DrawArgs carries the CPU-side counts of one draw call.
type DrawArgs struct {
	Primitive     render.PrimitiveType
	Count         uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32

	// Indexed draws only.
	FirstIndex      uint32
	IndexType       render.VertexBaseType
	IndexByteOffset uint32
}

// GraphicsContext is the GPU API boundary used by submission. Implementations own the GPU
// objects behind each Handle; submission never allocates or frees them.
type GraphicsContext interface {
	// BindProgram makes h the active program. Returns ErrUnresolvedHandle for unknown handles.
	BindProgram(h Handle) error

	// BindVertexArray makes h the active vertex layout. Returns ErrUnresolvedHandle for unknown handles.
	BindVertexArray(h Handle) error

	// ApplyState sets one state toggle.
	ApplyState(st render.State)

	// ResetState restores the default for kind.
	ResetState(kind render.StateKind)

	// SetParameters uploads the uniforms of the next draw for the bound program.
	SetParameters(p ParameterPack) error

	SetPrimitiveRestart(enabled bool, restartIndex int)
	SetVerticesPerPatch(n uint32)

	DrawArrays(args DrawArgs)
	DrawElements(args DrawArgs)

	// DrawIndirect issues a draw whose counts live in buffer at byteOffset.
	DrawIndirect(args DrawArgs, buffer Handle, byteOffset uint32, indexed bool) error

	// DispatchCompute runs the bound compute program over x*y*z work groups.
	DispatchCompute(x, y, z int)
}
