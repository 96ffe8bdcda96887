package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
)

// FrameStats counts what one Submit did. Every command lands in exactly one of Submitted,
// Invalid or Unresolved.
type FrameStats struct {
	Commands   int
	Submitted  int
	Invalid    int
	Unresolved int

	DrawCalls  int
	Dispatches int

	ProgramBinds     int
	VertexArrayBinds int
	StateChanges     int
}

// Renderer submits the sorted command list of a frame to a GraphicsContext, re-binding only
// what differs from the previously submitted command.
type Renderer interface {
	// Submit issues cmds in order. Invalid commands are counted and skipped without a GPU
	// call. A command whose program, vertex array or indirect buffer cannot be resolved is
	// logged and skipped; the rest of the frame still runs.
	//
	// Parameters:
	//   - ctx: the graphics context receiving the calls
	//   - cmds: the frame's commands, in submission order
	//
	// Returns:
	//   - FrameStats: what was submitted, skipped and re-bound
	Submit(ctx GraphicsContext, cmds []RenderCommand) FrameStats

	// LastFrame returns the stats of the previous Submit.
	LastFrame() FrameStats

	// DefaultStateSet returns the states the context is assumed to hold at frame start.
	DefaultStateSet() StateSet
}

type renderer struct {
	mu *sync.Mutex

	defaults   StateSet
	resetFrame bool
	last       FrameStats
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer.
//
// Parameters:
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:       &sync.Mutex{},
		defaults: DefaultStates(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *renderer) LastFrame() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) DefaultStateSet() StateSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaults
}

// DefaultStates returns depth testing and depth writes enabled, the state a freshly
// configured context starts in.
func DefaultStates() StateSet {
	return NewStateSet(
		render.State{Kind: render.StateDepthTest, Params: [4]float32{1}},
		render.State{Kind: render.StateDepthWrite, Params: [4]float32{1}},
	)
}

// submitState is what the context currently has bound.
type submitState struct {
	program       Handle
	vertexArray   Handle
	states        StateSet
	restartSet    bool
	restart       bool
	restartIndex  int
	patchVertices uint32
}

func (r *renderer) Submit(ctx GraphicsContext, cmds []RenderCommand) FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := FrameStats{Commands: len(cmds)}
	cur := submitState{states: r.defaults}
	log := common.Logger()

	for i := range cmds {
		c := &cmds[i]
		if !c.IsValid {
			stats.Invalid++
			log.Debug("renderer: skipping invalid command", "entity", c.Entity, "type", c.Type)
			continue
		}
		if !r.resolved(c) {
			stats.Unresolved++
			log.Warn("renderer: skipping command with unresolved handle",
				"entity", c.Entity, "shader", c.ShaderID, "geometry", c.Geometry,
				"program", c.Program, "vertexArray", c.VertexArray)
			continue
		}

		if c.Program != cur.program {
			if err := ctx.BindProgram(c.Program); err != nil {
				stats.Unresolved++
				cur.program = 0
				log.Warn("renderer: bind program failed", "entity", c.Entity, "program", c.Program, "error", err)
				continue
			}
			cur.program = c.Program
			stats.ProgramBinds++
		}
		if c.Type == CommandDraw && c.VertexArray != cur.vertexArray {
			if err := ctx.BindVertexArray(c.VertexArray); err != nil {
				stats.Unresolved++
				cur.vertexArray = 0
				log.Warn("renderer: bind vertex array failed", "entity", c.Entity, "vertexArray", c.VertexArray, "error", err)
				continue
			}
			cur.vertexArray = c.VertexArray
			stats.VertexArrayBinds++
		}
		stats.StateChanges += applyStateDiff(ctx, cur.states, c.StateSet)
		cur.states = c.StateSet

		if err := ctx.SetParameters(c.Parameters); err != nil {
			stats.Unresolved++
			log.Warn("renderer: set parameters failed", "entity", c.Entity, "error", err)
			continue
		}

		if c.Type == CommandCompute {
			ctx.DispatchCompute(c.WorkGroups[0], c.WorkGroups[1], c.WorkGroups[2])
			stats.Dispatches++
			stats.Submitted++
			continue
		}

		if !cur.restartSet || cur.restart != c.PrimitiveRestart || cur.restartIndex != c.RestartIndexValue {
			ctx.SetPrimitiveRestart(c.PrimitiveRestart, c.RestartIndexValue)
			cur.restartSet, cur.restart, cur.restartIndex = true, c.PrimitiveRestart, c.RestartIndexValue
		}
		if c.PrimitiveType == render.Patches && c.VerticesPerPatch != cur.patchVertices {
			ctx.SetVerticesPerPatch(c.VerticesPerPatch)
			cur.patchVertices = c.VerticesPerPatch
		}

		args := DrawArgs{
			Primitive:       c.PrimitiveType,
			Count:           c.PrimitiveCount,
			InstanceCount:   c.InstanceCount,
			FirstVertex:     c.FirstVertex,
			FirstInstance:   c.FirstInstance,
			FirstIndex:      c.IndexOffset,
			IndexType:       c.IndexAttributeDataType,
			IndexByteOffset: c.IndexAttributeByteOffset,
		}
		switch {
		case c.DrawIndirect:
			if err := ctx.DrawIndirect(args, c.IndirectDrawBuffer, c.IndirectAttributeByteOffset, c.DrawIndexed); err != nil {
				stats.Unresolved++
				log.Warn("renderer: indirect draw failed", "entity", c.Entity, "buffer", c.IndirectDrawBuffer, "error", err)
				continue
			}
		case c.DrawIndexed:
			ctx.DrawElements(args)
		default:
			ctx.DrawArrays(args)
		}
		stats.DrawCalls++
		stats.Submitted++
	}

	if r.resetFrame {
		stats.StateChanges += applyStateDiff(ctx, cur.states, r.defaults)
	}
	r.last = stats
	recordFrame(stats)
	return stats
}

// resolved reports whether every handle c needs is set.
func (r *renderer) resolved(c *RenderCommand) bool {
	if c.Program == 0 {
		return false
	}
	if c.Type == CommandCompute {
		return true
	}
	if c.VertexArray == 0 {
		return false
	}
	return !c.DrawIndirect || c.IndirectDrawBuffer != 0
}

// applyStateDiff issues the resets and toggles that move the context from prev to next and
// returns how many calls it made.
func applyStateDiff(ctx GraphicsContext, prev, next StateSet) int {
	if prev.Equal(next) {
		return 0
	}
	n := 0
	for _, st := range prev.States() {
		if _, ok := next.Get(st.Kind); !ok {
			ctx.ResetState(st.Kind)
			n++
		}
	}
	for _, st := range next.States() {
		if p, ok := prev.Get(st.Kind); !ok || p != st {
			ctx.ApplyState(st)
			n++
		}
	}
	return n
}
