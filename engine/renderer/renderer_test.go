package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingContext logs every GraphicsContext call as a short string.
type recordingContext struct {
	calls    []string
	known    map[Handle]bool
	paramErr error
}

var _ GraphicsContext = &recordingContext{}

func newRecordingContext(known ...Handle) *recordingContext {
	c := &recordingContext{known: make(map[Handle]bool)}
	for _, h := range known {
		c.known[h] = true
	}
	return c
}

func (c *recordingContext) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *recordingContext) BindProgram(h Handle) error {
	if !c.known[h] {
		return ErrUnresolvedHandle
	}
	c.record("program %d", h)
	return nil
}

func (c *recordingContext) BindVertexArray(h Handle) error {
	if !c.known[h] {
		return ErrUnresolvedHandle
	}
	c.record("vao %d", h)
	return nil
}

func (c *recordingContext) ApplyState(st render.State)    { c.record("apply %d", st.Kind) }
func (c *recordingContext) ResetState(k render.StateKind) { c.record("reset %d", k) }

func (c *recordingContext) SetParameters(p ParameterPack) error {
	if c.paramErr != nil {
		return c.paramErr
	}
	c.record("params %d", p.Len())
	return nil
}

func (c *recordingContext) SetPrimitiveRestart(enabled bool, restartIndex int) {
	c.record("restart %t %d", enabled, restartIndex)
}

func (c *recordingContext) SetVerticesPerPatch(n uint32) { c.record("patch %d", n) }
func (c *recordingContext) DrawArrays(args DrawArgs)     { c.record("arrays %d", args.Count) }
func (c *recordingContext) DrawElements(args DrawArgs)   { c.record("elements %d@%d", args.Count, args.IndexByteOffset) }

func (c *recordingContext) DrawIndirect(args DrawArgs, buffer Handle, byteOffset uint32, indexed bool) error {
	if !c.known[buffer] {
		return ErrUnresolvedHandle
	}
	c.record("indirect %d+%d %t", buffer, byteOffset, indexed)
	return nil
}

func (c *recordingContext) DispatchCompute(x, y, z int) { c.record("dispatch %d %d %d", x, y, z) }

func drawCmd(program, vao Handle, count uint32) RenderCommand {
	return RenderCommand{
		Type:              CommandDraw,
		Entity:            common.NewNodeID(),
		Program:           program,
		VertexArray:       vao,
		StateSet:          DefaultStates(),
		PrimitiveCount:    count,
		InstanceCount:     1,
		PrimitiveType:     render.Triangles,
		RestartIndexValue: -1,
		IsValid:           true,
	}
}

func TestSubmitRebindsOnlyChanges(t *testing.T) {
	ctx := newRecordingContext(1, 2, 10, 11)
	r := NewRenderer()
	cmds := []RenderCommand{drawCmd(1, 10, 3), drawCmd(1, 10, 6), drawCmd(1, 11, 9), drawCmd(2, 11, 12)}

	stats := r.Submit(ctx, cmds)
	assert.Equal(t, []string{
		"program 1", "vao 10", "params 0", "restart false -1", "arrays 3",
		"params 0", "arrays 6",
		"vao 11", "params 0", "arrays 9",
		"program 2", "params 0", "arrays 12",
	}, ctx.calls)
	assert.Equal(t, FrameStats{
		Commands:         4,
		Submitted:        4,
		DrawCalls:        4,
		ProgramBinds:     2,
		VertexArrayBinds: 2,
	}, stats)
	assert.Equal(t, stats, r.LastFrame())
}

func TestSubmitAppliesStateDiffs(t *testing.T) {
	ctx := newRecordingContext(1, 10)
	r := NewRenderer(WithResetAtFrameEnd(true))

	blended := drawCmd(1, 10, 3)
	blended.StateSet = NewStateSet(
		render.State{Kind: render.StateDepthTest, Params: [4]float32{1}},
		render.State{Kind: render.StateBlendFunction, Params: [4]float32{1}},
	)
	plain := drawCmd(1, 10, 3)

	stats := r.Submit(ctx, []RenderCommand{blended, plain})
	assert.Equal(t, []string{
		"program 1", "vao 10",
		fmt.Sprintf("reset %d", render.StateDepthWrite), fmt.Sprintf("apply %d", render.StateBlendFunction),
		"params 0", "restart false -1", "arrays 3",
		fmt.Sprintf("reset %d", render.StateBlendFunction), fmt.Sprintf("apply %d", render.StateDepthWrite),
		"params 0", "arrays 3",
	}, ctx.calls)
	assert.Equal(t, 4, stats.StateChanges)
}

func TestSubmitResetsToDefaultsAtFrameEnd(t *testing.T) {
	ctx := newRecordingContext(1, 10)
	r := NewRenderer(WithResetAtFrameEnd(true))
	cmd := drawCmd(1, 10, 3)
	cmd.StateSet = cmd.StateSet.With(render.State{Kind: render.StateCullFace, Params: [4]float32{2}})

	stats := r.Submit(ctx, []RenderCommand{cmd})
	require.NotEmpty(t, ctx.calls)
	assert.Equal(t, fmt.Sprintf("reset %d", render.StateCullFace), ctx.calls[len(ctx.calls)-1])
	assert.Equal(t, 2, stats.StateChanges)
}

func TestSubmitSkipsInvalidAndUnresolved(t *testing.T) {
	ctx := newRecordingContext(1, 10)
	r := NewRenderer()

	invalid := drawCmd(1, 10, 0)
	invalid.IsValid = false
	noProgram := drawCmd(0, 10, 3)
	noVAO := drawCmd(1, 0, 3)
	stale := drawCmd(7, 10, 3)
	indirectMissing := drawCmd(1, 10, 0)
	indirectMissing.DrawIndirect = true
	good := drawCmd(1, 10, 3)

	stats := r.Submit(ctx, []RenderCommand{invalid, noProgram, noVAO, stale, indirectMissing, good})
	assert.Equal(t, 6, stats.Commands)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 4, stats.Unresolved)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, stats.Commands, stats.Submitted+stats.Invalid+stats.Unresolved)
	assert.Equal(t, []string{"program 1", "vao 10", "params 0", "restart false -1", "arrays 3"}, ctx.calls)
}

func TestSubmitParameterFailureSkipsCommand(t *testing.T) {
	ctx := newRecordingContext(1, 10)
	ctx.paramErr = errors.New("too large")
	stats := NewRenderer().Submit(ctx, []RenderCommand{drawCmd(1, 10, 3)})
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 0, stats.DrawCalls)
}

func TestSubmitDrawVariants(t *testing.T) {
	ctx := newRecordingContext(1, 10, 50)
	r := NewRenderer()

	indexed := drawCmd(1, 10, 36)
	indexed.DrawIndexed = true
	indexed.IndexAttributeByteOffset = 12
	indexed.PrimitiveRestart = true
	indexed.RestartIndexValue = 0xFFFF

	indirect := drawCmd(1, 10, 0)
	indirect.DrawIndirect = true
	indirect.DrawIndexed = true
	indirect.IndirectDrawBuffer = 50
	indirect.IndirectAttributeByteOffset = 16
	indirect.PrimitiveRestart = true
	indirect.RestartIndexValue = 0xFFFF

	patches := drawCmd(1, 10, 9)
	patches.PrimitiveType = render.Patches
	patches.VerticesPerPatch = 3

	compute := RenderCommand{Type: CommandCompute, Program: 1, WorkGroups: [3]int{8, 4, 1}, IsValid: true, StateSet: DefaultStates()}

	stats := r.Submit(ctx, []RenderCommand{compute, indexed, indirect, patches})
	assert.Equal(t, []string{
		"program 1", "params 0", "dispatch 8 4 1",
		"vao 10", "params 0", "restart true 65535", "elements 36@12",
		"params 0", "indirect 50+16 true",
		"params 0", "restart false -1", "patch 3", "arrays 9",
	}, ctx.calls)
	assert.Equal(t, 3, stats.DrawCalls)
	assert.Equal(t, 1, stats.Dispatches)
	assert.Equal(t, 4, stats.Submitted)
}

func TestSubmitEmptyFrame(t *testing.T) {
	ctx := newRecordingContext()
	stats := NewRenderer().Submit(ctx, nil)
	assert.Equal(t, FrameStats{}, stats)
	assert.Empty(t, ctx.calls)
}

func TestBuildThenSubmit(t *testing.T) {
	f := newFixture(t)
	f.add(drawable{})
	f.add(drawable{})
	f.add(drawable{Unresolved: true})
	f.sync()

	ctx := newRecordingContext()
	for h := Handle(1); h < f.next; h++ {
		ctx.known[h] = true
	}
	cmds := f.builder().Build(nil)
	require.Len(t, cmds, 3)

	stats := NewRenderer().Submit(ctx, cmds)
	assert.Equal(t, 2, stats.Submitted)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 2, stats.ProgramBinds)
}
