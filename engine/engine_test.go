package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/animation"
	"github.com/Carmen-Shannon/oxy3d/engine/config"
	"github.com/Carmen-Shannon/oxy3d/engine/input"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/Carmen-Shannon/oxy3d/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSurface accepts every handle and counts frames and draws.
type countingSurface struct {
	begins, ends, presents int
	draws, dispatches      int
	configured             [2]int
	beginErr               error
}

var _ Surface = &countingSurface{}

func (s *countingSurface) BindProgram(renderer.Handle) error          { return nil }
func (s *countingSurface) BindVertexArray(renderer.Handle) error      { return nil }
func (s *countingSurface) ApplyState(render.State)                    {}
func (s *countingSurface) ResetState(render.StateKind)                {}
func (s *countingSurface) SetParameters(renderer.ParameterPack) error { return nil }
func (s *countingSurface) SetPrimitiveRestart(bool, int)              {}
func (s *countingSurface) SetVerticesPerPatch(uint32)                 {}
func (s *countingSurface) DrawArrays(renderer.DrawArgs)               { s.draws++ }
func (s *countingSurface) DrawElements(renderer.DrawArgs)             { s.draws++ }
func (s *countingSurface) DispatchCompute(x, y, z int)                { s.dispatches++ }
func (s *countingSurface) ConfigureSurface(width, height int)         { s.configured = [2]int{width, height} }
func (s *countingSurface) EndFrame()                                  { s.ends++ }
func (s *countingSurface) Present()                                   { s.presents++ }

func (s *countingSurface) DrawIndirect(renderer.DrawArgs, renderer.Handle, uint32, bool) error {
	s.draws++
	return nil
}

func (s *countingSurface) BeginFrame() error {
	s.begins++
	return s.beginErr
}

func newTestEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	e := NewEngine(append([]EngineBuilderOption{WithConfig(cfg)}, options...)...)
	t.Cleanup(e.Quit)
	return e
}

func node(nodeType string, properties map[string]any) *scene.PropertyNode {
	options := make([]scene.NodeBuilderOption, 0, len(properties))
	for k, v := range properties {
		options = append(options, scene.WithProperty(k, v))
	}
	return scene.NewPropertyNode(nodeType, options...)
}

// addDrawable adds a plain 36-vertex entity with a resolvable shader and geometry.
func addDrawable(e Engine) *scene.PropertyNode {
	shader := node(render.TypeShaderProgram, nil)
	pass := node(render.TypeRenderPass, map[string]any{"shaderProgram": shader.ID()})
	technique := node(render.TypeTechnique, map[string]any{"renderPasses": []common.NodeID{pass.ID()}})
	effect := node(render.TypeEffect, map[string]any{"techniques": []common.NodeID{technique.ID()}})
	material := node(render.TypeMaterial, map[string]any{"effect": effect.ID()})
	geometry := node(render.TypeGeometry, nil)
	gr := node(render.TypeGeometryRenderer, map[string]any{"geometry": geometry.ID(), "vertexCount": 36})
	entity := node(render.TypeEntity, map[string]any{"geometryRenderer": gr.ID(), "material": material.ID()})

	e.Resources().SetProgram(shader.ID(), 1)
	e.Resources().SetVertexArray(geometry.ID(), shader.ID(), 2)
	e.Scene().Add(shader, pass, technique, effect, material, geometry, gr, entity)
	return entity
}

func TestFrameSubmitsSceneToSurface(t *testing.T) {
	surface := &countingSurface{}
	e := newTestEngine(t, WithSurface(surface))
	entity := addDrawable(e)

	stats := e.Frame(1.0 / 60)
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, 1, surface.draws)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{surface.begins, surface.ends, surface.presents})

	entity.SetEnabled(false)
	stats = e.Frame(1.0 / 60)
	assert.Zero(t, stats.DrawCalls)
	assert.Equal(t, 1, surface.draws)
}

func TestFrameSkipsSubmissionWhenBeginFails(t *testing.T) {
	surface := &countingSurface{beginErr: errors.New("surface lost")}
	e := newTestEngine(t, WithSurface(surface))
	addDrawable(e)

	stats := e.Frame(1.0 / 60)
	assert.Zero(t, stats.Submitted)
	assert.Zero(t, surface.draws)
	assert.Zero(t, surface.presents)
}

func TestHeadlessFrameBuildsWithoutSurface(t *testing.T) {
	e := newTestEngine(t)
	addDrawable(e)

	stats := e.Frame(1.0 / 60)
	assert.Equal(t, renderer.FrameStats{}, stats)
	assert.Equal(t, 8, e.RenderAspect().NodeCount())
	assert.Equal(t, 1, e.CommandBuilder().Stats().Commands)
}

func TestResizeReconfiguresSurfaceOnNextFrame(t *testing.T) {
	surface := &countingSurface{}
	e := newTestEngine(t, WithSurface(surface)).(*engine)

	e.resize(800, 400)
	assert.Equal(t, float32(2), e.Camera().Aspect())
	assert.Equal(t, [2]int{}, surface.configured)

	e.Frame(0)
	assert.Equal(t, [2]int{800, 400}, surface.configured)

	e.resize(0, 100)
	e.Frame(0)
	assert.Equal(t, [2]int{800, 400}, surface.configured)
}

func TestAnimationReachesFrontendThroughPostman(t *testing.T) {
	e := newTestEngine(t)
	target := node("Marker", map[string]any{"opacity": float32(0)})
	clip := node(animation.TypeAnimationClip, map[string]any{"clipData": animation.ClipData{
		Channels: []animation.Channel{{Name: "Opacity", Components: []animation.ChannelComponent{
			{Name: "O", Keyframes: []animation.Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 10}}},
		}}},
	}})
	mapping := node(animation.TypeChannelMapping, map[string]any{
		"channelName": "Opacity",
		"target":      target.ID(),
		"property":    "opacity",
		"type":        animation.ValueFloat,
	})
	mapper := node(animation.TypeChannelMapper, map[string]any{"mappings": []common.NodeID{mapping.ID()}})
	animator := node(animation.TypeClipAnimator, map[string]any{
		"clip":          clip.ID(),
		"channelMapper": mapper.ID(),
		"running":       true,
	})
	e.Scene().Add(target, clip, mapping, mapper, animator)

	e.Frame(0.5) // creates the backend nodes
	e.Frame(0.5) // starts the animator at local time 0
	e.Frame(0.5)
	e.Tick(0)

	v, ok := target.Property("opacity")
	require.True(t, ok)
	assert.Equal(t, float32(5), v)
	n, _ := animator.Property("normalizedTime")
	assert.Equal(t, 0.5, n)
	d, _ := clip.Property("duration")
	assert.Equal(t, float32(1), d)
}

func TestKeyboardDrivesAxisOnFrontend(t *testing.T) {
	kb := input.NewKeyboard()
	e := newTestEngine(t, WithKeyboard(kb))
	forward := node(input.TypeButtonAxisInput, map[string]any{"buttons": []common.KeyCode{common.KeyW}})
	axis := node(input.TypeAxis, map[string]any{"inputs": []common.NodeID{forward.ID()}})
	e.Scene().Add(forward, axis)
	require.Same(t, kb, e.InputAspect().Keyboard())

	e.Frame(0.016)
	kb.KeyDown(common.KeyW)
	e.Frame(0.016)

	var seen []any
	handled := e.Tick(0)
	assert.Equal(t, 1, handled)
	v, _ := axis.Property("value")
	seen = append(seen, v)

	kb.KeyUp(common.KeyW)
	e.Frame(0.016)
	e.Tick(0)
	v, _ = axis.Property("value")
	seen = append(seen, v)
	assert.Equal(t, []any{float32(1), float32(0)}, seen)
}

func TestTickRunsCallbackAfterDelivery(t *testing.T) {
	e := newTestEngine(t)
	var got []float32
	e.SetTickCallback(func(dt float32) { got = append(got, dt) })
	assert.Zero(t, e.Tick(0.25))
	assert.Equal(t, []float32{0.25}, got)
}

func TestOptionsAndIntervals(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 1
	cfg.TickRate = 30
	cfg.RenderFrameLimit = 120
	cfg.Profiling = true
	e := NewEngine(WithConfig(cfg), WithTickRate(0)).(*engine)
	t.Cleanup(e.Quit)

	assert.Equal(t, tickInterval(60), e.engineTickRate)
	assert.Equal(t, frameInterval(120), e.renderFrameLimit)
	assert.True(t, e.profilingEnabled)
	assert.Equal(t, cfg, e.Config())

	e.DisableProfiler()
	assert.False(t, e.profilingEnabled)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
	e.SetTickRate(-5)
	assert.Equal(t, tickInterval(60), e.engineTickRate)
	assert.Zero(t, frameInterval(-1))
}

func TestRunHeadlessReturnsAfterQuit(t *testing.T) {
	ready := make(chan Surface, 1)
	surface := &countingSurface{}
	e := newTestEngine(t, WithSurface(surface), WithSurfaceReady(func(s Surface) { ready <- s }))
	frames := make(chan struct{}, 1)
	e.SetRenderCallback(func(float32) {
		select {
		case frames <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	assert.Same(t, surface, (<-ready).(*countingSurface))
	<-frames
	e.Quit()
	<-done
	e.Quit()
}
