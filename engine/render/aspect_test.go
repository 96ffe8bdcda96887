package render

import (
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/arbiter"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAspect(t *testing.T) (Aspect, arbiter.Arbiter) {
	t.Helper()
	jm := jobs.NewJobManager(jobs.WithWorkerCount(2))
	t.Cleanup(jm.Close)
	arb := arbiter.NewArbiter(arbiter.WithJobManager(jm))
	t.Cleanup(arb.Close)
	a := NewAspect(arb, WithNotifier(arb))
	arb.RegisterSceneObserver(a)
	return a, arb
}

func TestAspectCreatesAndInitializesBackendNodes(t *testing.T) {
	a, arb := newTestAspect(t)

	geomID := common.NewNodeID()
	rendererID := common.NewNodeID()
	layerID := common.NewNodeID()
	entityID := common.NewNodeID()

	arb.NotifyChangeWithLock(change.NewNodeCreated(rendererID, TypeGeometryRenderer, map[string]any{
		"vertexCount":   36,
		"primitiveType": LineStrip,
		"geometry":      geomID,
	}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(entityID, TypeEntity, map[string]any{
		"geometryRenderer": rendererID,
		"layers":           []common.NodeID{layerID},
		"enabled":          false,
	}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(common.NewNodeID(), "Unknown", nil))
	assert.Equal(t, 3, arb.SyncChanges())

	gr, ok := a.GeometryRenderers().Lookup(rendererID)
	require.True(t, ok)
	assert.Equal(t, uint32(36), gr.VertexCount())
	assert.Equal(t, uint32(1), gr.InstanceCount())
	assert.Equal(t, -1, gr.RestartIndexValue())
	assert.Equal(t, LineStrip, gr.PrimitiveType())
	assert.Equal(t, geomID, gr.Geometry())
	assert.True(t, gr.IsEnabled())

	e, ok := a.Entities().Lookup(entityID)
	require.True(t, ok)
	assert.False(t, e.IsEnabled())
	assert.Equal(t, rendererID, e.GeometryRenderer())
	assert.Equal(t, []common.NodeID{layerID}, e.Layers())
	assert.Equal(t, 2, a.NodeCount())

	// Later updates reach the node through its observer registration.
	arb.NotifyChange(0, change.NewPropertyUpdate(entityID, "enabled", true))
	arb.NotifyChange(0, change.NewPropertyUpdate(entityID, "worldMatrix", mgl32.Translate3D(1, 2, 3)))
	arb.NotifyChange(0, change.NewPropertyRemoved(entityID, "layers", layerID))
	arb.SyncChanges()
	assert.True(t, e.IsEnabled())
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), e.WorldMatrix())
	assert.Empty(t, e.Layers())
}

func TestAspectReleasesNodesOnDeletion(t *testing.T) {
	a, arb := newTestAspect(t)
	first, second := common.NewNodeID(), common.NewNodeID()
	arb.NotifyChangeWithLock(change.NewNodeCreated(first, TypeEntity, nil))
	arb.NotifyChangeWithLock(change.NewNodeCreated(second, TypeEntity, nil))
	arb.SyncChanges()
	require.Len(t, a.Renderables(), 2)
	assert.Equal(t, 1, arb.ObserverCount(first))

	arb.NotifyNodeDestruction(0, first)
	arb.SyncChanges()

	_, ok := a.Entities().Lookup(first)
	assert.False(t, ok)
	assert.Equal(t, 0, arb.ObserverCount(first))
	rs := a.Renderables()
	require.Len(t, rs, 1)
	assert.Equal(t, second, rs[0].PeerID())
}

// Observes the aspect between the two deletion records.
type betweenDeletion struct {
	aspect Aspect
	seen   []int
}

func (b *betweenDeletion) SceneChangeEvent(r *change.Record) {
	if r.Kind() == change.NodeAboutToBeDeleted {
		b.seen = append(b.seen, len(b.aspect.Renderables()))
	}
}

func TestAboutToBeDeletedEvictsRenderable(t *testing.T) {
	a, arb := newTestAspect(t)
	id := common.NewNodeID()
	arb.NotifyChangeWithLock(change.NewNodeCreated(id, TypeEntity, nil))
	arb.SyncChanges()
	require.Len(t, a.Renderables(), 1)

	probe := &betweenDeletion{aspect: a}
	arb.RegisterObserver(probe, id, change.NodeAboutToBeDeleted)
	arb.NotifyNodeDestruction(0, id)
	arb.SyncChanges()

	// The entity still exists in the registry but is no longer renderable.
	assert.Equal(t, []int{0}, probe.seen)
	assert.Empty(t, a.Renderables())
}

func TestDuplicateCreationKeepsSingleObserver(t *testing.T) {
	a, arb := newTestAspect(t)
	id := common.NewNodeID()
	arb.NotifyChangeWithLock(change.NewNodeCreated(id, TypeLayer, map[string]any{"recursive": true}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(id, TypeLayer, nil))
	arb.SyncChanges()

	assert.Equal(t, 1, arb.ObserverCount(id))
	l, ok := a.Layers().Lookup(id)
	require.True(t, ok)
	assert.True(t, l.Recursive())
}

func TestMaterialChainRefsAndValues(t *testing.T) {
	a, arb := newTestAspect(t)
	effect, tech, pass, program, param, key, state := common.NewNodeID(), common.NewNodeID(),
		common.NewNodeID(), common.NewNodeID(), common.NewNodeID(), common.NewNodeID(), common.NewNodeID()

	arb.NotifyChangeWithLock(change.NewNodeCreated(effect, TypeEffect, map[string]any{"techniques": []common.NodeID{tech}}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(tech, TypeTechnique, nil))
	arb.NotifyChangeWithLock(change.NewNodeCreated(pass, TypeRenderPass, map[string]any{"shaderProgram": program}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(param, TypeParameter, map[string]any{"name": "color", "value": mgl32.Vec3{1, 0, 0}}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(key, TypeFilterKey, map[string]any{"name": "renderingStyle", "value": "forward"}))
	arb.NotifyChangeWithLock(change.NewNodeCreated(state, TypeRenderState, map[string]any{"kind": "DepthTest", "params": []float32{1}}))
	arb.NotifyChangeWithLock(change.NewPropertyAdded(tech, "renderPasses", pass))
	arb.NotifyChangeWithLock(change.NewPropertyAdded(tech, "filterKeys", key))
	arb.NotifyChangeWithLock(change.NewPropertyAdded(pass, "renderStates", state))
	arb.NotifyChangeWithLock(change.NewPropertyAdded(pass, "parameters", param))
	arb.SyncChanges()

	e, _ := a.Effects().Lookup(effect)
	assert.Equal(t, []common.NodeID{tech}, e.Techniques())
	tn, _ := a.Techniques().Lookup(tech)
	assert.Equal(t, []common.NodeID{pass}, tn.RenderPasses())
	assert.Equal(t, []common.NodeID{key}, tn.FilterKeys())
	p, _ := a.RenderPasses().Lookup(pass)
	assert.Equal(t, program, p.ShaderProgram())
	assert.Equal(t, []common.NodeID{state}, p.RenderStates())
	assert.Equal(t, []common.NodeID{param}, p.Parameters())
	pr, _ := a.Parameters().Lookup(param)
	assert.Equal(t, "color", pr.Name())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, pr.Value())
	rs, _ := a.RenderStates().Lookup(state)
	assert.Equal(t, State{Kind: StateDepthTest, Params: [4]float32{1}}, rs.State())
}

func TestWorkGroupCoercion(t *testing.T) {
	wg, ok := asWorkGroups([3]uint32{4, 2, 1})
	assert.True(t, ok)
	assert.Equal(t, [3]int{4, 2, 1}, wg)
	_, ok = asWorkGroups([]int{1})
	assert.False(t, ok)
}

func TestVertexBaseTypeSizes(t *testing.T) {
	assert.Equal(t, uint32(1), UnsignedByte.ByteSize())
	assert.Equal(t, uint32(2), HalfFloat.ByteSize())
	assert.Equal(t, uint32(4), Float.ByteSize())
	assert.Equal(t, uint32(8), Double.ByteSize())
	assert.True(t, UnsignedShort.IsIndexType())
	assert.False(t, Float.IsIndexType())
	assert.Equal(t, "Patches", Patches.String())
}

func TestComputeCommandManualRun(t *testing.T) {
	c := NewComputeCommand()
	assert.True(t, c.ShouldRun())
	c.setProperty("runType", "Manual")
	assert.False(t, c.ShouldRun())
	c.setProperty("frameCount", 2)
	c.setProperty("workGroupX", 8)
	assert.Equal(t, [3]int{8, 1, 1}, c.WorkGroups())
	c.ConsumeFrame()
	assert.True(t, c.ShouldRun())
	c.ConsumeFrame()
	assert.False(t, c.ShouldRun())
}
