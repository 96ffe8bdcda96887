package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/arbiter"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardSnapshot(t *testing.T) {
	k := NewKeyboard()
	k.KeyDown(common.KeyW)
	k.KeyDown(common.KeyA)
	k.KeyUp(common.KeyA)
	assert.True(t, k.IsPressed(common.KeyW))
	assert.False(t, k.IsPressed(common.KeyA))

	snap := k.Snapshot()
	k.KeyUp(common.KeyW)
	assert.True(t, snap.AnyPressed([]common.KeyCode{common.KeyS, common.KeyW}))
	assert.False(t, k.Snapshot().AnyPressed([]common.KeyCode{common.KeyW}))

	k.KeyDown(common.KeyD)
	k.Reset()
	assert.False(t, k.IsPressed(common.KeyD))
}

func TestKeyboardConcurrentWriters(t *testing.T) {
	k := NewKeyboard()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(key common.KeyCode) {
			defer wg.Done()
			for range 100 {
				k.KeyDown(key)
				_ = k.Snapshot()
				k.KeyUp(key)
			}
			k.KeyDown(key)
		}(common.KeyCode(common.Key0 + i))
	}
	wg.Wait()
	assert.Len(t, k.Snapshot(), 8)
}

func TestButtonAxisInputAdvance(t *testing.T) {
	in := NewButtonAxisInput()
	assert.Equal(t, float32(1), in.advance(0, true, 0.1))
	assert.Equal(t, float32(0), in.advance(1, false, 0.1))

	id := common.NewNodeID()
	in.SceneChangeEvent(change.NewNodeCreated(id, TypeButtonAxisInput, map[string]any{
		"acceleration": 2,
		"deceleration": 4,
		"buttons":      []int{common.KeyUp},
		"scale":        -1,
	}))
	assert.Equal(t, []common.KeyCode{common.KeyUp}, in.Buttons())
	assert.Equal(t, float32(-1), in.Scale())
	assert.Equal(t, float32(0.5), in.advance(0.25, true, 0.125))
	assert.Equal(t, float32(1), in.advance(0.9, true, 0.5))
	assert.Equal(t, float32(0.5), in.advance(1, false, 0.125))
	assert.Equal(t, float32(0), in.advance(0.1, false, 0.5))
}

type postbox struct {
	mu      sync.Mutex
	records []*change.Record
}

func (p *postbox) SceneChangeEvent(r *change.Record) {
	p.mu.Lock()
	p.records = append(p.records, r)
	p.mu.Unlock()
}

func (p *postbox) values(subject common.NodeID, name string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, r := range p.records {
		if r.Subject() == subject && r.PropertyName() == name {
			out = append(out, r.Value())
		}
	}
	return out
}

type fixture struct {
	t    *testing.T
	jm   jobs.JobManager
	arb  arbiter.Arbiter
	a    Aspect
	sent *postbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jm := jobs.NewJobManager(jobs.WithWorkerCount(2))
	t.Cleanup(jm.Close)
	sent := &postbox{}
	arb := arbiter.NewArbiter(arbiter.WithJobManager(jm), arbiter.WithPostman(sent))
	t.Cleanup(arb.Close)
	a := NewAspect(arb, WithNotifier(arb))
	arb.RegisterSceneObserver(a)
	return &fixture{t: t, jm: jm, arb: arb, a: a, sent: sent}
}

func (f *fixture) create(nodeType string, data map[string]any) common.NodeID {
	id := common.NewNodeID()
	f.arb.NotifyChangeWithLock(change.NewNodeCreated(id, nodeType, data))
	return id
}

func (f *fixture) frame(dt float64) {
	f.t.Helper()
	require.NoError(f.t, f.jm.Run(f.a.Jobs(dt)...))
	f.arb.SyncChanges()
}

func TestAxisFollowsButtons(t *testing.T) {
	f := newFixture(t)
	forward := f.create(TypeButtonAxisInput, map[string]any{"buttons": []common.KeyCode{common.KeyW}})
	back := f.create(TypeButtonAxisInput, map[string]any{"buttons": []common.KeyCode{common.KeyS}, "scale": -1})
	axis := f.create(TypeAxis, map[string]any{"inputs": []common.NodeID{forward, back}})
	f.arb.SyncChanges()
	assert.Equal(t, 3, f.a.NodeCount())

	kb := f.a.Keyboard()
	kb.KeyDown(common.KeyW)
	f.frame(0.016)
	kb.KeyDown(common.KeyS)
	f.frame(0.016)
	kb.KeyUp(common.KeyW)
	f.frame(0.016)
	f.frame(0.016)

	assert.Equal(t, []any{float32(1), float32(0), float32(-1)}, f.sent.values(axis, "value"))
	ax, _ := f.a.Axes().Lookup(axis)
	assert.Equal(t, float32(-1), ax.Value())
}

func TestAxisClampsSummedInputs(t *testing.T) {
	f := newFixture(t)
	a := f.create(TypeButtonAxisInput, map[string]any{"buttons": []int{common.KeyUp}, "scale": 0.75})
	b := f.create(TypeButtonAxisInput, map[string]any{"buttons": []int{common.KeyUp}, "scale": 0.75})
	axis := f.create(TypeAxis, map[string]any{"inputs": []common.NodeID{a}})
	f.arb.SyncChanges()
	f.arb.NotifyChangeWithLock(change.NewPropertyAdded(axis, "inputs", b))
	f.arb.SyncChanges()

	f.a.Keyboard().KeyDown(common.KeyUp)
	f.frame(0.016)
	ax, _ := f.a.Axes().Lookup(axis)
	assert.Equal(t, float32(1), ax.Value())

	f.arb.NotifyChangeWithLock(change.NewPropertyUpdate(b, "enabled", false))
	f.arb.SyncChanges()
	f.frame(0.016)
	assert.Equal(t, float32(0.75), ax.Value())
}

func TestAcceleratedAxis(t *testing.T) {
	f := newFixture(t)
	in := f.create(TypeButtonAxisInput, map[string]any{"buttons": []int{common.KeyD}, "acceleration": 4})
	axis := f.create(TypeAxis, map[string]any{"inputs": []common.NodeID{in}})
	f.arb.SyncChanges()

	f.a.Keyboard().KeyDown(common.KeyD)
	f.frame(0.125)
	ax, _ := f.a.Axes().Lookup(axis)
	assert.Equal(t, float32(0.5), ax.Value())
	f.frame(0.125)
	assert.Equal(t, float32(1), ax.Value())
}

func TestActionActivation(t *testing.T) {
	f := newFixture(t)
	jump := f.create(TypeActionInput, map[string]any{"buttons": []int{common.KeySpace}})
	action := f.create(TypeAction, map[string]any{"inputs": []common.NodeID{jump}})
	f.arb.SyncChanges()

	kb := f.a.Keyboard()
	f.frame(0.016)
	kb.KeyDown(common.KeySpace)
	f.frame(0.016)
	f.frame(0.016)
	kb.KeyUp(common.KeySpace)
	f.frame(0.016)

	assert.Equal(t, []any{true, false}, f.sent.values(action, "active"))
	ac, _ := f.a.Actions().Lookup(action)
	assert.False(t, ac.IsActive())

	f.arb.NotifyChangeWithLock(change.NewPropertyRemoved(action, "inputs", jump))
	f.arb.SyncChanges()
	assert.Empty(t, ac.Inputs())
}

func TestDisabledNodesProduceNoJobs(t *testing.T) {
	f := newFixture(t)
	f.create(TypeAxis, map[string]any{"enabled": false})
	f.create(TypeAction, nil)
	f.arb.SyncChanges()
	assert.Len(t, f.a.Jobs(0.016), 1)
}

func TestAspectReleasesDeletedNodes(t *testing.T) {
	f := newFixture(t)
	axis := f.create(TypeAxis, nil)
	f.arb.SyncChanges()
	f.arb.NotifyNodeDestruction(-1, axis)
	f.arb.SyncChanges()
	assert.Equal(t, 0, f.a.NodeCount())
	assert.Equal(t, 0, f.arb.ObserverCount(axis))
}

func TestSharedKeyboard(t *testing.T) {
	kb := NewKeyboard()
	a := NewAspect(arbiter.NewArbiter(), WithKeyboard(kb))
	assert.Same(t, kb, a.Keyboard())
	assert.Panics(t, func() { NewAspect(nil) })
}
