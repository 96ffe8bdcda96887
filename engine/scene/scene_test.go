package scene

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	records []*change.Record
}

func (n *recordingNotifier) NotifyChange(_ int, r *change.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, r)
}

func (n *recordingNotifier) NotifyNodeDestruction(workerID int, id common.NodeID) {
	n.NotifyChange(workerID, change.NewNodeAboutToBeDeleted(id))
	n.NotifyChange(workerID, change.NewNodeDeleted(id))
}

func (n *recordingNotifier) kinds() []change.Flag {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]change.Flag, len(n.records))
	for i, r := range n.records {
		out[i] = r.Kind()
	}
	return out
}

func TestAddPublishesCreationWithSnapshot(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewScene("main", notifier, WithActive(true))
	assert.True(t, s.Active())
	assert.Equal(t, "main", s.Name())

	layer := common.NewNodeID()
	n := NewPropertyNode("Entity", WithProperty("material", common.NewNodeID()), WithRefs("layers", layer))
	s.Add(n, n)

	require.Len(t, notifier.records, 1)
	r := notifier.records[0]
	assert.Equal(t, change.NodeCreated, r.Kind())
	assert.Equal(t, "Entity", r.NodeType())
	assert.Equal(t, n.ID(), r.Subject())

	data := r.CreationData().(map[string]any)
	assert.Equal(t, true, data["enabled"])
	assert.Equal(t, []common.NodeID{layer}, data["layers"])

	// The snapshot is a copy.
	n.AddRef("layers", common.NewNodeID())
	assert.Equal(t, []common.NodeID{layer}, data["layers"])
}

func TestAttachedNodePublishesMutations(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewScene("main", notifier)
	n := NewPropertyNode("Layer")
	n.Set("detached", 1)
	s.Add(n)

	ref := common.NewNodeID()
	n.Set("value", 2)
	n.SetEnabled(false)
	n.AddRef("children", ref)
	n.AddRef("children", ref)
	n.RemoveRef("children", ref)
	n.RemoveRef("children", ref)

	assert.Equal(t, []change.Flag{
		change.NodeCreated,
		change.NodeUpdated,
		change.NodeUpdated,
		change.NodeAdded,
		change.NodeRemoved,
	}, notifier.kinds())
	assert.Empty(t, n.Refs("children"))

	v, ok := n.Property("enabled")
	require.True(t, ok)
	assert.Equal(t, false, v)
}

func TestRemovePublishesDestructionInOrder(t *testing.T) {
	notifier := &recordingNotifier{}
	n := NewPropertyNode("Entity")
	s := NewScene("main", notifier, WithNodes(n))
	assert.Equal(t, 1, s.Count())

	assert.True(t, s.Remove(n.ID()))
	assert.False(t, s.Remove(n.ID()))
	assert.Equal(t, []change.Flag{change.NodeCreated, change.NodeAboutToBeDeleted, change.NodeDeleted}, notifier.kinds())

	// A removed node no longer publishes.
	n.Set("value", 1)
	assert.Len(t, notifier.records, 3)
	_, ok := s.Lookup(n.ID())
	assert.False(t, ok)
}

func TestNodesAndClear(t *testing.T) {
	notifier := &recordingNotifier{}
	a, b, c := NewPropertyNode("A"), NewPropertyNode("B"), NewPropertyNode("C")
	s := NewScene("main", notifier, WithNodes(a, b, c), WithWorkerID(3))

	nodes := s.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, []common.NodeID{a.ID(), b.ID(), c.ID()}, []common.NodeID{nodes[0].ID(), nodes[1].ID(), nodes[2].ID()})

	notifier.records = nil
	s.Clear()
	assert.Equal(t, 0, s.Count())
	require.Len(t, notifier.records, 6)
	assert.Equal(t, c.ID(), notifier.records[0].Subject())
	assert.Equal(t, a.ID(), notifier.records[5].Subject())
}

func TestApplyBackendChangeDoesNotRepublish(t *testing.T) {
	notifier := &recordingNotifier{}
	var seen []string
	n := NewPropertyNode("Axis", WithBackendChangeHandler(func(r *change.Record) {
		seen = append(seen, r.PropertyName())
	}))
	s := NewScene("main", notifier)
	s.Add(n)

	n.ApplyBackendChange(change.NewBackendPropertyChange(n.ID(), "value", float32(0.5)))
	n.ApplyBackendChange(change.NewNodeDeleted(n.ID()))
	n.ApplyBackendChange(nil)

	v, _ := n.Property("value")
	assert.Equal(t, float32(0.5), v)
	assert.Equal(t, []string{"value"}, seen)
	assert.Len(t, notifier.records, 1)
}

func TestNewSceneRequiresNotifier(t *testing.T) {
	assert.PanicsWithValue(t, "scene: NewScene requires a non-nil Notifier", func() {
		NewScene("main", nil)
	})
}
