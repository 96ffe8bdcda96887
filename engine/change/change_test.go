package change

import (
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/stretchr/testify/assert"
)

func TestRecordConstructors(t *testing.T) {
	id := common.NewNodeID()

	created := NewNodeCreated(id, "Entity", map[string]any{"enabled": true})
	assert.Equal(t, NodeCreated, created.Kind())
	assert.Equal(t, Node, created.ObservableKind())
	assert.Equal(t, "Entity", created.NodeType())
	assert.Equal(t, id, created.Subject())
	assert.Equal(t, id, created.TargetNode())
	assert.NotNil(t, created.CreationData())

	upd := NewPropertyUpdate(id, "instanceCount", 4)
	assert.Equal(t, NodeUpdated, upd.Kind())
	assert.Equal(t, "instanceCount", upd.PropertyName())
	assert.Equal(t, 4, upd.Value())
	assert.Equal(t, Standard, upd.Priority())

	ref := common.NewNodeID()
	added := NewPropertyAdded(id, "layer", ref)
	got, ok := added.ReferencedID()
	assert.True(t, ok)
	assert.Equal(t, ref, got)

	_, ok = upd.ReferencedID()
	assert.False(t, ok)

	backend := NewBackendPropertyChange(id, "value", float32(0.5))
	assert.Equal(t, Observable, backend.ObservableKind())
	assert.Equal(t, id, backend.TargetNode())

	target := common.NewNodeID()
	forTarget := NewBackendPropertyChangeForTarget(id, target, "translation", 1)
	assert.Equal(t, id, forTarget.Subject())
	assert.Equal(t, target, forTarget.TargetNode())

	high := NewPropertyUpdateWithPriority(id, "x", 1, High)
	assert.Equal(t, High, high.Priority())
}

func TestRecordMatches(t *testing.T) {
	id := common.NewNodeID()
	r := NewNodeDeleted(id)

	assert.True(t, r.Matches(AllChanges))
	assert.True(t, r.Matches(NodeDeleted|NodeCreated))
	assert.False(t, r.Matches(NodeUpdated))
	assert.False(t, r.Matches(0))
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "NodeCreated", NodeCreated.String())
	assert.Equal(t, "NodeUpdated|NodeAdded", (NodeUpdated | NodeAdded).String())
	assert.Equal(t, "AllChanges", AllChanges.String())
	assert.Equal(t, "None", Flag(0).String())

	assert.True(t, NodeAboutToBeDeleted.Structural())
	assert.False(t, NodeUpdated.Structural())
}
