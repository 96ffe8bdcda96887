package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Notifier is the part of the change arbiter a frontend scene talks to.
type Notifier interface {
	change.Notifier

	// NotifyNodeDestruction enqueues the two deletion records of id, in order.
	NotifyNodeDestruction(workerID int, id common.NodeID)
}

// Node is a frontend scene node. Its mutations are published as change records once it
// belongs to a Scene, and backend-originated changes are applied back to it by the postman.
type Node interface {
	// ID returns the node's stable identity.
	ID() common.NodeID

	// NodeType returns the type name backend aspects use to pick a mirror kind.
	NodeType() string

	// CreationData returns the snapshot sent with the node's NodeCreated record.
	CreationData() any

	// Attach starts publishing changes through notifier. A nil notifier detaches the node.
	Attach(notifier change.Notifier, workerID int)

	// ApplyBackendChange applies a backend-originated change without publishing it again.
	ApplyBackendChange(r *change.Record)
}

// PropertyNode is a frontend node holding named properties. Scalars, vectors, matrices and
// node references are stored by Set; list references (for example components or layers)
// are kept as []common.NodeID and changed with AddRef and RemoveRef.
// Thread-safe for concurrent access.
type PropertyNode struct {
	mu         sync.RWMutex
	id         common.NodeID
	nodeType   string
	properties map[string]any
	notifier   change.Notifier
	workerID   int
	onBackend  func(r *change.Record)
}

var _ Node = &PropertyNode{}

// NewPropertyNode creates a detached frontend node with a fresh identity.
//
// Parameters:
//   - nodeType: the node type name, for example "Entity" or "GeometryRenderer"
//   - options: functional options setting initial properties
//
// Returns:
//   - *PropertyNode: the new node
func NewPropertyNode(nodeType string, options ...NodeBuilderOption) *PropertyNode {
	n := &PropertyNode{
		id:         common.NewNodeID(),
		nodeType:   nodeType,
		properties: map[string]any{"enabled": true},
		workerID:   -1,
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *PropertyNode) ID() common.NodeID { return n.id }

func (n *PropertyNode) NodeType() string { return n.nodeType }

// CreationData returns a copy of the node's properties as a map[string]any.
func (n *PropertyNode) CreationData() any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]any, len(n.properties))
	for k, v := range n.properties {
		if refs, ok := v.([]common.NodeID); ok {
			v = slices.Clone(refs)
		}
		out[k] = v
	}
	return out
}

func (n *PropertyNode) Attach(notifier change.Notifier, workerID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifier = notifier
	n.workerID = workerID
}

// Property returns the current value of name.
func (n *PropertyNode) Property(name string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.properties[name]
	return v, ok
}

// Refs returns the node references stored in the list property name.
func (n *PropertyNode) Refs(name string) []common.NodeID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	refs, _ := n.properties[name].([]common.NodeID)
	return slices.Clone(refs)
}

// Set stores value under name and publishes a NodeUpdated record when attached.
//
// Parameters:
//   - name: the property name
//   - value: the new value
func (n *PropertyNode) Set(name string, value any) {
	n.mu.Lock()
	n.properties[name] = value
	notifier, workerID := n.notifier, n.workerID
	n.mu.Unlock()

	if notifier != nil {
		notifier.NotifyChange(workerID, change.NewPropertyUpdate(n.id, name, value))
	}
}

// SetEnabled is Set("enabled", enabled).
func (n *PropertyNode) SetEnabled(enabled bool) { n.Set("enabled", enabled) }

// AddRef appends ref to the list property name and publishes a NodeAdded record.
// Adding a reference that is already present does nothing.
func (n *PropertyNode) AddRef(name string, ref common.NodeID) {
	n.mu.Lock()
	refs, _ := n.properties[name].([]common.NodeID)
	if slices.Contains(refs, ref) {
		n.mu.Unlock()
		return
	}
	n.properties[name] = append(slices.Clone(refs), ref)
	notifier, workerID := n.notifier, n.workerID
	n.mu.Unlock()

	if notifier != nil {
		notifier.NotifyChange(workerID, change.NewPropertyAdded(n.id, name, ref))
	}
}

// RemoveRef removes ref from the list property name and publishes a NodeRemoved record.
func (n *PropertyNode) RemoveRef(name string, ref common.NodeID) {
	n.mu.Lock()
	refs, _ := n.properties[name].([]common.NodeID)
	i := slices.Index(refs, ref)
	if i < 0 {
		n.mu.Unlock()
		return
	}
	n.properties[name] = slices.Delete(slices.Clone(refs), i, i+1)
	notifier, workerID := n.notifier, n.workerID
	n.mu.Unlock()

	if notifier != nil {
		notifier.NotifyChange(workerID, change.NewPropertyRemoved(n.id, name, ref))
	}
}

// ApplyBackendChange stores the record's property without publishing and then calls the
// callback set with WithBackendChangeHandler, if any.
func (n *PropertyNode) ApplyBackendChange(r *change.Record) {
	if r == nil || r.Kind() != change.NodeUpdated {
		return
	}
	n.mu.Lock()
	n.properties[r.PropertyName()] = r.Value()
	cb := n.onBackend
	n.mu.Unlock()

	if cb != nil {
		cb(r)
	}
}
