package backend

import (
	"slices"

	"github.com/Carmen-Shannon/oxy3d/common"
)

// Handle addresses a slot in a Manager. A handle stays valid until its node is released;
// afterwards the slot's generation moves on and the stale handle resolves to nothing.
type Handle struct {
	index      uint32
	generation uint32
}

// IsNull reports whether h was never assigned.
func (h Handle) IsNull() bool { return h.generation == 0 }

type slot[T Node] struct {
	node       T
	generation uint32
	live       bool
}

// Manager is the registry of one backend node kind: at most one node per identity, created
// lazily and released on deletion. It is not safe for concurrent structural mutation;
// create and release only while change records are being distributed.
type Manager[T Node] struct {
	factory func() T
	slots   []slot[T]
	free    []uint32
	handles map[common.NodeID]Handle
	order   []common.NodeID
}

// NewManager creates a Manager that builds new nodes with factory.
//
// Parameters:
//   - factory: returns a fresh, zero-state node of the managed kind
//
// Returns:
//   - *Manager[T]: the empty registry
func NewManager[T Node](factory func() T) *Manager[T] {
	if factory == nil {
		panic("backend: NewManager requires a node factory")
	}
	return &Manager[T]{
		factory: factory,
		handles: make(map[common.NodeID]Handle),
	}
}

// GetOrCreate returns the node for id, creating and binding it to id when none is live.
// A second call for a live id returns the same instance.
//
// Parameters:
//   - id: the frontend node identity
//
// Returns:
//   - T: the node
//   - bool: true when the node was created by this call
func (m *Manager[T]) GetOrCreate(id common.NodeID) (T, bool) {
	if h, ok := m.handles[id]; ok {
		return m.slots[h.index].node, false
	}

	node := m.factory()
	node.SetPeerID(id)

	var h Handle
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		s := &m.slots[idx]
		s.node = node
		s.live = true
		h = Handle{index: idx, generation: s.generation}
	} else {
		m.slots = append(m.slots, slot[T]{node: node, generation: 1, live: true})
		h = Handle{index: uint32(len(m.slots) - 1), generation: 1}
	}
	m.handles[id] = h
	m.order = append(m.order, id)
	return node, true
}

// Lookup returns the live node for id.
//
// Parameters:
//   - id: the frontend node identity
//
// Returns:
//   - T: the node, or the zero value
//   - bool: false when no node is live for id
func (m *Manager[T]) Lookup(id common.NodeID) (T, bool) {
	h, ok := m.handles[id]
	if !ok {
		var zero T
		return zero, false
	}
	return m.slots[h.index].node, true
}

// LookupHandle returns the handle of the live node for id.
func (m *Manager[T]) LookupHandle(id common.NodeID) (Handle, bool) {
	h, ok := m.handles[id]
	return h, ok
}

// Data resolves a handle. Stale handles, from released nodes, resolve to false.
func (m *Manager[T]) Data(h Handle) (T, bool) {
	var zero T
	if h.IsNull() || int(h.index) >= len(m.slots) {
		return zero, false
	}
	s := &m.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}
	return s.node, true
}

// Release cleans up and forgets the node for id. Every outstanding handle to it becomes
// stale. Releasing an unknown id does nothing.
//
// Parameters:
//   - id: the frontend node identity
//
// Returns:
//   - bool: true when a node was released
func (m *Manager[T]) Release(id common.NodeID) bool {
	h, ok := m.handles[id]
	if !ok {
		return false
	}
	s := &m.slots[h.index]
	s.node.Cleanup()

	var zero T
	s.node = zero
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	m.free = append(m.free, h.index)
	delete(m.handles, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return true
}

// Count returns the number of live nodes.
func (m *Manager[T]) Count() int { return len(m.handles) }

// IDs returns the identities of the live nodes in creation order.
func (m *Manager[T]) IDs() []common.NodeID { return slices.Clone(m.order) }

// ForEach calls fn for every live node in creation order. fn must not create or release nodes.
func (m *Manager[T]) ForEach(fn func(id common.NodeID, node T)) {
	for _, id := range m.order {
		h := m.handles[id]
		fn(id, m.slots[h.index].node)
	}
}
