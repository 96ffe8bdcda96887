// Package scene holds the frontend side of the scene: the registry of frontend nodes by
// identity. Adding a node publishes its creation, removing it publishes its destruction,
// and the postman uses Lookup to reflect backend changes onto the right node.
package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Scene manages the frontend nodes of one scene and publishes their lifecycle to the change
// arbiter. Scenes can be hot-swapped via the Active flag.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active.
	Active() bool

	// SetActive sets whether this scene is active.
	SetActive(active bool)

	// Add registers nodes, attaches them to the scene's notifier and publishes a NodeCreated
	// record for each, in argument order. Nodes already in the scene are skipped.
	//
	// Parameters:
	//   - nodes: the frontend nodes to add
	Add(nodes ...Node)

	// Remove detaches the node and publishes NodeAboutToBeDeleted then NodeDeleted.
	//
	// Parameters:
	//   - id: the node identity
	//
	// Returns:
	//   - bool: false when the scene has no node with that identity
	Remove(id common.NodeID) bool

	// Lookup returns the frontend node for id.
	//
	// Parameters:
	//   - id: the node identity
	//
	// Returns:
	//   - Node: the node, or nil
	//   - bool: false when not found
	Lookup(id common.NodeID) (Node, bool)

	// Count returns the number of nodes in the scene.
	Count() int

	// Nodes returns the scene's nodes in the order they were added.
	Nodes() []Node

	// Clear removes every node, publishing their destruction in reverse insertion order.
	Clear()
}

type scene struct {
	mu       *sync.RWMutex
	name     string
	active   bool
	notifier Notifier
	workerID int
	registry map[common.NodeID]Node
	order    []common.NodeID
	initial  []Node
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a Scene publishing to notifier. Panics if notifier is nil.
//
// Parameters:
//   - name: the name of the scene
//   - notifier: the change arbiter (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, notifier Notifier, options ...SceneBuilderOption) Scene {
	if notifier == nil {
		panic("scene: NewScene requires a non-nil Notifier")
	}
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		notifier: notifier,
		workerID: -1,
		registry: make(map[common.NodeID]Node),
	}
	for _, option := range options {
		option(s)
	}
	s.Add(s.initial...)
	s.initial = nil
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Add(nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		s.mu.Lock()
		if _, exists := s.registry[n.ID()]; exists {
			s.mu.Unlock()
			continue
		}
		s.registry[n.ID()] = n
		s.order = append(s.order, n.ID())
		s.mu.Unlock()

		// Creation goes out before the node is attached, so no update can overtake it.
		s.notifier.NotifyChange(s.workerID, change.NewNodeCreated(n.ID(), n.NodeType(), n.CreationData()))
		n.Attach(s.notifier, s.workerID)
	}
}

func (s *scene) Remove(id common.NodeID) bool {
	s.mu.Lock()
	n, ok := s.registry[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.registry, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.mu.Unlock()

	n.Attach(nil, s.workerID)
	s.notifier.NotifyNodeDestruction(s.workerID, id)
	return true
}

func (s *scene) Lookup(id common.NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.registry[id]
	return n, ok
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.registry[id])
	}
	return out
}

func (s *scene) Clear() {
	s.mu.RLock()
	ids := slices.Clone(s.order)
	s.mu.RUnlock()

	for i := len(ids) - 1; i >= 0; i-- {
		s.Remove(ids[i])
	}
	common.Logger().Debug("scene: cleared", "scene", s.Name(), "nodes", len(ids))
}
