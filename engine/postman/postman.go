// Package postman reflects backend-originated changes onto frontend nodes.
package postman

import (
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/scene"
)

// Postman receives Observable records from the arbiter during change distribution and
// delivers them to the target frontend nodes when Flush is called on the frontend side.
type Postman interface {
	// SceneChangeEvent queues a backend-originated record. Called by the arbiter.
	SceneChangeEvent(r *change.Record)

	// SetScene sets the scene whose nodes receive the records.
	SetScene(s scene.Scene)

	// Flush delivers every queued record, in arrival order, and returns how many were applied.
	// Records whose target is not in the scene are dropped.
	Flush() int

	// Pending returns the number of queued records.
	Pending() int

	// NotifyBackend publishes a frontend-originated record from outside the job system.
	NotifyBackend(r *change.Record)
}

// Backend is where NotifyBackend sends records, usually the arbiter.
type Backend interface {
	NotifyChangeWithLock(r *change.Record)
}

type postman struct {
	mu      sync.Mutex
	scene   scene.Scene
	backend Backend
	pending []*change.Record
}

var _ Postman = &postman{}

// NewPostman creates a Postman.
//
// Parameters:
//   - options: functional options (scene, backend)
//
// Returns:
//   - Postman: the new postman
func NewPostman(options ...PostmanBuilderOption) Postman {
	p := &postman{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *postman) SceneChangeEvent(r *change.Record) {
	if r == nil || r.ObservableKind() != change.Observable {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, r)
	p.mu.Unlock()
}

func (p *postman) SetScene(s scene.Scene) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scene = s
}

func (p *postman) Flush() int {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	s := p.scene
	p.mu.Unlock()

	if s == nil {
		if len(batch) > 0 {
			common.Logger().Debug("postman: no scene set, dropped backend changes", "count", len(batch))
		}
		return 0
	}

	applied := 0
	for _, r := range batch {
		n, ok := s.Lookup(r.TargetNode())
		if !ok {
			common.Logger().Debug("postman: target node not found", "target", r.TargetNode(), "property", r.PropertyName())
			continue
		}
		n.ApplyBackendChange(r)
		applied++
	}
	return applied
}

func (p *postman) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *postman) NotifyBackend(r *change.Record) {
	p.mu.Lock()
	b := p.backend
	p.mu.Unlock()
	if b == nil || r == nil {
		return
	}
	b.NotifyChangeWithLock(r)
}
