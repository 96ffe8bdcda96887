// Package backend provides the base for backend nodes, the caches that mirror frontend
// scene nodes by replaying their change records, and the per-kind registry that owns them.
package backend

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Mode tells whether a backend node only consumes changes or may also produce them.
type Mode uint8

const (
	// ReadOnly nodes only mirror their frontend peer.
	ReadOnly Mode = iota
	// ReadWrite nodes may send backend property changes back to the frontend.
	ReadWrite
)

// Node is the behaviour shared by every backend node kind.
type Node interface {
	// PeerID returns the identity of the frontend node this node mirrors.
	PeerID() common.NodeID

	// SetPeerID binds the node to its frontend peer.
	SetPeerID(id common.NodeID)

	// IsEnabled reports whether the frontend node is enabled.
	IsEnabled() bool

	// SetEnabled sets the mirrored enabled flag.
	SetEnabled(enabled bool)

	// Mode returns whether the node can produce backend changes.
	Mode() Mode

	// SceneChangeEvent applies one change record of the peer to the node.
	SceneChangeEvent(r *change.Record)

	// Cleanup resets the node before the registry releases it.
	Cleanup()
}

// BaseNode implements the identity, enabled flag and backend-to-frontend notification parts
// of Node. Concrete kinds embed it and implement SceneChangeEvent.
type BaseNode struct {
	peerID   common.NodeID
	enabled  bool
	mode     Mode
	notifier change.Notifier
}

// NewBaseNode returns a BaseNode with the given mode.
func NewBaseNode(mode Mode) BaseNode {
	return BaseNode{mode: mode}
}

// PeerID returns the identity of the mirrored frontend node.
func (n *BaseNode) PeerID() common.NodeID { return n.peerID }

// SetPeerID binds the node to its frontend peer.
func (n *BaseNode) SetPeerID(id common.NodeID) { n.peerID = id }

// IsEnabled reports whether the node is enabled.
func (n *BaseNode) IsEnabled() bool { return n.enabled }

// SetEnabled sets the enabled flag.
func (n *BaseNode) SetEnabled(enabled bool) { n.enabled = enabled }

// Mode returns the node's mode.
func (n *BaseNode) Mode() Mode { return n.mode }

// SetMode changes the node's mode.
func (n *BaseNode) SetMode(mode Mode) { n.mode = mode }

// SetNotifier sets where NotifyObservers sends backend changes, usually the change arbiter.
func (n *BaseNode) SetNotifier(notifier change.Notifier) { n.notifier = notifier }

// NotifyObservers sends a backend-originated record through the notifier. Records from
// ReadOnly nodes, or from nodes with no notifier, are dropped.
//
// Parameters:
//   - workerID: the worker producing the change, or -1 outside the job system
//   - r: the record, normally built with change.NewBackendPropertyChange
func (n *BaseNode) NotifyObservers(workerID int, r *change.Record) {
	if n.mode != ReadWrite || n.notifier == nil || r == nil {
		common.Logger().Debug("backend: dropped notification from node that cannot notify",
			"peer", n.peerID, "mode", n.mode)
		return
	}
	n.notifier.NotifyChange(workerID, r)
}

// HandleEnabled applies an "enabled" property update and reports whether r was one.
// Concrete kinds call it first in their SceneChangeEvent.
func (n *BaseNode) HandleEnabled(r *change.Record) bool {
	if r.Kind() != change.NodeUpdated || r.PropertyName() != "enabled" {
		return false
	}
	if v, ok := r.Value().(bool); ok {
		n.enabled = v
	}
	return true
}

// Cleanup resets the base state. Kinds that override it must call it.
func (n *BaseNode) Cleanup() {
	n.enabled = false
	n.notifier = nil
}
