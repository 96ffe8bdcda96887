// Package change defines the immutable change records exchanged between frontend
// scene nodes, the change arbiter and backend observers.
package change

import (
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy3d/common"
)

// Flag identifies the kind of a change record. Flags are bits so observers can register
// for several kinds with a single mask.
type Flag uint32

const (
	// NodeCreated is emitted once when a frontend node becomes part of the scene.
	NodeCreated Flag = 1 << iota
	// NodeAboutToBeDeleted precedes NodeDeleted; observers evict derived caches on it.
	NodeAboutToBeDeleted
	// NodeDeleted is emitted when the node is destroyed. Backend mirrors are released on it.
	NodeDeleted
	// NodeUpdated carries a property-name/value pair.
	NodeUpdated
	// NodeAdded carries a node reference appended to a list property.
	NodeAdded
	// NodeRemoved carries a node reference removed from a list property.
	NodeRemoved

	// AllChanges matches every kind.
	AllChanges Flag = 0xFFFFFFFF
)

func (f Flag) String() string {
	if f == AllChanges {
		return "AllChanges"
	}
	names := []struct {
		flag Flag
		name string
	}{
		{NodeCreated, "NodeCreated"},
		{NodeAboutToBeDeleted, "NodeAboutToBeDeleted"},
		{NodeDeleted, "NodeDeleted"},
		{NodeUpdated, "NodeUpdated"},
		{NodeAdded, "NodeAdded"},
		{NodeRemoved, "NodeRemoved"},
	}
	var parts []string
	for _, n := range names {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

// Structural reports whether f is one of the scene-structure kinds (creation or deletion).
func (f Flag) Structural() bool {
	return f&(NodeCreated|NodeAboutToBeDeleted|NodeDeleted) != 0
}

// ObservableKind tells which side of the frontend/backend split produced a record.
type ObservableKind uint8

const (
	// Node records originate from frontend nodes and flow to backend observers.
	Node ObservableKind = iota
	// Observable records originate from backend nodes. After backend observers have run they
	// are forwarded to the postman, which reflects them onto the frontend.
	Observable
)

func (k ObservableKind) String() string {
	if k == Observable {
		return "Observable"
	}
	return "Node"
}

// Priority is carried with each record for consumers that want it. The arbiter never
// reorders records by priority.
type Priority int8

const (
	High Priority = iota
	Standard
	Low
)

// Record describes one mutation of one node. A Record is immutable once constructed and is
// shared by pointer between all observers that receive it.
type Record struct {
	kind       Flag
	observable ObservableKind
	priority   Priority
	subject    common.NodeID
	target     common.NodeID
	timestamp  time.Time

	propertyName string
	value        any

	nodeType     string
	creationData any
}

// Kind returns the record kind (exactly one bit of Flag).
func (r *Record) Kind() Flag { return r.kind }

// ObservableKind returns whether the record was produced by a frontend node or a backend node.
func (r *Record) ObservableKind() ObservableKind { return r.observable }

// Priority returns the priority the producer attached to the record.
func (r *Record) Priority() Priority { return r.priority }

// Subject returns the identity of the node the change is about.
func (r *Record) Subject() common.NodeID { return r.subject }

// TargetNode returns the frontend node a backend-originated change should be applied to.
// For frontend records it equals Subject.
func (r *Record) TargetNode() common.NodeID { return r.target }

// Timestamp returns when the record was constructed.
func (r *Record) Timestamp() time.Time { return r.timestamp }

// PropertyName returns the name of the changed property, or "" for structural records.
func (r *Record) PropertyName() string { return r.propertyName }

// Value returns the property value. For NodeAdded/NodeRemoved it is the referenced common.NodeID.
func (r *Record) Value() any { return r.value }

// NodeType returns the frontend node type name carried by NodeCreated records
// (for example "GeometryRenderer"). Backend aspects use it to pick a node manager.
func (r *Record) NodeType() string { return r.nodeType }

// CreationData returns the initial property snapshot carried by NodeCreated records.
func (r *Record) CreationData() any { return r.creationData }

// Matches reports whether an observer registered with mask should receive r.
func (r *Record) Matches(mask Flag) bool {
	return r.kind&mask != 0
}

// ReferencedID returns the node reference carried by NodeAdded/NodeRemoved records, or a
// property whose value is a node reference.
//
// Returns:
//   - common.NodeID: the referenced id
//   - bool: false when the value is not a node reference
func (r *Record) ReferencedID() (common.NodeID, bool) {
	id, ok := r.value.(common.NodeID)
	return id, ok
}

func newRecord(kind Flag, observable ObservableKind, subject common.NodeID, priority Priority) *Record {
	return &Record{
		kind:       kind,
		observable: observable,
		priority:   priority,
		subject:    subject,
		target:     subject,
		timestamp:  time.Now(),
	}
}

// NewNodeCreated builds the record announcing a new frontend node.
//
// Parameters:
//   - subject: the new node's identity
//   - nodeType: the frontend node type name used by aspects to create backend mirrors
//   - data: initial property snapshot (type defined by the node type), may be nil
//
// Returns:
//   - *Record: the immutable record
func NewNodeCreated(subject common.NodeID, nodeType string, data any) *Record {
	r := newRecord(NodeCreated, Node, subject, Standard)
	r.nodeType = nodeType
	r.creationData = data
	return r
}

// NewNodeAboutToBeDeleted builds the record that precedes a node's deletion.
func NewNodeAboutToBeDeleted(subject common.NodeID) *Record {
	return newRecord(NodeAboutToBeDeleted, Node, subject, Standard)
}

// NewNodeDeleted builds the record announcing a node's deletion.
func NewNodeDeleted(subject common.NodeID) *Record {
	return newRecord(NodeDeleted, Node, subject, Standard)
}

// NewPropertyUpdate builds a frontend property change.
//
// Parameters:
//   - subject: the node whose property changed
//   - name: the property name
//   - value: the new value (scalar, mgl32 vector/matrix, or common.NodeID reference)
//
// Returns:
//   - *Record: the immutable record
func NewPropertyUpdate(subject common.NodeID, name string, value any) *Record {
	r := newRecord(NodeUpdated, Node, subject, Standard)
	r.propertyName = name
	r.value = value
	return r
}

// NewPropertyUpdateWithPriority is NewPropertyUpdate with an explicit priority.
func NewPropertyUpdateWithPriority(subject common.NodeID, name string, value any, priority Priority) *Record {
	r := NewPropertyUpdate(subject, name, value)
	r.priority = priority
	return r
}

// NewPropertyAdded builds the record for a node reference appended to a list property.
func NewPropertyAdded(subject common.NodeID, name string, ref common.NodeID) *Record {
	r := newRecord(NodeAdded, Node, subject, Standard)
	r.propertyName = name
	r.value = ref
	return r
}

// NewPropertyRemoved builds the record for a node reference removed from a list property.
func NewPropertyRemoved(subject common.NodeID, name string, ref common.NodeID) *Record {
	r := newRecord(NodeRemoved, Node, subject, Standard)
	r.propertyName = name
	r.value = ref
	return r
}

// NewBackendPropertyChange builds a backend-originated property change. The record is of
// Observable kind, so after backend observers have run it is forwarded to the postman and
// applied to the frontend node identified by subject.
//
// Parameters:
//   - subject: the backend node's peer id (also the frontend target)
//   - name: the property name
//   - value: the new value
//
// Returns:
//   - *Record: the immutable record
func NewBackendPropertyChange(subject common.NodeID, name string, value any) *Record {
	r := newRecord(NodeUpdated, Observable, subject, Standard)
	r.propertyName = name
	r.value = value
	return r
}

// NewBackendPropertyChangeForTarget is NewBackendPropertyChange for a frontend target that
// differs from the producing backend node (for example an animator driving another node).
func NewBackendPropertyChangeForTarget(subject, target common.NodeID, name string, value any) *Record {
	r := NewBackendPropertyChange(subject, name, value)
	r.target = target
	return r
}

// Notifier accepts change records from a producer running on the given worker.
// Worker ids outside the managed pool are accepted and take a slower registration path.
type Notifier interface {
	NotifyChange(workerID int, r *Record)
}
