package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// NodeBuilderOption is a functional option for configuring a PropertyNode.
type NodeBuilderOption func(n *PropertyNode)

// WithProperty sets an initial property. Initial properties travel in the creation data.
//
// Parameters:
//   - name: the property name
//   - value: the initial value
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithProperty(name string, value any) NodeBuilderOption {
	return func(n *PropertyNode) {
		n.properties[name] = value
	}
}

// WithRefs sets an initial list of node references.
func WithRefs(name string, refs ...common.NodeID) NodeBuilderOption {
	return func(n *PropertyNode) {
		n.properties[name] = slices.Clone(refs)
	}
}

// WithID overrides the generated identity. Intended for tests and for restoring nodes.
func WithID(id common.NodeID) NodeBuilderOption {
	return func(n *PropertyNode) {
		n.id = id
	}
}

// WithBackendChangeHandler sets a callback run after each backend change is applied.
//
// Parameters:
//   - fn: the callback, invoked on the goroutine flushing the postman
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithBackendChangeHandler(fn func(r *change.Record)) NodeBuilderOption {
	return func(n *PropertyNode) {
		n.onBackend = fn
	}
}
