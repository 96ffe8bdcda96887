package render

import (
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// propertySetter is implemented by every render node kind: one property at a time, whether it
// comes from creation data or from an update.
type propertySetter interface {
	setProperty(name string, v any)
}

// refSetter is implemented by kinds with list properties.
type refSetter interface {
	addRef(name string, r *change.Record)
	removeRef(name string, r *change.Record)
}

// applyChange replays r onto a node.
func applyChange(base *backend.BaseNode, n propertySetter, r *change.Record) {
	if backend.ApplyProperties(base, r, n.setProperty) {
		return
	}
	rs, ok := n.(refSetter)
	if !ok {
		return
	}
	switch r.Kind() {
	case change.NodeAdded:
		rs.addRef(r.PropertyName(), r)
	case change.NodeRemoved:
		rs.removeRef(r.PropertyName(), r)
	}
}

// applyRef updates the list named name in lists with the reference carried by r.
func applyRef(lists map[string]*refList, name string, r *change.Record, add bool) {
	l, ok := lists[name]
	if !ok {
		return
	}
	id, ok := r.ReferencedID()
	if !ok {
		return
	}
	if add {
		l.add(id)
	} else {
		l.remove(id)
	}
}
