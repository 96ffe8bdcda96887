package backend

import (
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// ApplyProperties replays a NodeCreated or NodeUpdated record through set, one property at
// a time. Creation data is a map[string]any of initial properties, applied in key order; its
// "enabled" key and "enabled" updates go to base instead of set. A NodeCreated record also
// enables the node.
//
// Parameters:
//   - base: the node's embedded BaseNode
//   - r: the record to replay
//   - set: applies one named property to the node
//
// Returns:
//   - bool: true when r was a creation or update record
func ApplyProperties(base *BaseNode, r *change.Record, set func(name string, v any)) bool {
	switch r.Kind() {
	case change.NodeCreated:
		base.SetEnabled(true)
		data, ok := r.CreationData().(map[string]any)
		if !ok {
			return true
		}
		for _, k := range slices.Sorted(maps.Keys(data)) {
			if k == "enabled" {
				if v, ok := AsBool(data[k]); ok {
					base.SetEnabled(v)
				}
				continue
			}
			set(k, data[k])
		}
		return true
	case change.NodeUpdated:
		if !base.HandleEnabled(r) {
			set(r.PropertyName(), r.Value())
		}
		return true
	}
	return false
}
