package render

import "github.com/Carmen-Shannon/oxy3d/common"

func asWorkGroups(v any) ([3]int, bool) {
	switch x := v.(type) {
	case [3]int:
		return x, true
	case [3]uint32:
		return [3]int{int(x[0]), int(x[1]), int(x[2])}, true
	}
	return [3]int{}, false
}

// refList is an ordered set of node references backing list properties.
type refList []common.NodeID

func (l *refList) add(id common.NodeID) {
	for _, have := range *l {
		if have == id {
			return
		}
	}
	*l = append(*l, id)
}

func (l *refList) remove(id common.NodeID) {
	for i, have := range *l {
		if have == id {
			*l = append((*l)[:i:i], (*l)[i+1:]...)
			return
		}
	}
}

func (l *refList) set(ids []common.NodeID) {
	*l = append(refList(nil), ids...)
}
