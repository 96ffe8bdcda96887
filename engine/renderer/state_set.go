package renderer

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy3d/engine/render"
)

// StateSet is a value-comparable bundle of GPU state toggles, at most one per kind,
// kept sorted by kind.
type StateSet struct {
	states []render.State
}

// NewStateSet builds a set from states. A later state replaces an earlier one of the same
// kind, and StateNone entries are ignored.
//
// Parameters:
//   - states: the toggles to include
//
// Returns:
//   - StateSet: the normalized set
func NewStateSet(states ...render.State) StateSet {
	var s StateSet
	for _, st := range states {
		s.put(st)
	}
	return s
}

func (s *StateSet) put(st render.State) {
	if st.Kind == render.StateNone {
		return
	}
	i, found := slices.BinarySearchFunc(s.states, st.Kind, func(e render.State, k render.StateKind) int {
		return int(e.Kind) - int(k)
	})
	if found {
		s.states[i] = st
		return
	}
	s.states = slices.Insert(s.states, i, st)
}

// States returns the toggles in kind order. The slice must not be modified.
func (s StateSet) States() []render.State { return s.states }

// Len returns the number of toggles in the set.
func (s StateSet) Len() int { return len(s.states) }

// Get returns the toggle of the given kind.
func (s StateSet) Get(kind render.StateKind) (render.State, bool) {
	for _, st := range s.states {
		if st.Kind == kind {
			return st, true
		}
	}
	return render.State{}, false
}

// Equal reports whether both sets hold the same toggles with the same arguments.
func (s StateSet) Equal(o StateSet) bool {
	return slices.Equal(s.states, o.states)
}

// Translucent reports whether any toggle enables blending.
func (s StateSet) Translucent() bool {
	for _, st := range s.states {
		if st.Kind.Blends() {
			return true
		}
	}
	return false
}

// ChangeCost counts the GPU state transitions needed to go from prev to s: one for every
// kind prev sets that s leaves unset (a reset), and one for every toggle of s that prev
// does not hold with identical arguments.
//
// Parameters:
//   - prev: the state set bound before s
//
// Returns:
//   - int: the number of transitions
func (s StateSet) ChangeCost(prev StateSet) int {
	cost := 0
	for _, st := range prev.states {
		if _, ok := s.Get(st.Kind); !ok {
			cost++
		}
	}
	for _, st := range s.states {
		if p, ok := prev.Get(st.Kind); !ok || p != st {
			cost++
		}
	}
	return cost
}

// With returns a copy of s with st set, replacing any toggle of the same kind.
func (s StateSet) With(st render.State) StateSet {
	out := StateSet{states: slices.Clone(s.states)}
	out.put(st)
	return out
}

// Without returns a copy of s with kind unset.
func (s StateSet) Without(kind render.StateKind) StateSet {
	return StateSet{states: slices.DeleteFunc(slices.Clone(s.states), func(st render.State) bool {
		return st.Kind == kind
	})}
}

// Merge returns s completed with every toggle of defaults whose kind s does not set.
func (s StateSet) Merge(defaults StateSet) StateSet {
	out := StateSet{states: slices.Clone(s.states)}
	for _, st := range defaults.states {
		if _, ok := s.Get(st.Kind); !ok {
			out.put(st)
		}
	}
	return out
}

// Key returns a compact byte string identifying the set; equal sets have equal keys.
func (s StateSet) Key() string {
	buf := make([]byte, 0, len(s.states)*17)
	for _, st := range s.states {
		buf = append(buf, byte(st.Kind))
		for _, p := range st.Params {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p))
		}
	}
	return string(buf)
}
