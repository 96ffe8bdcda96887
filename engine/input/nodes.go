package input

import (
	"slices"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Node type names carried by NodeCreated records.
const (
	TypeAxis            = "Axis"
	TypeButtonAxisInput = "ButtonAxisInput"
	TypeAction          = "Action"
	TypeActionInput     = "ActionInput"
)

func asKeys(v any) ([]common.KeyCode, bool) {
	switch x := v.(type) {
	case []common.KeyCode:
		return slices.Clone(x), true
	case []int:
		out := make([]common.KeyCode, len(x))
		for i, k := range x {
			out[i] = common.KeyCode(k)
		}
		return out, true
	}
	return nil, false
}

// inputList is the ordered list of input ids shared by axes and actions.
type inputList []common.NodeID

func (l *inputList) apply(r *change.Record) {
	if r.PropertyName() != "inputs" {
		return
	}
	id, ok := r.ReferencedID()
	if !ok {
		return
	}
	switch r.Kind() {
	case change.NodeAdded:
		if !slices.Contains(*l, id) {
			*l = append(*l, id)
		}
	case change.NodeRemoved:
		if i := slices.Index(*l, id); i >= 0 {
			*l = slices.Delete(*l, i, i+1)
		}
	}
}

// ButtonAxisInput drives an axis while any of its buttons is held. Acceleration and
// deceleration are in units of the full value per second; negative means instant.
type ButtonAxisInput struct {
	backend.BaseNode
	buttons      []common.KeyCode
	scale        float32
	acceleration float32
	deceleration float32
}

var _ backend.Node = &ButtonAxisInput{}

func NewButtonAxisInput() *ButtonAxisInput {
	return &ButtonAxisInput{
		BaseNode:     backend.NewBaseNode(backend.ReadOnly),
		scale:        1,
		acceleration: -1,
		deceleration: -1,
	}
}

func (b *ButtonAxisInput) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&b.BaseNode, r, func(name string, v any) {
		switch name {
		case "buttons":
			if keys, ok := asKeys(v); ok {
				b.buttons = keys
			}
		case "scale":
			if f, ok := backend.AsFloat32(v); ok {
				b.scale = f
			}
		case "acceleration":
			if f, ok := backend.AsFloat32(v); ok {
				b.acceleration = f
			}
		case "deceleration":
			if f, ok := backend.AsFloat32(v); ok {
				b.deceleration = f
			}
		}
	})
}

func (b *ButtonAxisInput) Cleanup() {
	b.BaseNode.Cleanup()
	*b = ButtonAxisInput{BaseNode: b.BaseNode, scale: 1, acceleration: -1, deceleration: -1}
}

func (b *ButtonAxisInput) Buttons() []common.KeyCode { return b.buttons }
func (b *ButtonAxisInput) Scale() float32            { return b.scale }

// advance moves ratio toward 1 while pressed and toward 0 while released.
func (b *ButtonAxisInput) advance(ratio float32, pressed bool, dt float32) float32 {
	if pressed {
		if b.acceleration < 0 {
			return 1
		}
		return min(ratio+b.acceleration*dt, 1)
	}
	if b.deceleration < 0 {
		return 0
	}
	return max(ratio-b.deceleration*dt, 0)
}

// Axis sums the values of its inputs, clamped to [-1, 1], and reports the value to the
// frontend when it changes.
type Axis struct {
	backend.BaseNode
	inputs inputList
	value  float32
	ratios map[common.NodeID]float32
}

var _ backend.Node = &Axis{}

func NewAxis() *Axis {
	return &Axis{BaseNode: backend.NewBaseNode(backend.ReadWrite), ratios: make(map[common.NodeID]float32)}
}

func (a *Axis) SceneChangeEvent(r *change.Record) {
	if backend.ApplyProperties(&a.BaseNode, r, func(name string, v any) {
		if ids, ok := backend.AsNodeIDs(v); ok && name == "inputs" {
			a.inputs = slices.Clone(ids)
		}
	}) {
		return
	}
	a.inputs.apply(r)
}

func (a *Axis) Cleanup() {
	a.BaseNode.Cleanup()
	a.inputs = nil
	a.value = 0
	clear(a.ratios)
}

// Inputs returns the ids of the axis inputs.
func (a *Axis) Inputs() []common.NodeID { return a.inputs }

// Value returns the last computed axis value.
func (a *Axis) Value() float32 { return a.value }

// SetAxisValue stores v and, when it differs from the current value, sends a "value"
// backend change.
//
// Parameters:
//   - workerID: the worker running the update
//   - v: the new value
func (a *Axis) SetAxisValue(workerID int, v float32) {
	if v == a.value {
		return
	}
	a.value = v
	a.NotifyObservers(workerID, change.NewBackendPropertyChange(a.PeerID(), "value", v))
}

// ActionInput is active while any of its buttons is held.
type ActionInput struct {
	backend.BaseNode
	buttons []common.KeyCode
}

var _ backend.Node = &ActionInput{}

func NewActionInput() *ActionInput {
	return &ActionInput{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (b *ActionInput) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&b.BaseNode, r, func(name string, v any) {
		if keys, ok := asKeys(v); ok && name == "buttons" {
			b.buttons = keys
		}
	})
}

func (b *ActionInput) Cleanup() {
	b.BaseNode.Cleanup()
	b.buttons = nil
}

func (b *ActionInput) Buttons() []common.KeyCode { return b.buttons }

// Action is active while any of its inputs is, and reports "active" to the frontend when
// that changes.
type Action struct {
	backend.BaseNode
	inputs inputList
	active bool
}

var _ backend.Node = &Action{}

func NewAction() *Action {
	return &Action{BaseNode: backend.NewBaseNode(backend.ReadWrite)}
}

func (a *Action) SceneChangeEvent(r *change.Record) {
	if backend.ApplyProperties(&a.BaseNode, r, func(name string, v any) {
		if ids, ok := backend.AsNodeIDs(v); ok && name == "inputs" {
			a.inputs = slices.Clone(ids)
		}
	}) {
		return
	}
	a.inputs.apply(r)
}

func (a *Action) Cleanup() {
	a.BaseNode.Cleanup()
	a.inputs = nil
	a.active = false
}

func (a *Action) Inputs() []common.NodeID { return a.inputs }
func (a *Action) IsActive() bool          { return a.active }

// SetActive stores active and sends an "active" backend change when it flips.
func (a *Action) SetActive(workerID int, active bool) {
	if active == a.active {
		return
	}
	a.active = active
	a.NotifyObservers(workerID, change.NewBackendPropertyChange(a.PeerID(), "active", active))
}
