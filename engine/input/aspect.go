package input

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/arbiter"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
)

// Registrar is the part of the arbiter the aspect uses to subscribe its backend nodes.
type Registrar interface {
	RegisterObserver(observer arbiter.Observer, nodeID common.NodeID, changeFlags change.Flag)
	UnregisterObserver(observer arbiter.Observer, nodeID common.NodeID)
}

// Aspect owns the input node registries and the keyboard. Each frame it snapshots the
// keyboard and recomputes every enabled axis and action in its own job.
type Aspect interface {
	arbiter.SceneObserver

	Keyboard() *Keyboard
	Axes() *backend.Manager[*Axis]
	ButtonAxisInputs() *backend.Manager[*ButtonAxisInput]
	Actions() *backend.Manager[*Action]
	ActionInputs() *backend.Manager[*ActionInput]

	// Jobs returns the frame's input jobs.
	//
	// Parameters:
	//   - dt: seconds since the previous frame, used by accelerated axis inputs
	//
	// Returns:
	//   - []jobs.Job: one job per enabled axis and action
	Jobs(dt float64) []jobs.Job

	// NodeCount returns the number of backend nodes across all kinds.
	NodeCount() int
}

type functor interface {
	create(id common.NodeID) (backend.Node, bool)
	lookup(id common.NodeID) (backend.Node, bool)
	release(id common.NodeID)
	count() int
}

type managerFunctor[T backend.Node] struct {
	m *backend.Manager[T]
}

func (f managerFunctor[T]) create(id common.NodeID) (backend.Node, bool) {
	return f.m.GetOrCreate(id)
}

func (f managerFunctor[T]) lookup(id common.NodeID) (backend.Node, bool) {
	return f.m.Lookup(id)
}

func (f managerFunctor[T]) release(id common.NodeID) { f.m.Release(id) }
func (f managerFunctor[T]) count() int               { return f.m.Count() }

type aspect struct {
	registrar Registrar
	notifier  change.Notifier
	keyboard  *Keyboard

	axes         *backend.Manager[*Axis]
	axisInputs   *backend.Manager[*ButtonAxisInput]
	actions      *backend.Manager[*Action]
	actionInputs *backend.Manager[*ActionInput]

	functors map[string]functor
	types    map[common.NodeID]string
}

var _ Aspect = &aspect{}

// NewAspect creates the input aspect. Register it with the arbiter as a scene observer and
// route window key events to its Keyboard. Panics if registrar is nil.
//
// Parameters:
//   - registrar: where backend nodes subscribe to their peers, usually the arbiter
//   - options: functional options
//
// Returns:
//   - Aspect: the new aspect
func NewAspect(registrar Registrar, options ...AspectBuilderOption) Aspect {
	if registrar == nil {
		panic("input: NewAspect requires a non-nil Registrar")
	}
	a := &aspect{
		registrar:    registrar,
		axes:         backend.NewManager(NewAxis),
		axisInputs:   backend.NewManager(NewButtonAxisInput),
		actions:      backend.NewManager(NewAction),
		actionInputs: backend.NewManager(NewActionInput),
		types:        make(map[common.NodeID]string),
	}
	a.functors = map[string]functor{
		TypeAxis:            managerFunctor[*Axis]{a.axes},
		TypeButtonAxisInput: managerFunctor[*ButtonAxisInput]{a.axisInputs},
		TypeAction:          managerFunctor[*Action]{a.actions},
		TypeActionInput:     managerFunctor[*ActionInput]{a.actionInputs},
	}
	for _, opt := range options {
		opt(a)
	}
	if a.keyboard == nil {
		a.keyboard = NewKeyboard()
	}
	return a
}

func (a *aspect) SceneNodeAdded(r *change.Record) {
	f, ok := a.functors[r.NodeType()]
	if !ok {
		return
	}
	node, created := f.create(r.Subject())
	if !created {
		common.Logger().Debug("input: duplicate creation ignored", "node", r.Subject(), "type", r.NodeType())
		return
	}
	if a.notifier != nil {
		if bn, ok := node.(interface{ SetNotifier(change.Notifier) }); ok {
			bn.SetNotifier(a.notifier)
		}
	}
	a.types[r.Subject()] = r.NodeType()
	a.registrar.RegisterObserver(node, r.Subject(), change.AllChanges)
}

func (a *aspect) SceneNodeRemoved(r *change.Record) {
	if r.Kind() != change.NodeDeleted {
		return
	}
	nodeType, ok := a.types[r.Subject()]
	if !ok {
		return
	}
	f := a.functors[nodeType]
	if node, ok := f.lookup(r.Subject()); ok {
		a.registrar.UnregisterObserver(node, r.Subject())
	}
	f.release(r.Subject())
	delete(a.types, r.Subject())
}

func (a *aspect) Jobs(dt float64) []jobs.Job {
	keys := a.keyboard.Snapshot()
	var out []jobs.Job
	a.axes.ForEach(func(_ common.NodeID, ax *Axis) {
		if ax.IsEnabled() {
			out = append(out, func(workerID int) { a.updateAxis(workerID, ax, keys, float32(dt)) })
		}
	})
	a.actions.ForEach(func(_ common.NodeID, ac *Action) {
		if ac.IsEnabled() {
			out = append(out, func(workerID int) { a.updateAction(workerID, ac, keys) })
		}
	})
	return out
}

func (a *aspect) updateAxis(workerID int, ax *Axis, keys KeyState, dt float32) {
	var sum float32
	for _, id := range ax.inputs {
		in, ok := a.axisInputs.Lookup(id)
		if !ok || !in.IsEnabled() {
			continue
		}
		ratio := in.advance(ax.ratios[id], keys.AnyPressed(in.buttons), dt)
		ax.ratios[id] = ratio
		sum += in.scale * ratio
	}
	ax.SetAxisValue(workerID, max(-1, min(sum, 1)))
}

func (a *aspect) updateAction(workerID int, ac *Action, keys KeyState) {
	active := false
	for _, id := range ac.inputs {
		if in, ok := a.actionInputs.Lookup(id); ok && in.IsEnabled() && keys.AnyPressed(in.buttons) {
			active = true
			break
		}
	}
	ac.SetActive(workerID, active)
}

func (a *aspect) NodeCount() int {
	total := 0
	for _, f := range a.functors {
		total += f.count()
	}
	return total
}

func (a *aspect) Keyboard() *Keyboard                                  { return a.keyboard }
func (a *aspect) Axes() *backend.Manager[*Axis]                        { return a.axes }
func (a *aspect) ButtonAxisInputs() *backend.Manager[*ButtonAxisInput] { return a.axisInputs }
func (a *aspect) Actions() *backend.Manager[*Action]                   { return a.actions }
func (a *aspect) ActionInputs() *backend.Manager[*ActionInput]         { return a.actionInputs }
