package animation

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

// Aspect owns the animation node registries and produces one job per running clip animator
// each frame. Jobs only touch their own animator and read clips, mappers and clocks, so they
// may run in parallel between two change distributions.
type Aspect interface {
	arbiter.SceneObserver

	Clocks() *backend.Manager[*Clock]
	Clips() *backend.Manager[*AnimationClip]
	ChannelMappings() *backend.Manager[*ChannelMapping]
	ChannelMappers() *backend.Manager[*ChannelMapper]
	ClipAnimators() *backend.Manager[*ClipAnimator]

	// Jobs returns the frame's animation jobs, one per enabled, running animator.
	//
	// Parameters:
	//   - globalTime: the frame's global time, in seconds
	//
	// Returns:
	//   - []jobs.Job: the jobs to run; each sends its changes through the aspect's notifier
	Jobs(globalTime float64) []jobs.Job

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

	clocks    *backend.Manager[*Clock]
	clips     *backend.Manager[*AnimationClip]
	mappings  *backend.Manager[*ChannelMapping]
	mappers   *backend.Manager[*ChannelMapper]
	animators *backend.Manager[*ClipAnimator]

	functors map[string]functor
	types    map[common.NodeID]string
}

var _ Aspect = &aspect{}

// NewAspect creates the animation aspect. Register it with the arbiter as a scene observer.
// Panics if registrar is nil.
//
// Parameters:
//   - registrar: where backend nodes subscribe to their peers, usually the arbiter
//   - options: functional options
//
// Returns:
//   - Aspect: the new aspect
func NewAspect(registrar Registrar, options ...AspectBuilderOption) Aspect {
	if registrar == nil {
		panic("animation: NewAspect requires a non-nil Registrar")
	}
	a := &aspect{
		registrar: registrar,
		clocks:    backend.NewManager(NewClock),
		clips:     backend.NewManager(NewAnimationClip),
		mappings:  backend.NewManager(NewChannelMapping),
		mappers:   backend.NewManager(NewChannelMapper),
		animators: backend.NewManager(NewClipAnimator),
		types:     make(map[common.NodeID]string),
	}
	a.functors = map[string]functor{
		TypeClock:          managerFunctor[*Clock]{a.clocks},
		TypeAnimationClip:  managerFunctor[*AnimationClip]{a.clips},
		TypeChannelMapping: managerFunctor[*ChannelMapping]{a.mappings},
		TypeChannelMapper:  managerFunctor[*ChannelMapper]{a.mappers},
		TypeClipAnimator:   managerFunctor[*ClipAnimator]{a.animators},
	}
	for _, opt := range options {
		opt(a)
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
		common.Logger().Debug("animation: duplicate creation ignored", "node", r.Subject(), "type", r.NodeType())
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

func (a *aspect) Jobs(globalTime float64) []jobs.Job {
	var out []jobs.Job
	a.animators.ForEach(func(_ common.NodeID, an *ClipAnimator) {
		if !an.IsEnabled() || !an.running {
			return
		}
		out = append(out, func(workerID int) { a.animate(workerID, an, globalTime) })
	})
	return out
}

// animate advances one animator to globalTime and sends the animated values.
func (a *aspect) animate(workerID int, an *ClipAnimator, globalTime float64) {
	clip, ok := a.clips.Lookup(an.clip)
	if !ok || !clip.IsEnabled() {
		return
	}
	if an.pendingStart {
		an.startTime = globalTime
		an.pendingStart = false
	}

	rate := 1.0
	if c, ok := a.clocks.Lookup(an.clock); ok && c.IsEnabled() {
		rate = c.PlaybackRate()
	}
	duration := float64(clip.Duration())
	local, loop := LocalTimeFromGlobalTime(globalTime, an.startTime, rate, duration, an.loops)

	if mapper, ok := a.mappers.Lookup(an.mapper); ok && mapper.IsEnabled() {
		an.values = clip.Data().Evaluate(float32(local), an.values)
		for _, md := range BuildPropertyMappings(clip.Data(), a.resolve(mapper)) {
			if v, ok := md.Value(an.values); ok {
				an.NotifyObservers(workerID, change.NewBackendPropertyChange(md.TargetID, md.PropertyName, v))
			}
		}
	}

	an.currentLoop = loop
	an.normalizedTime = NormalizedTime(local, loop, duration, an.loops)
	an.NotifyObservers(workerID, change.NewBackendPropertyChange(an.PeerID(), "normalizedTime", an.normalizedTime))

	if an.loops > 0 && loop == an.loops-1 && local >= duration {
		an.running = false
		an.NotifyObservers(workerID, change.NewBackendPropertyChange(an.PeerID(), "running", false))
	}
}

func (a *aspect) resolve(mapper *ChannelMapper) []*ChannelMapping {
	out := make([]*ChannelMapping, 0, len(mapper.Mappings()))
	for _, id := range mapper.Mappings() {
		if m, ok := a.mappings.Lookup(id); ok {
			out = append(out, m)
		}
	}
	return out
}

func (a *aspect) NodeCount() int {
	total := 0
	for _, f := range a.functors {
		total += f.count()
	}
	return total
}

func (a *aspect) Clocks() *backend.Manager[*Clock]                   { return a.clocks }
func (a *aspect) Clips() *backend.Manager[*AnimationClip]            { return a.clips }
func (a *aspect) ChannelMappings() *backend.Manager[*ChannelMapping] { return a.mappings }
func (a *aspect) ChannelMappers() *backend.Manager[*ChannelMapper]   { return a.mappers }
func (a *aspect) ClipAnimators() *backend.Manager[*ClipAnimator]     { return a.animators }
