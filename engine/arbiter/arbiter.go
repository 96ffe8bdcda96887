// Package arbiter routes change records from producers (frontend nodes and backend nodes,
// on any number of workers) to the observers interested in them, once per frame.
//
// Producers append to a per-worker queue without taking any lock. SyncChanges, called by the
// single frame-sync goroutine, drains every queue front to back and delivers each record
// synchronously to the scene observers, the node's observers (in registration order) and,
// for backend-originated records, the postman.
package arbiter

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
)

// Observer receives the change records of the nodes it is registered for.
// SceneChangeEvent is called synchronously from SyncChanges and must not call SyncChanges.
// It may register or unregister observers.
type Observer interface {
	SceneChangeEvent(r *change.Record)
}

// SceneObserver is notified of every structural change in the scene, regardless of which
// node observers are registered. Backend aspects use it to create and release backend nodes.
type SceneObserver interface {
	// SceneNodeAdded receives NodeCreated records.
	SceneNodeAdded(r *change.Record)

	// SceneNodeRemoved receives NodeAboutToBeDeleted and NodeDeleted records.
	SceneNodeRemoved(r *change.Record)
}

// Producer is a queue handle bound to one producer, obtained from Arbiter.Producer.
type Producer interface {
	// Enqueue appends r to the producer's queue.
	Enqueue(r *change.Record)
}

// Arbiter is the change router between observables and observers.
type Arbiter interface {
	change.Notifier

	// Initialize creates one change queue per worker of the job manager. A worker id that
	// already produced through the unmanaged path keeps that queue, so its earlier records
	// are distributed first. Panics if jm is nil.
	//
	// Parameters:
	//   - jm: the job manager whose workers will produce changes
	Initialize(jm jobs.JobManager)

	// NotifyChangeWithLock appends r to the shared unmanaged queue. Intended for producers that
	// have no worker id, such as the frontend thread.
	//
	// Parameters:
	//   - r: the record to enqueue
	NotifyChangeWithLock(r *change.Record)

	// NotifyNodeDestruction enqueues NodeAboutToBeDeleted followed by NodeDeleted for id into
	// the same queue, which guarantees every observer sees them in that order.
	//
	// Parameters:
	//   - workerID: the producing worker (or any id outside the pool)
	//   - id: the node being destroyed
	NotifyNodeDestruction(workerID int, id common.NodeID)

	// Producer returns a handle whose Enqueue appends to the queue of workerID. For worker ids
	// outside the managed pool the unmanaged queue is created and registered once, here.
	//
	// Parameters:
	//   - workerID: the producing worker id
	//
	// Returns:
	//   - Producer: the bound queue handle
	Producer(workerID int) Producer

	// RegisterObserver appends observer to the observer list of nodeID. The observer receives a
	// record only if the record kind intersects changeFlags.
	//
	// Parameters:
	//   - observer: the observer to register
	//   - nodeID: the observed node
	//   - changeFlags: mask of record kinds the observer wants
	RegisterObserver(observer Observer, nodeID common.NodeID, changeFlags change.Flag)

	// UnregisterObserver removes every registration of observer for nodeID.
	//
	// Parameters:
	//   - observer: the observer to remove
	//   - nodeID: the observed node
	UnregisterObserver(observer Observer, nodeID common.NodeID)

	// RegisterSceneObserver adds a scene observer. Registering the same observer twice is a no-op.
	RegisterSceneObserver(observer SceneObserver)

	// UnregisterSceneObserver removes a scene observer.
	UnregisterSceneObserver(observer SceneObserver)

	// SetPostman sets the observer that receives every Observable record after the backend
	// observers of its subject.
	SetPostman(postman Observer)

	// Postman returns the current postman, or nil.
	Postman() Observer

	// ObserverCount returns how many observer registrations exist for nodeID.
	ObserverCount(nodeID common.NodeID) int

	// PendingChanges returns the approximate number of records waiting in all queues.
	PendingChanges() int

	// SyncChanges drains every queue and distributes the records. Must be called from a single
	// frame-sync goroutine; a concurrent or re-entrant call is rejected and returns 0.
	//
	// Returns:
	//   - int: the number of records distributed
	SyncChanges() int

	// Close asks every worker to release its queue and blocks until all of them did.
	// Records notified afterwards are dropped.
	Close()
}

type observerEntry struct {
	flags    change.Flag
	observer Observer
}

type arbiter struct {
	// mu guards everything below it. Observer lists are replaced, never mutated in place, so a
	// snapshot taken under mu stays valid while callbacks register or unregister observers.
	mu             sync.Mutex
	jobManager     jobs.JobManager
	unmanaged      map[int]*changeQueue
	lockingQueues  []*changeQueue
	sharedQueue    *changeQueue
	observations   map[common.NodeID][]observerEntry
	sceneObservers []SceneObserver
	postman        Observer

	initialJobManager jobs.JobManager

	queues  atomic.Pointer[[]*changeQueue] // per worker, fixed after Initialize
	syncing atomic.Bool
	closed  atomic.Bool
}

var _ Arbiter = &arbiter{}

// NewArbiter creates an Arbiter. It must be initialized with a job manager, either through
// WithJobManager or by calling Initialize, before managed workers produce changes.
//
// Parameters:
//   - options: functional options (job manager, postman, scene observers)
//
// Returns:
//   - Arbiter: the new arbiter
func NewArbiter(options ...ArbiterBuilderOption) Arbiter {
	a := &arbiter{
		unmanaged:    make(map[int]*changeQueue),
		observations: make(map[common.NodeID][]observerEntry),
	}
	empty := []*changeQueue{}
	a.queues.Store(&empty)

	for _, opt := range options {
		opt(a)
	}
	if a.initialJobManager != nil {
		a.Initialize(a.initialJobManager)
		a.initialJobManager = nil
	}
	return a
}

func (a *arbiter) Initialize(jm jobs.JobManager) {
	if jm == nil {
		panic("arbiter: Initialize requires a non-nil JobManager")
	}

	a.mu.Lock()
	if a.jobManager != nil {
		a.mu.Unlock()
		common.Logger().Warn("arbiter: already initialized")
		return
	}
	a.jobManager = jm
	a.mu.Unlock()

	queues := make([]*changeQueue, jm.WorkerCount())
	if err := jm.WaitForPerWorkerFunction(func(workerID int) {
		queues[workerID] = newChangeQueue(workerID, false)
	}); err != nil {
		panic("arbiter: failed to create per-worker change queues: " + err.Error())
	}

	// A worker id that produced before Initialize keeps its earlier queue, so its records stay
	// ahead of the ones it appends from now on.
	a.mu.Lock()
	for id := range queues {
		prior, ok := a.unmanaged[id]
		if !ok {
			continue
		}
		prior.unmanaged = false
		queues[id] = prior
		delete(a.unmanaged, id)
		a.lockingQueues = slices.DeleteFunc(a.lockingQueues, func(q *changeQueue) bool { return q == prior })
	}
	a.queues.Store(&queues)
	a.mu.Unlock()

	common.Logger().Info("arbiter: initialized", "workers", len(queues))
}

func (a *arbiter) NotifyChange(workerID int, r *change.Record) {
	a.Producer(workerID).Enqueue(r)
}

func (a *arbiter) NotifyChangeWithLock(r *change.Record) {
	if r == nil {
		return
	}
	if a.closed.Load() {
		common.Logger().Warn("arbiter: change notified after close was dropped", "subject", r.Subject())
		return
	}
	a.mu.Lock()
	q := a.sharedQueue
	if q == nil {
		q = newChangeQueue(-1, true)
		a.sharedQueue = q
		a.lockingQueues = append(a.lockingQueues, q)
	}
	a.mu.Unlock()
	q.append(r)
}

func (a *arbiter) NotifyNodeDestruction(workerID int, id common.NodeID) {
	p := a.Producer(workerID)
	p.Enqueue(change.NewNodeAboutToBeDeleted(id))
	p.Enqueue(change.NewNodeDeleted(id))
}

func (a *arbiter) Producer(workerID int) Producer {
	if a.closed.Load() {
		return producer{arbiter: a}
	}
	return producer{queue: a.queueFor(workerID), arbiter: a}
}

// queueFor returns the queue of a managed worker without locking, or the lazily registered
// unmanaged queue for workerID.
func (a *arbiter) queueFor(workerID int) *changeQueue {
	queues := *a.queues.Load()
	if workerID >= 0 && workerID < len(queues) {
		return queues[workerID]
	}
	return a.unmanagedQueue(workerID)
}

func (a *arbiter) unmanagedQueue(workerID int) *changeQueue {
	a.mu.Lock()
	defer a.mu.Unlock()
	q, ok := a.unmanaged[workerID]
	if !ok {
		q = newChangeQueue(workerID, true)
		a.unmanaged[workerID] = q
		a.lockingQueues = append(a.lockingQueues, q)
		common.Logger().Debug("arbiter: registered unmanaged change queue", "worker", workerID)
	}
	return q
}

func (a *arbiter) RegisterObserver(observer Observer, nodeID common.NodeID, changeFlags change.Flag) {
	if observer == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	current := a.observations[nodeID]
	next := make([]observerEntry, len(current), len(current)+1)
	copy(next, current)
	a.observations[nodeID] = append(next, observerEntry{flags: changeFlags, observer: observer})
}

func (a *arbiter) UnregisterObserver(observer Observer, nodeID common.NodeID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	current, ok := a.observations[nodeID]
	if !ok {
		return
	}
	next := make([]observerEntry, 0, len(current))
	for _, e := range current {
		if e.observer != observer {
			next = append(next, e)
		}
	}
	if len(next) == 0 {
		delete(a.observations, nodeID)
		return
	}
	a.observations[nodeID] = next
}

func (a *arbiter) RegisterSceneObserver(observer SceneObserver) {
	if observer == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.Contains(a.sceneObservers, observer) {
		return
	}
	next := make([]SceneObserver, len(a.sceneObservers), len(a.sceneObservers)+1)
	copy(next, a.sceneObservers)
	a.sceneObservers = append(next, observer)
}

func (a *arbiter) UnregisterSceneObserver(observer SceneObserver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sceneObservers = slices.DeleteFunc(slices.Clone(a.sceneObservers), func(o SceneObserver) bool {
		return o == observer
	})
}

func (a *arbiter) SetPostman(postman Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.postman = postman
}

func (a *arbiter) Postman() Observer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.postman
}

func (a *arbiter) ObserverCount(nodeID common.NodeID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.observations[nodeID])
}

func (a *arbiter) PendingChanges() int {
	total := 0
	for _, q := range *a.queues.Load() {
		total += q.size()
	}
	a.mu.Lock()
	for _, q := range a.lockingQueues {
		total += q.size()
	}
	a.mu.Unlock()
	return total
}

func (a *arbiter) SyncChanges() int {
	if !a.syncing.CompareAndSwap(false, true) {
		common.Logger().Error("arbiter: SyncChanges called concurrently or from an observer callback")
		return 0
	}
	defer a.syncing.Store(false)

	a.mu.Lock()
	locking := slices.Clone(a.lockingQueues)
	a.mu.Unlock()

	distributed := 0
	for _, q := range *a.queues.Load() {
		distributed += q.drain(a.distribute)
	}
	for _, q := range locking {
		distributed += q.drain(a.distribute)
	}
	return distributed
}

// distribute delivers one record: scene observers first for structural kinds, then the
// subject's observers in registration order, then the postman for backend-originated records.
func (a *arbiter) distribute(r *change.Record) {
	if r.Kind().Structural() {
		a.mu.Lock()
		sceneObservers := a.sceneObservers
		a.mu.Unlock()

		for _, so := range sceneObservers {
			if r.Kind() == change.NodeCreated {
				so.SceneNodeAdded(r)
			} else {
				so.SceneNodeRemoved(r)
			}
		}
	}

	a.mu.Lock()
	observers := a.observations[r.Subject()]
	postman := a.postman
	a.mu.Unlock()

	for _, e := range observers {
		if r.Matches(e.flags) {
			e.observer.SceneChangeEvent(r)
		}
	}

	if r.ObservableKind() == change.Observable && postman != nil {
		postman.SceneChangeEvent(r)
	}

	if r.Kind() == change.NodeDeleted {
		a.mu.Lock()
		delete(a.observations, r.Subject())
		a.mu.Unlock()
	}
}

func (a *arbiter) Close() {
	if !a.closed.CompareAndSwap(false, true) {
		return
	}

	a.mu.Lock()
	jm := a.jobManager
	a.mu.Unlock()

	queues := *a.queues.Load()
	if jm != nil {
		// Each worker releases its own queue, so no worker can be mid-append when this returns.
		if err := jm.WaitForPerWorkerFunction(func(workerID int) {
			if workerID < len(queues) {
				queues[workerID].released.Store(true)
			}
		}); err != nil {
			common.Logger().Warn("arbiter: job manager closed before queues were released", "error", err)
		}
	}

	dropped := 0
	for _, q := range queues {
		dropped += q.size()
	}

	a.mu.Lock()
	for _, q := range a.lockingQueues {
		q.released.Store(true)
		dropped += q.size()
	}
	a.lockingQueues = nil
	a.unmanaged = make(map[int]*changeQueue)
	a.sharedQueue = nil
	a.mu.Unlock()

	empty := []*changeQueue{}
	a.queues.Store(&empty)

	if dropped > 0 {
		common.Logger().Debug("arbiter: dropped undistributed changes on close", "count", dropped)
	}
}

// producer binds a queue so repeated unmanaged producers skip the registry lookup.
type producer struct {
	queue   *changeQueue
	arbiter *arbiter
}

func (p producer) Enqueue(r *change.Record) {
	if r == nil {
		return
	}
	if p.queue == nil || p.queue.released.Load() || p.arbiter.closed.Load() {
		common.Logger().Warn("arbiter: change notified after close was dropped", "subject", r.Subject())
		return
	}
	p.queue.append(r)
}
