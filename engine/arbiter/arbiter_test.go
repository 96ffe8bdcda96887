package arbiter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	records []*change.Record
	onEvent func(r *change.Record)
}

func (o *recorder) SceneChangeEvent(r *change.Record) {
	o.mu.Lock()
	o.records = append(o.records, r)
	o.mu.Unlock()
	if o.onEvent != nil {
		o.onEvent(r)
	}
}

func (o *recorder) kinds() []change.Flag {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]change.Flag, len(o.records))
	for i, r := range o.records {
		out[i] = r.Kind()
	}
	return out
}

func (o *recorder) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

// labelled appends its label to a shared log so tests can check cross-observer ordering.
type labelled struct {
	label string
	log   *[]string
}

func (o *labelled) SceneChangeEvent(r *change.Record) {
	*o.log = append(*o.log, o.label+":"+r.Kind().String())
}

func (o *labelled) SceneNodeAdded(r *change.Record) {
	*o.log = append(*o.log, o.label+":added")
}

func (o *labelled) SceneNodeRemoved(r *change.Record) {
	*o.log = append(*o.log, o.label+":removed:"+r.Kind().String())
}

func newTestArbiter(t *testing.T, workers int) (Arbiter, jobs.JobManager) {
	t.Helper()
	jm := jobs.NewJobManager(jobs.WithWorkerCount(workers))
	t.Cleanup(jm.Close)
	a := NewArbiter(WithJobManager(jm))
	t.Cleanup(a.Close)
	return a, jm
}

type seqValue struct {
	worker int
	seq    int
}

func TestSyncChangesPreservesPerWorkerOrderAndDeliversOnce(t *testing.T) {
	const workers = 4
	const jobCount = 200
	a, jm := newTestArbiter(t, workers)

	subject := common.NewNodeID()
	obs := &recorder{}
	a.RegisterObserver(obs, subject, change.AllChanges)

	counters := make([]int, workers)
	js := make([]jobs.Job, jobCount)
	for i := range js {
		js[i] = func(workerID int) {
			seq := counters[workerID]
			counters[workerID]++
			a.NotifyChange(workerID, change.NewPropertyUpdate(subject, "seq", seqValue{worker: workerID, seq: seq}))
		}
	}
	require.NoError(t, jm.Run(js...))

	assert.Equal(t, jobCount, a.PendingChanges())
	assert.Equal(t, jobCount, a.SyncChanges())
	assert.Equal(t, 0, a.PendingChanges())
	require.Equal(t, jobCount, obs.count())

	next := make([]int, workers)
	for _, r := range obs.records {
		v := r.Value().(seqValue)
		assert.Equal(t, next[v.worker], v.seq, "worker %d out of order", v.worker)
		next[v.worker]++
	}
	assert.Equal(t, counters, next)

	assert.Equal(t, 0, a.SyncChanges())
	assert.Equal(t, jobCount, obs.count())
}

func TestObserverMaskFiltersRecordKinds(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()
	other := common.NewNodeID()

	updatesOnly := &recorder{}
	everything := &recorder{}
	a.RegisterObserver(updatesOnly, subject, change.NodeUpdated)
	a.RegisterObserver(everything, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "enabled", false))
	a.NotifyChange(0, change.NewPropertyAdded(subject, "components", other))
	a.NotifyChange(0, change.NewPropertyRemoved(subject, "components", other))
	assert.Equal(t, 3, a.SyncChanges())

	assert.Equal(t, []change.Flag{change.NodeUpdated}, updatesOnly.kinds())
	assert.Equal(t, []change.Flag{change.NodeUpdated, change.NodeAdded, change.NodeRemoved}, everything.kinds())
}

func TestNodeDestructionOrderAndObserverCleanup(t *testing.T) {
	a, _ := newTestArbiter(t, 2)
	subject := common.NewNodeID()

	var log []string
	scene := &labelled{label: "scene", log: &log}
	node := &labelled{label: "node", log: &log}
	a.RegisterSceneObserver(scene)
	a.RegisterObserver(node, subject, change.AllChanges)

	a.NotifyNodeDestruction(1, subject)
	assert.Equal(t, 2, a.SyncChanges())

	assert.Equal(t, []string{
		"scene:removed:NodeAboutToBeDeleted",
		"node:NodeAboutToBeDeleted",
		"scene:removed:NodeDeleted",
		"node:NodeDeleted",
	}, log)
	assert.Equal(t, 0, a.ObserverCount(subject))
}

func TestSceneObserversRunBeforeNodeObservers(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	var log []string
	scene := &labelled{label: "scene", log: &log}
	a.RegisterSceneObserver(scene)
	a.RegisterSceneObserver(scene)
	a.RegisterObserver(&labelled{label: "first", log: &log}, subject, change.AllChanges)
	a.RegisterObserver(&labelled{label: "second", log: &log}, subject, change.AllChanges)

	a.NotifyChange(0, change.NewNodeCreated(subject, "Entity", nil))
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "enabled", true))
	a.SyncChanges()

	assert.Equal(t, []string{
		"scene:added",
		"first:NodeCreated",
		"second:NodeCreated",
		"first:NodeUpdated",
		"second:NodeUpdated",
	}, log)

	a.UnregisterSceneObserver(scene)
	log = nil
	a.NotifyChange(0, change.NewNodeCreated(common.NewNodeID(), "Entity", nil))
	a.SyncChanges()
	assert.Empty(t, log)
}

func TestSceneObserverCanRegisterObserverForCreatedNode(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()
	backend := &recorder{}

	a.RegisterSceneObserver(sceneFunc(func(r *change.Record) {
		a.RegisterObserver(backend, r.Subject(), change.AllChanges)
	}))

	a.NotifyChange(0, change.NewNodeCreated(subject, "Entity", nil))
	a.SyncChanges()

	assert.Equal(t, []change.Flag{change.NodeCreated}, backend.kinds())
}

type sceneFunc func(r *change.Record)

func (f sceneFunc) SceneNodeAdded(r *change.Record)   { f(r) }
func (f sceneFunc) SceneNodeRemoved(r *change.Record) {}

func TestRegisterDuringDistributionSeesOnlyLaterRecords(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	late := &recorder{}
	var once sync.Once
	first := &recorder{}
	first.onEvent = func(*change.Record) {
		once.Do(func() { a.RegisterObserver(late, subject, change.AllChanges) })
	}
	a.RegisterObserver(first, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 1))
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 2))
	assert.Equal(t, 2, a.SyncChanges())

	assert.Equal(t, 2, first.count())
	require.Equal(t, 1, late.count())
	assert.Equal(t, 2, late.records[0].Value())
}

func TestUnregisterDuringDistribution(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	self := &recorder{}
	self.onEvent = func(*change.Record) { a.UnregisterObserver(self, subject) }
	a.RegisterObserver(self, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 1))
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 2))
	a.SyncChanges()

	assert.Equal(t, 1, self.count())
	assert.Equal(t, 0, a.ObserverCount(subject))
}

func TestUnmanagedProducers(t *testing.T) {
	a, _ := newTestArbiter(t, 2)
	subject := common.NewNodeID()
	obs := &recorder{}
	a.RegisterObserver(obs, subject, change.AllChanges)

	a.NotifyChange(42, change.NewPropertyUpdate(subject, "v", "unmanaged"))
	a.NotifyChangeWithLock(change.NewPropertyUpdate(subject, "v", "locked"))
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", "managed"))
	p := a.Producer(-7)
	p.Enqueue(change.NewPropertyUpdate(subject, "v", "producer"))
	p.Enqueue(nil)

	assert.Equal(t, 4, a.SyncChanges())
	values := make([]any, 0, 4)
	for _, r := range obs.records {
		values = append(values, r.Value())
	}
	// Managed queues drain first, then unmanaged queues in the order they registered.
	assert.Equal(t, []any{"managed", "unmanaged", "locked", "producer"}, values)
}

func TestObservableRecordsReachPostmanAfterNodeObservers(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	var log []string
	a.SetPostman(&labelled{label: "postman", log: &log})
	a.RegisterObserver(&labelled{label: "backend", log: &log}, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "frontend", 1))
	a.NotifyChange(0, change.NewBackendPropertyChange(subject, "value", 0.5))
	a.NotifyChange(0, change.NewBackendPropertyChange(common.NewNodeID(), "value", 1.0))
	a.SyncChanges()

	assert.Equal(t, []string{
		"backend:NodeUpdated",
		"backend:NodeUpdated",
		"postman:NodeUpdated",
		"postman:NodeUpdated",
	}, log)
	assert.NotNil(t, a.Postman())
}

func TestUnobservedRecordsAreDropped(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	a.NotifyChange(0, change.NewPropertyUpdate(common.NewNodeID(), "v", 1))
	assert.Equal(t, 1, a.SyncChanges())
	assert.Equal(t, 0, a.PendingChanges())
}

func TestRecordsNotifiedDuringSyncLandInNextCycle(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	obs := &recorder{}
	obs.onEvent = func(r *change.Record) {
		if r.Value() == 1 {
			a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 2))
			a.NotifyChangeWithLock(change.NewPropertyUpdate(subject, "v", 3))
		}
	}
	a.RegisterObserver(obs, subject, change.AllChanges)

	a.NotifyChangeWithLock(change.NewPropertyUpdate(subject, "v", 1))
	assert.Equal(t, 1, a.SyncChanges())
	assert.Equal(t, 2, a.SyncChanges())
	assert.Equal(t, 3, obs.count())
}

func TestReentrantSyncChangesIsRejected(t *testing.T) {
	a, _ := newTestArbiter(t, 1)
	subject := common.NewNodeID()

	inner := -1
	obs := &recorder{}
	obs.onEvent = func(*change.Record) { inner = a.SyncChanges() }
	a.RegisterObserver(obs, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 1))
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 2))
	assert.Equal(t, 2, a.SyncChanges())
	assert.Equal(t, 0, inner)
}

func TestInitializeRequiresJobManager(t *testing.T) {
	a := NewArbiter()
	assert.PanicsWithValue(t, "arbiter: Initialize requires a non-nil JobManager", func() {
		a.Initialize(nil)
	})
}

func TestInitializeAdoptsQueuesOfEarlyProducers(t *testing.T) {
	jm := jobs.NewJobManager(jobs.WithWorkerCount(2))
	t.Cleanup(jm.Close)
	a := NewArbiter()
	t.Cleanup(a.Close)
	subject := common.NewNodeID()
	obs := &recorder{}
	a.RegisterObserver(obs, subject, change.AllChanges)

	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", "first"))
	a.NotifyChange(5, change.NewPropertyUpdate(subject, "v", "unmanaged"))
	a.Initialize(jm)
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", "second"))
	a.NotifyChange(1, change.NewPropertyUpdate(subject, "v", "other"))

	assert.Equal(t, 4, a.SyncChanges())
	values := make([]any, 0, 4)
	for _, r := range obs.records {
		values = append(values, r.Value())
	}
	assert.Equal(t, []any{"first", "second", "other", "unmanaged"}, values)
	assert.Zero(t, a.PendingChanges())
}

func TestInitializeTwiceKeepsQueues(t *testing.T) {
	a, jm := newTestArbiter(t, 2)
	subject := common.NewNodeID()
	a.NotifyChange(1, change.NewPropertyUpdate(subject, "v", 1))
	a.Initialize(jm)
	assert.Equal(t, 1, a.PendingChanges())
}

func TestCloseDropsLaterChanges(t *testing.T) {
	jm := jobs.NewJobManager(jobs.WithWorkerCount(2))
	defer jm.Close()
	a := NewArbiter(WithJobManager(jm))

	subject := common.NewNodeID()
	obs := &recorder{}
	a.RegisterObserver(obs, subject, change.AllChanges)

	a.Close()
	a.NotifyChange(0, change.NewPropertyUpdate(subject, "v", 1))
	a.NotifyChange(99, change.NewPropertyUpdate(subject, "v", 2))
	a.NotifyChangeWithLock(change.NewPropertyUpdate(subject, "v", 3))

	assert.Equal(t, 0, a.PendingChanges())
	assert.Equal(t, 0, a.SyncChanges())
	assert.Equal(t, 0, obs.count())
	a.Close()
}

func TestConcurrentProducersDuringSync(t *testing.T) {
	const producers = 8
	const perProducer = 500
	a, _ := newTestArbiter(t, 2)
	subject := common.NewNodeID()
	obs := &recorder{}
	a.RegisterObserver(obs, subject, change.AllChanges)

	var wg sync.WaitGroup
	for g := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := a.Producer(100 + g)
			for i := range perProducer {
				p.Enqueue(change.NewPropertyUpdate(subject, "v", fmt.Sprintf("%d/%d", g, i)))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	total := 0
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		total += a.SyncChanges()
	}
	for a.PendingChanges() > 0 {
		total += a.SyncChanges()
	}

	assert.Equal(t, producers*perProducer, total)
	assert.Equal(t, producers*perProducer, obs.count())

	next := make(map[int]int)
	for _, r := range obs.records {
		var g, i int
		_, err := fmt.Sscanf(r.Value().(string), "%d/%d", &g, &i)
		require.NoError(t, err)
		assert.Equal(t, next[g], i)
		next[g]++
	}
}
