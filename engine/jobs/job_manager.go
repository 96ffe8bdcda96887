// Package jobs provides the fixed worker pool that runs per-frame aspect jobs.
// Every worker has a stable id in [0, WorkerCount()), which lets producers keep one
// change queue per worker without any locking on the hot path.
package jobs

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
)

// ErrClosed is returned when work is submitted to a JobManager after Close.
var ErrClosed = errors.New("jobs: job manager is closed")

// Job is a unit of work executed on one worker. workerID identifies the executing worker.
type Job func(workerID int)

// JobManager schedules jobs on a fixed set of worker goroutines.
type JobManager interface {
	// WorkerCount returns the number of workers. Worker ids are 0..WorkerCount()-1.
	//
	// Returns:
	//   - int: the number of workers
	WorkerCount() int

	// Run executes every job on the pool and blocks until all of them completed.
	// Must not be called from inside a job.
	//
	// Parameters:
	//   - jobs: the jobs to execute (in any order, possibly in parallel)
	//
	// Returns:
	//   - error: ErrClosed if the manager was closed before all jobs were queued
	Run(jobs ...Job) error

	// WaitForPerWorkerFunction runs fn exactly once on every worker and blocks until each
	// worker has executed it. Used to create and release per-worker state.
	//
	// Parameters:
	//   - fn: the function to run; receives the executing worker's id
	//
	// Returns:
	//   - error: ErrClosed if the manager is closed
	WaitForPerWorkerFunction(fn func(workerID int)) error

	// Close stops all workers after they finish their current job. Safe to call more than once.
	Close()
}

type task struct {
	fn   Job
	done *sync.WaitGroup
}

type jobManager struct {
	workerCount int
	queueSize   int

	shared    chan task
	perWorker []chan task

	mu       sync.RWMutex // guards closed against in-flight submissions
	closed   bool
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

var _ JobManager = &jobManager{}

// NewJobManager creates and starts a JobManager. The worker count defaults to
// runtime.NumCPU().
//
// Parameters:
//   - options: functional options (worker count, queue size)
//
// Returns:
//   - JobManager: the running job manager
func NewJobManager(options ...JobManagerBuilderOption) JobManager {
	m := &jobManager{
		workerCount: runtime.NumCPU(),
		quit:        make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.queueSize <= 0 {
		m.queueSize = m.workerCount * 4
	}

	m.shared = make(chan task, m.queueSize)
	m.perWorker = make([]chan task, m.workerCount)
	for i := range m.perWorker {
		m.perWorker[i] = make(chan task, 1)
	}

	m.wg.Add(m.workerCount)
	for i := range m.workerCount {
		go m.work(i)
	}

	common.Logger().Debug("jobs: started workers", "count", m.workerCount)
	return m
}

func (m *jobManager) WorkerCount() int {
	return m.workerCount
}

func (m *jobManager) Run(jobs ...Job) error {
	var done sync.WaitGroup
	err := m.submit(&done, len(jobs), func(i int) chan task { return m.shared }, func(i int) Job { return jobs[i] })
	done.Wait()
	return err
}

func (m *jobManager) WaitForPerWorkerFunction(fn func(workerID int)) error {
	var done sync.WaitGroup
	err := m.submit(&done, m.workerCount, func(i int) chan task { return m.perWorker[i] }, func(int) Job { return fn })
	done.Wait()
	return err
}

// submit queues n tasks, task i going to channel target(i). Tasks that could not be queued
// because the manager closed are released from done immediately.
func (m *jobManager) submit(done *sync.WaitGroup, n int, target func(i int) chan task, job func(i int) Job) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	done.Add(n)
	for i := range n {
		select {
		case target(i) <- task{fn: job(i), done: done}:
		case <-m.quit:
			done.Add(-(n - i))
			return ErrClosed
		}
	}
	return nil
}

func (m *jobManager) Close() {
	m.quitOnce.Do(func() {
		close(m.quit)

		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()

		m.wg.Wait()

		// Release anything queued but never picked up so blocked submitters return.
		drain := func(ch chan task) {
			for {
				select {
				case t := <-ch:
					t.done.Done()
				default:
					return
				}
			}
		}
		drain(m.shared)
		for _, ch := range m.perWorker {
			drain(ch)
		}
		common.Logger().Debug("jobs: workers stopped", "count", m.workerCount)
	})
}

// work is the loop of worker id. Per-worker tasks take precedence over shared jobs so a
// broadcast is never starved by a long job queue.
func (m *jobManager) work(id int) {
	defer m.wg.Done()
	own := m.perWorker[id]
	for {
		select {
		case <-m.quit:
			return
		case t := <-own:
			m.execute(id, t)
			continue
		default:
		}

		select {
		case <-m.quit:
			return
		case t := <-own:
			m.execute(id, t)
		case t := <-m.shared:
			m.execute(id, t)
		}
	}
}

// execute runs t on worker id. A panicking job is logged and the worker keeps running.
func (m *jobManager) execute(id int, t task) {
	defer t.done.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("jobs: job panicked", "worker", id, "panic", fmt.Sprint(r))
		}
	}()
	t.fn(id)
}
