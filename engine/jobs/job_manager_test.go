package jobs

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesEveryJob(t *testing.T) {
	m := NewJobManager(WithWorkerCount(4))
	defer m.Close()

	var count atomic.Int64
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = func(workerID int) {
			assert.GreaterOrEqual(t, workerID, 0)
			assert.Less(t, workerID, 4)
			count.Add(1)
		}
	}
	require.NoError(t, m.Run(jobs...))
	assert.Equal(t, int64(100), count.Load())
}

func TestWaitForPerWorkerFunctionRunsOncePerWorker(t *testing.T) {
	m := NewJobManager(WithWorkerCount(3))
	defer m.Close()
	assert.Equal(t, 3, m.WorkerCount())

	var mu sync.Mutex
	seen := map[int]int{}
	require.NoError(t, m.WaitForPerWorkerFunction(func(workerID int) {
		mu.Lock()
		seen[workerID]++
		mu.Unlock()
	}))
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, seen)
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	m := NewJobManager(WithWorkerCount(1))
	defer m.Close()

	var ran atomic.Bool
	require.NoError(t, m.Run(func(int) { panic("boom") }))
	require.NoError(t, m.Run(func(int) { ran.Store(true) }))
	assert.True(t, ran.Load())
}

func TestClosedManagerRejectsWork(t *testing.T) {
	m := NewJobManager(WithWorkerCount(2))
	m.Close()
	m.Close()

	assert.ErrorIs(t, m.Run(func(int) {}), ErrClosed)
	assert.ErrorIs(t, m.WaitForPerWorkerFunction(func(int) {}), ErrClosed)
}

func TestWorkerCountMinimum(t *testing.T) {
	m := NewJobManager(WithWorkerCount(0), WithQueueSize(1))
	defer m.Close()
	assert.Equal(t, 1, m.WorkerCount())
}
