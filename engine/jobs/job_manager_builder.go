package jobs

// JobManagerBuilderOption is a functional option for configuring a JobManager.
// Use the With* functions to create options.
type JobManagerBuilderOption func(m *jobManager)

// WithWorkerCount sets the number of worker goroutines. Defaults to runtime.NumCPU().
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - JobManagerBuilderOption: option function to apply
func WithWorkerCount(n int) JobManagerBuilderOption {
	return func(m *jobManager) {
		if n < 1 {
			n = 1
		}
		m.workerCount = n
	}
}

// WithQueueSize sets the capacity of the shared job queue. Defaults to four slots per worker.
//
// Parameters:
//   - n: queue capacity
//
// Returns:
//   - JobManagerBuilderOption: option function to apply
func WithQueueSize(n int) JobManagerBuilderOption {
	return func(m *jobManager) {
		m.queueSize = n
	}
}
