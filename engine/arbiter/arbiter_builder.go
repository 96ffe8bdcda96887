package arbiter

import "github.com/Carmen-Shannon/oxy3d/engine/jobs"

// ArbiterBuilderOption is a functional option for configuring an Arbiter.
// Use the With* functions to create options.
type ArbiterBuilderOption func(a *arbiter)

// WithJobManager initializes the arbiter with jm as soon as it is built, creating one change
// queue per worker.
//
// Parameters:
//   - jm: the job manager whose workers produce changes
//
// Returns:
//   - ArbiterBuilderOption: option function to apply
func WithJobManager(jm jobs.JobManager) ArbiterBuilderOption {
	return func(a *arbiter) {
		a.initialJobManager = jm
	}
}

// WithPostman sets the observer that receives backend-originated records.
//
// Parameters:
//   - postman: the postman observer
//
// Returns:
//   - ArbiterBuilderOption: option function to apply
func WithPostman(postman Observer) ArbiterBuilderOption {
	return func(a *arbiter) {
		a.postman = postman
	}
}

// WithSceneObserver registers a scene observer on construction.
func WithSceneObserver(observer SceneObserver) ArbiterBuilderOption {
	return func(a *arbiter) {
		if observer != nil {
			a.sceneObservers = append(a.sceneObservers, observer)
		}
	}
}
