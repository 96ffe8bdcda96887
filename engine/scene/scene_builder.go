package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithNodes adds initial nodes to the scene. Their creation is published once the scene is built.
//
// Parameters:
//   - nodes: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		s.initial = append(s.initial, nodes...)
	}
}

// WithWorkerID sets the producer id the scene publishes under. Defaults to -1, which the
// arbiter treats as an unmanaged producer.
func WithWorkerID(workerID int) SceneBuilderOption {
	return func(s *scene) {
		s.workerID = workerID
	}
}
