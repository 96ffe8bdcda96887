package renderer

type CommandBuilderOption func(*commandBuilder)

// WithWorkers sets how many workers resolve entities in parallel.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - CommandBuilderOption: a function that sets the worker count
func WithWorkers(n int) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.workers = max(n, 1)
	}
}

// WithBatchSize sets how many entities one pool task resolves.
func WithBatchSize(n int) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.batchSize = max(n, 1)
	}
}

// WithTechniqueFilter sets the filter keys a technique must carry to be selected.
func WithTechniqueFilter(keys ...FilterMatch) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.techniqueFilter = keys
	}
}

// WithRenderPassFilter sets the filter keys a render pass must carry to be drawn.
func WithRenderPassFilter(keys ...FilterMatch) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.passFilter = keys
	}
}

// WithLayerFilter restricts the entities considered for drawing.
func WithLayerFilter(f LayerFilter) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.layerFilter = f
	}
}

// WithFrustumCulling skips entities whose bounding sphere lies outside the camera frustum.
func WithFrustumCulling(enabled bool) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.frustumCulling = enabled
	}
}

// WithSortPolicy sets how draw commands are ordered.
func WithSortPolicy(p SortPolicy) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.policy = p
	}
}

// WithDefaultStateSet replaces the states commands are completed with.
//
// Parameters:
//   - s: the renderer's default state set
//
// Returns:
//   - CommandBuilderOption: a function that sets the default state set
func WithDefaultStateSet(s StateSet) CommandBuilderOption {
	return func(b *commandBuilder) {
		b.defaults = s
	}
}
