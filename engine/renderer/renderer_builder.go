package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithDefaults sets the states the context holds at the start of each frame. Use the same
// set as the command builder so change costs match what submission issues.
//
// Parameters:
//   - s: the default state set
//
// Returns:
//   - RendererBuilderOption: a function that sets the default state set
func WithDefaults(s StateSet) RendererBuilderOption {
	return func(r *renderer) {
		r.defaults = s
	}
}

// WithResetAtFrameEnd restores the default states after the last command of every frame.
//
// Parameters:
//   - reset: true to restore the defaults once the frame is submitted
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithResetAtFrameEnd(reset bool) RendererBuilderOption {
	return func(r *renderer) {
		r.resetFrame = reset
	}
}
