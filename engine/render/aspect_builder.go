package render

import "github.com/Carmen-Shannon/oxy3d/engine/change"

// AspectBuilderOption is a functional option for configuring the render Aspect.
type AspectBuilderOption func(a *aspect)

// WithNotifier sets the notifier handed to every backend node created by the aspect, so
// ReadWrite nodes can publish backend changes.
//
// Parameters:
//   - n: the notifier, usually the arbiter
//
// Returns:
//   - AspectBuilderOption: option function to apply
func WithNotifier(n change.Notifier) AspectBuilderOption {
	return func(a *aspect) {
		a.notifier = n
	}
}
