package animation

import "github.com/Carmen-Shannon/oxy3d/engine/change"

// AspectBuilderOption is a functional option for configuring the animation Aspect.
type AspectBuilderOption func(a *aspect)

// WithNotifier sets where clips and animators send their backend changes. Without one the
// aspect still advances animators but nothing leaves the backend.
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
