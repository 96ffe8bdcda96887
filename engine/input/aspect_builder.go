package input

import "github.com/Carmen-Shannon/oxy3d/engine/change"

// AspectBuilderOption is a functional option for configuring the input Aspect.
type AspectBuilderOption func(a *aspect)

// WithNotifier sets where axes and actions send their value changes.
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

// WithKeyboard makes the aspect read an existing keyboard instead of creating its own.
//
// Parameters:
//   - k: the keyboard the window writes to
//
// Returns:
//   - AspectBuilderOption: option function to apply
func WithKeyboard(k *Keyboard) AspectBuilderOption {
	return func(a *aspect) {
		a.keyboard = k
	}
}
