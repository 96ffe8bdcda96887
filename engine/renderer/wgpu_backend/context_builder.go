package wgpu_backend

import "github.com/cogentcore/webgpu/wgpu"

// ContextBuilderOption is a functional option for configuring a Context.
type ContextBuilderOption func(*wgpuContext)

// WithPresentMode sets the surface present mode.
//
// Parameters:
//   - mode: PresentModeVSync or PresentModeUncapped
//
// Returns:
//   - ContextBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *wgpuContext) {
		if mode == PresentModeVSync {
			c.presentMode = wgpu.PresentModeFifo
			return
		}
		c.presentMode = wgpu.PresentModeImmediate
	}
}

// WithMSAA sets the multisample count. Unsupported values fall back to MSAAOff.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - ContextBuilderOption: a function that applies the MSAA option
func WithMSAA(count MSAASampleCount) ContextBuilderOption {
	return func(c *wgpuContext) {
		c.sampleCount = count
	}
}

// WithForceSoftwareRenderer requests the fallback (software) adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - ContextBuilderOption: a function that applies the adapter option
func WithForceSoftwareRenderer(force bool) ContextBuilderOption {
	return func(c *wgpuContext) {
		c.forceFallbackAdapter = force
	}
}

// WithUniformCapacity sets the byte size of the per-frame parameter ring. Values are rounded
// up to the dynamic offset alignment.
//
// Parameters:
//   - size: the ring size in bytes
//
// Returns:
//   - ContextBuilderOption: a function that applies the capacity option
func WithUniformCapacity(size int) ContextBuilderOption {
	return func(c *wgpuContext) {
		if size > 0 {
			c.uniformCapacity = alignUp(size)
		}
	}
}

// WithClearColor sets the color the first render pass of a frame clears to.
//
// Parameters:
//   - r, g, b, a: the clear color components
//
// Returns:
//   - ContextBuilderOption: a function that applies the clear color option
func WithClearColor(r, g, b, a float64) ContextBuilderOption {
	return func(c *wgpuContext) {
		c.clearColor = wgpu.Color{R: r, G: g, B: b, A: a}
	}
}
