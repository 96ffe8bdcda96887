package engine

import (
	"io"

	"github.com/Carmen-Shannon/oxy3d/engine/camera"
	"github.com/Carmen-Shannon/oxy3d/engine/config"
	"github.com/Carmen-Shannon/oxy3d/engine/input"
	"github.com/Carmen-Shannon/oxy3d/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies a loaded configuration: worker count, tick rate, frame limit,
// profiling, log level and renderer settings. Options given after it override its values.
//
// Parameters:
//   - cfg: the configuration, usually from config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
		e.engineTickRate = tickInterval(float64(cfg.TickRate))
		e.renderFrameLimit = frameInterval(float64(cfg.RenderFrameLimit))
		e.profilingEnabled = cfg.Profiling
	}
}

// WithLogOutput installs a text logger writing to w at the configured log level.
// Without it the engine keeps whatever logger common.SetLogger installed.
//
// Parameters:
//   - w: the log destination, e.g. os.Stderr
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogOutput(w io.Writer) EngineBuilderOption {
	return func(e *engine) {
		e.logOutput = w
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(fps)
	}
}

// WithWindow attaches a window. Its key, focus, drag, scroll and resize events are routed
// to the input keyboard, the camera controller and the surface, and a WebGPU surface is
// created for it when Run starts.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSurface sets the graphics context frames are submitted to, instead of the WebGPU
// context created for the window.
//
// Parameters:
//   - s: the surface
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithSurfaceReady registers a function called on the render goroutine once the surface
// exists, before the first frame. GPU resources are created here and registered in
// Engine.Resources.
//
// Parameters:
//   - fn: receives the surface; a window surface is a wgpu_backend.Context
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurfaceReady(fn func(s Surface)) EngineBuilderOption {
	return func(e *engine) {
		e.onSurface = fn
	}
}

// WithCamera sets the view used for depth sorting and frustum culling.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithKeyboard sets the keyboard state the input aspect reads, in place of a new one.
//
// Parameters:
//   - k: the keyboard
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyboard(k *input.Keyboard) EngineBuilderOption {
	return func(e *engine) {
		e.keyboard = k
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameInterval(fps)
	}
}
