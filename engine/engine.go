package engine

import (
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/animation"
	"github.com/Carmen-Shannon/oxy3d/engine/arbiter"
	"github.com/Carmen-Shannon/oxy3d/engine/camera"
	"github.com/Carmen-Shannon/oxy3d/engine/config"
	"github.com/Carmen-Shannon/oxy3d/engine/input"
	"github.com/Carmen-Shannon/oxy3d/engine/jobs"
	"github.com/Carmen-Shannon/oxy3d/engine/postman"
	"github.com/Carmen-Shannon/oxy3d/engine/profiler"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy3d/engine/scene"
	"github.com/Carmen-Shannon/oxy3d/engine/window"
)

// Surface is the graphics context frames are presented through. wgpu_backend.Context
// satisfies it.
type Surface interface {
	renderer.GraphicsContext

	ConfigureSurface(width, height int)
	BeginFrame() error
	EndFrame()
	Present()
}

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	started atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	closeOnce   sync.Once

	cfg       config.Config
	logOutput io.Writer

	window    window.Window
	surface   Surface
	onSurface func(s Surface)
	// pendingSize holds a resize not yet applied to the surface, packed as width<<32 | height.
	pendingSize atomic.Uint64

	jobManager jobs.JobManager
	arbiter    arbiter.Arbiter
	scene      scene.Scene
	postman    postman.Postman

	renderAspect    render.Aspect
	animationAspect animation.Aspect
	inputAspect     input.Aspect
	keyboard        *input.Keyboard

	resources *renderer.ResourceTable
	builder   renderer.CommandBuilder
	renderer  renderer.Renderer
	camera    camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	// frameMu serializes Frame; elapsed is the animation clock in seconds.
	frameMu *sync.Mutex
	elapsed float64

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It owns the job system, the change arbiter, the frontend scene and the backend aspects,
// and orchestrates the tick loop, the render loop and the window.
type Engine interface {
	// Window returns the underlying window, or nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Arbiter returns the change arbiter every frontend and backend change flows through.
	Arbiter() arbiter.Arbiter

	// Postman returns the postman that applies backend changes to frontend nodes.
	Postman() postman.Postman

	// Scene returns the frontend scene. Nodes added to it are mirrored by the aspects.
	Scene() scene.Scene

	// Config returns the configuration the engine was built with.
	Config() config.Config

	RenderAspect() render.Aspect
	AnimationAspect() animation.Aspect
	InputAspect() input.Aspect

	// Resources returns the table the command builder resolves GPU handles from.
	Resources() *renderer.ResourceTable

	// CommandBuilder returns the builder used each frame, for filter configuration.
	CommandBuilder() renderer.CommandBuilder

	// Camera returns the view used for depth sorting and culling.
	Camera() camera.Camera

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after backend changes
	// were delivered to the frontend. Use this for game logic that mutates scene nodes.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Tick delivers pending backend changes to the frontend nodes and runs the tick callback.
	// Run calls it at the tick rate; headless callers may drive it directly.
	//
	// Parameters:
	//   - dt: seconds since the previous tick
	//
	// Returns:
	//   - int: the number of backend changes applied
	Tick(dt float32) int

	// Frame runs one backend frame: animation and input jobs on the worker pool, change
	// distribution, command building and submission to the surface, if any.
	// Run calls it from the render goroutine; headless callers may drive it directly.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - renderer.FrameStats: the submission statistics; zero without a surface
	Frame(dt float64) renderer.FrameStats

	// Run starts the tick and render loops. With a window it runs the message loop on the
	// calling goroutine and blocks until the window closes; headless it blocks until Quit.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Builds the job manager, the arbiter, the scene and postman, and the render, animation and
// input aspects registered as scene observers. The graphics surface is created on the render
// goroutine when Run starts, unless one is supplied with WithSurface.
//
// Parameters:
//   - options: functional options for engine configuration (config, window, camera, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		cfg:             config.Default(),
		frameMu:         &sync.Mutex{},
		profiler:        profiler.NewProfiler(),
		resources:       renderer.NewResourceTable(),
	}
	e.engineTickRate = tickInterval(float64(e.cfg.TickRate))

	for _, opt := range options {
		opt(e)
	}
	e.installLogger()

	workers := e.cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	e.jobManager = jobs.NewJobManager(jobs.WithWorkerCount(workers))
	e.arbiter = arbiter.NewArbiter(arbiter.WithJobManager(e.jobManager))
	e.scene = scene.NewScene("main", e.arbiter)
	e.postman = postman.NewPostman(postman.WithScene(e.scene), postman.WithBackend(e.arbiter))
	e.arbiter.SetPostman(e.postman)

	if e.keyboard == nil {
		e.keyboard = input.NewKeyboard()
	}
	e.renderAspect = render.NewAspect(e.arbiter, render.WithNotifier(e.arbiter))
	e.animationAspect = animation.NewAspect(e.arbiter, animation.WithNotifier(e.arbiter))
	e.inputAspect = input.NewAspect(e.arbiter, input.WithNotifier(e.arbiter), input.WithKeyboard(e.keyboard))
	e.arbiter.RegisterSceneObserver(e.renderAspect)
	e.arbiter.RegisterSceneObserver(e.animationAspect)
	e.arbiter.RegisterSceneObserver(e.inputAspect)

	sortPolicy, err := renderer.ParseSortPolicy(e.cfg.Renderer.SortPolicy)
	if err != nil {
		common.Logger().Warn("engine: falling back to default sort policy", "error", err)
		sortPolicy = renderer.SortStateChanges
	}
	e.renderer = renderer.NewRenderer()
	e.builder = renderer.NewCommandBuilder(e.renderAspect, e.resources,
		renderer.WithWorkers(workers),
		renderer.WithSortPolicy(sortPolicy),
		renderer.WithFrustumCulling(e.cfg.Renderer.FrustumCulling),
		renderer.WithDefaultStateSet(e.renderer.DefaultStateSet()),
	)

	if e.camera == nil {
		e.camera = camera.NewCamera()
	}
	if e.window != nil {
		e.bindWindow()
	}

	common.Logger().Info("engine: created", "workers", workers, "tick_rate", e.cfg.TickRate, "headless", e.window == nil)
	return e
}

// installLogger replaces the engine logger when a log writer was configured.
func (e *engine) installLogger() {
	if e.logOutput == nil {
		return
	}
	level, err := e.cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	common.SetLogger(slog.New(slog.NewTextHandler(e.logOutput, &slog.HandlerOptions{Level: level})))
}

// bindWindow routes window events to the keyboard, the camera and the surface.
func (e *engine) bindWindow() {
	w := e.window
	if w.Width() > 0 && w.Height() > 0 {
		e.camera.SetAspect(float32(w.Width()) / float32(w.Height()))
	}
	w.SetKeyCallback(func(key common.KeyCode, pressed bool) {
		if pressed {
			e.keyboard.KeyDown(key)
		} else {
			e.keyboard.KeyUp(key)
		}
	})
	w.SetFocusCallback(func(focused bool) {
		if !focused {
			e.keyboard.Reset()
		}
	})
	w.SetResizeCallback(e.resize)
	// The window is closed from its own thread once quit was signalled.
	w.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			if err := w.Close(); err != nil {
				common.Logger().Warn("engine: closing window", "error", err)
			}
		default:
		}
	})
	w.SetDragCallback(func(dx, dy float32) {
		if orbit, ok := e.camera.Controller().(camera.OrbitController); ok {
			orbit.Orbit(dx, dy)
		}
	})
	w.SetScrollCallback(func(delta float32) {
		if orbit, ok := e.camera.Controller().(camera.OrbitController); ok {
			orbit.Zoom(delta)
		}
	})
}

// resize updates the camera and defers the surface reconfiguration to the render goroutine,
// which owns the graphics context.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.camera.SetAspect(float32(width) / float32(height))
	e.pendingSize.Store(uint64(width)<<32 | uint64(uint32(height)))
}

func (e *engine) Window() window.Window                   { return e.window }
func (e *engine) Arbiter() arbiter.Arbiter                { return e.arbiter }
func (e *engine) Postman() postman.Postman                { return e.postman }
func (e *engine) Scene() scene.Scene                      { return e.scene }
func (e *engine) Config() config.Config                   { return e.cfg }
func (e *engine) RenderAspect() render.Aspect             { return e.renderAspect }
func (e *engine) AnimationAspect() animation.Aspect       { return e.animationAspect }
func (e *engine) InputAspect() input.Aspect               { return e.inputAspect }
func (e *engine) Resources() *renderer.ResourceTable      { return e.resources }
func (e *engine) CommandBuilder() renderer.CommandBuilder { return e.builder }
func (e *engine) Camera() camera.Camera                   { return e.camera }

func (e *engine) Tick(dt float32) int {
	n := e.postman.Flush()
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
	return n
}

func (e *engine) Frame(dt float64) renderer.FrameStats {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	e.elapsed += dt
	work := e.animationAspect.Jobs(e.elapsed)
	work = append(work, e.inputAspect.Jobs(dt)...)
	if len(work) > 0 {
		if err := e.jobManager.Run(work...); err != nil {
			common.Logger().Warn("engine: frame jobs not run", "error", err)
		}
	}
	e.arbiter.SyncChanges()

	e.camera.Update()
	cmds := e.builder.Build(e.camera)

	var stats renderer.FrameStats
	if e.surface != nil {
		if packed := e.pendingSize.Swap(0); packed != 0 {
			e.surface.ConfigureSurface(int(packed>>32), int(uint32(packed)))
		}
		if err := e.surface.BeginFrame(); err != nil {
			common.Logger().Debug("engine: frame skipped", "error", err)
		} else {
			stats = e.renderer.Submit(e.surface, cmds)
			e.surface.EndFrame()
			e.surface.Present()
		}
	}

	if e.profilingEnabled {
		e.profiler.Tick(stats)
	}
	return stats
}

func (e *engine) Run() {
	e.started.Store(true)
	e.running.Store(true)
	e.handle()
	common.Logger().Info("engine: started")
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
	if !e.started.Load() {
		e.shutdown()
	}
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// shutdown releases the arbiter queues and stops the workers.
func (e *engine) shutdown() {
	e.closeOnce.Do(func() {
		e.arbiter.Close()
		e.builder.Close()
		e.jobManager.Close()
		common.Logger().Info("engine: stopped")
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Delivers backend changes and fires the tick callback at the configured tick rate, and
// listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// The graphics context is created here when a window is attached, since it must be used
// from the goroutine that created it.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine: render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	if e.surface == nil && e.window != nil {
		e.surface = e.newWGPUSurface()
	}
	if e.surface != nil && e.onSurface != nil {
		e.onSurface(e.surface)
	}

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := now.Sub(lastRender).Seconds()
			lastRender = now

			e.Frame(dt)

			if e.renderCallback != nil {
				e.renderCallback(float32(dt))
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// newWGPUSurface creates the WebGPU context for the window from the renderer settings.
func (e *engine) newWGPUSurface() Surface {
	mode, err := wgpu_backend.ParsePresentMode(e.cfg.Renderer.PresentMode)
	if err != nil {
		common.Logger().Warn("engine: falling back to vsync", "error", err)
		mode = wgpu_backend.PresentModeVSync
	}
	ctx := wgpu_backend.NewContext(e.window.SurfaceDescriptor(),
		wgpu_backend.WithPresentMode(mode),
		wgpu_backend.WithMSAA(wgpu_backend.MSAASampleCount(e.cfg.Renderer.MSAA)),
		wgpu_backend.WithForceSoftwareRenderer(e.cfg.Renderer.ForceSoftware),
	)
	ctx.ConfigureSurface(e.window.Width(), e.window.Height())
	return ctx
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameInterval(fps)
}

// tickInterval converts a tick rate to a ticker period; non-positive rates mean 60Hz.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 || math.IsNaN(fps) {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

// frameInterval converts a frame cap to a minimum frame duration; 0 means uncapped.
func frameInterval(fps float64) time.Duration {
	if fps <= 0 || math.IsNaN(fps) {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
