package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window represents a platform window hosting the render surface and producing input events.
// Event callbacks run on the thread that calls ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback sets the callback for key presses and releases. Key repeats are
	// reported as presses.
	//
	// Parameters:
	//   - callback: function receiving the key code and whether it is now held
	SetKeyCallback(callback func(key common.KeyCode, pressed bool))

	// SetFocusCallback sets the callback for focus changes. Keys released while the window
	// is unfocused never reach the key callback, so listeners usually reset key state here.
	//
	// Parameters:
	//   - callback: function receiving true on focus gain and false on focus loss
	SetFocusCallback(callback func(focused bool))

	// SetDragCallback sets the callback for cursor movement while the middle mouse button
	// is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels since the last event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	title string

	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// width and height are the framebuffer size in pixels, which differs from the
	// requested size on high-DPI displays.
	width  int
	height int

	closeOnEscape bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	dragging     bool
	lastX, lastY float64

	onUpdate func()
	onResize func(width, height int)
	onScroll func(delta float32)
	onKey    func(key common.KeyCode, pressed bool)
	onFocus  func(focused bool)
	onDrag   func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and spawns a new Window with the specified options.
// Applies default values first, then each option in order.
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:         "oxy3d",
		maxWidth:      3840,
		maxHeight:     2160,
		minWidth:      320,
		minHeight:     200,
		width:         1280,
		height:        720,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	common.Logger().Info("window: opened", "title", w.title, "width", w.width, "height", w.height)
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func())                              { w.onUpdate = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int))             { w.onResize = callback }
func (w *engineWindow) SetScrollCallback(callback func(delta float32))                 { w.onScroll = callback }
func (w *engineWindow) SetKeyCallback(callback func(key common.KeyCode, pressed bool)) { w.onKey = callback }
func (w *engineWindow) SetFocusCallback(callback func(focused bool))                   { w.onFocus = callback }
func (w *engineWindow) SetDragCallback(callback func(dx, dy float32))                  { w.onDrag = callback }

// keyEvent forwards a key transition; it reports whether the window should close.
func (w *engineWindow) keyEvent(key common.KeyCode, pressed bool) bool {
	if w.closeOnEscape && key == common.KeyEsc && pressed {
		return true
	}
	if w.onKey != nil {
		w.onKey(key, pressed)
	}
	return false
}

func (w *engineWindow) focusEvent(focused bool) {
	if !focused {
		w.dragging = false
	}
	if w.onFocus != nil {
		w.onFocus(focused)
	}
}

func (w *engineWindow) dragButton(pressed bool, x, y float64) {
	w.dragging = pressed
	w.lastX, w.lastY = x, y
}

func (w *engineWindow) cursorMoved(x, y float64) {
	if !w.dragging {
		return
	}
	dx, dy := x-w.lastX, y-w.lastY
	w.lastX, w.lastY = x, y
	if w.onDrag != nil && (dx != 0 || dy != 0) {
		w.onDrag(float32(dx), float32(dy))
	}
}

func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int  { return w.width }
func (w *engineWindow) Height() int { return w.height }
