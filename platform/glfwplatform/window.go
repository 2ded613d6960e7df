// Package glfwplatform is the windowing collaborator the frame graph
// and driver backends attach a presentation surface to. It wraps
// github.com/go-gl/glfw/v3.3/glfw, generalized so any driverapi.Driver
// that exposes an AttachSurfaceDescriptor-style hook (currently
// backend/wgpubackend) can be driven by it without depending on GLFW
// itself.
package glfwplatform

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the window is resized.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press events.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for
	// creating a WebGPU surface over this window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window and releases platform resources.
	Close() error

	// ProcessMessages runs the window message loop, blocking until the
	// window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the glfw-backed implementation of Window.
type engineWindow struct {
	title  string
	width  int
	height int

	glfwWin *glfwWindow
	running bool

	onUpdate     func()
	onResize     func(width, height int)
	onScroll     func(delta float32)
	onKeyDown    func(keyCode uint32)
	onKeyUp      func(keyCode uint32)
	onMouseMove  func(x, y int32)
}

var _ Window = (*engineWindow)(nil)

// Option configures a Window before it is opened.
type Option func(w *engineWindow)

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(w *engineWindow) { w.title = title }
}

// WithSize sets the initial window client area size in pixels.
func WithSize(width, height int) Option {
	return func(w *engineWindow) { w.width, w.height = width, height }
}

// New opens a GLFW window configured by opts, applying defaults first.
func New(opts ...Option) (Window, error) {
	w := &engineWindow{
		title:  "lumen",
		width:  1280,
		height: 720,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := newGLFWWindow(w); err != nil {
		return nil, fmt.Errorf("glfwplatform: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func())             { w.onUpdate = callback }
func (w *engineWindow) SetResizeCallback(callback func(int, int))     { w.onResize = callback }
func (w *engineWindow) SetScrollCallback(callback func(float32))      { w.onScroll = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(uint32))      { w.onKeyDown = callback }
func (w *engineWindow) SetKeyUpCallback(callback func(uint32))        { w.onKeyUp = callback }
func (w *engineWindow) SetMouseMoveCallback(callback func(int32, int32)) { w.onMouseMove = callback }

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return surfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return isRunning(w)
}

func (w *engineWindow) Close() error {
	return closeWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !pollEvents(w) {
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
