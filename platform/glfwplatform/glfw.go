package glfwplatform

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state, mirroring the
// teacher's glfwWindow in engine/window/window_glfw.go.
type glfwWindow struct {
	win *glfw.Window
}

// newGLFWWindow creates the GLFW window and wires its input callbacks
// into w's registered handlers, following newPlatformWindow's sequence.
func newGLFWWindow(w *engineWindow) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize GLFW: %w", err)
	}

	// WebGPU owns the graphics context; GLFW must not create one of its own.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create GLFW window: %w", err)
	}

	gw := &glfwWindow{win: win}
	w.glfwWin = gw
	w.running = true

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.running = false
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.onMouseMove != nil {
			w.onMouseMove(int32(xpos), int32(ypos))
		}
	})

	// Framebuffer size, not window size, since the two differ on
	// high-DPI displays and the renderer needs pixel dimensions.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// surfaceDescriptor builds a platform-appropriate wgpu.SurfaceDescriptor
// via the wgpuglfw bridge, for a backend's AttachSurfaceDescriptor.
func surfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.glfwWin == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.glfwWin.win)
}

func isRunning(w *engineWindow) bool {
	return w.glfwWin != nil && w.running && !w.glfwWin.win.ShouldClose()
}

func closeWindow(w *engineWindow) error {
	if w.glfwWin == nil {
		return fmt.Errorf("glfwplatform: window not initialized")
	}
	w.running = false
	w.glfwWin.win.SetShouldClose(true)
	w.glfwWin.win.Destroy()
	glfw.Terminate()
	return nil
}

func pollEvents(w *engineWindow) bool {
	glfw.PollEvents()
	return isRunning(w)
}
