//go:build !js

package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const wheelNotch = 120

type glfwWindowWrapper struct {
	window *glfw.Window
	queue  []Event
}

// NewPlatformWindowWrapper creates a hidden window with a current GL 3.3
// core context. It locks the calling goroutine to its OS thread.
func NewPlatformWindowWrapper(conf WindowConfig) (PlatformWindowWrapper, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if conf.Samples > 0 {
		glfw.WindowHint(glfw.Samples, conf.Samples)
	}

	window, err := glfw.CreateWindow(conf.Width, conf.Height, conf.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	if conf.PositionX != 0 || conf.PositionY != 0 {
		window.SetPos(conf.PositionX, conf.PositionY)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	w := &glfwWindowWrapper{window: window}
	w.installCallbacks()
	return w, nil
}

func (w *glfwWindowWrapper) push(e Event) {
	w.queue = append(w.queue, e)
}

func (w *glfwWindowWrapper) installCallbacks() {
	w.window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		label := glfw.GetKeyName(key, scancode)
		switch action {
		case glfw.Press, glfw.Repeat:
			w.push(KeyPress{Code: uint64(key), Label: label, Mods: convertMods(mods)})
		case glfw.Release:
			w.push(KeyRelease{Code: uint64(key), Label: label, Mods: convertMods(mods)})
		}
	})
	w.window.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := win.GetCursorPos()
		b := convertButton(button)
		if action == glfw.Press {
			w.push(ButtonPress{Button: b, X: x, Y: y, Mods: convertMods(mods)})
		} else {
			w.push(ButtonRelease{Button: b, X: x, Y: y, Mods: convertMods(mods)})
		}
	})
	w.window.SetCursorPosCallback(func(win *glfw.Window, x, y float64) {
		w.push(MotionNotify{X: x, Y: y, Buttons: w.heldButtons(), Mods: w.heldMods()})
	})
	w.window.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		w.push(MouseWheel{DeltaX: dx * wheelNotch, DeltaY: dy * wheelNotch, Mods: w.heldMods()})
	})
	w.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.push(Resize{Width: width, Height: height})
	})
	w.window.SetRefreshCallback(func(*glfw.Window) {
		w.push(Expose{})
	})
	w.window.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered {
			w.push(EnterNotify{})
		} else {
			w.push(LeaveNotify{})
		}
	})
	w.window.SetCloseCallback(func(*glfw.Window) {
		w.push(DestroyNotify{})
	})
}

func (w *glfwWindowWrapper) heldButtons() Buttons {
	var b Buttons
	if w.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press {
		b |= LeftHeld
	}
	if w.window.GetMouseButton(glfw.MouseButtonRight) == glfw.Press {
		b |= RightHeld
	}
	if w.window.GetMouseButton(glfw.MouseButtonMiddle) == glfw.Press {
		b |= MiddleHeld
	}
	return b
}

func (w *glfwWindowWrapper) heldMods() Modifiers {
	pressed := func(keys ...glfw.Key) bool {
		for _, k := range keys {
			if w.window.GetKey(k) == glfw.Press {
				return true
			}
		}
		return false
	}
	var m Modifiers
	if pressed(glfw.KeyLeftShift, glfw.KeyRightShift) {
		m |= ModShift
	}
	if pressed(glfw.KeyLeftControl, glfw.KeyRightControl) {
		m |= ModControl
	}
	if pressed(glfw.KeyLeftAlt, glfw.KeyRightAlt) {
		m |= ModAlt
	}
	if pressed(glfw.KeyLeftSuper, glfw.KeyRightSuper) {
		m |= ModSuper
	}
	return m
}

func convertMods(mods glfw.ModifierKey) Modifiers {
	var m Modifiers
	if mods&glfw.ModShift != 0 {
		m |= ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= ModControl
	}
	if mods&glfw.ModAlt != 0 {
		m |= ModAlt
	}
	if mods&glfw.ModSuper != 0 {
		m |= ModSuper
	}
	return m
}

func convertButton(b glfw.MouseButton) Button {
	switch b {
	case glfw.MouseButtonRight:
		return ButtonRight
	case glfw.MouseButtonMiddle:
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}

func (w *glfwWindowWrapper) Show() {
	w.window.Show()
}

func (w *glfwWindowWrapper) Close() {
	w.window.Destroy()
	glfw.Terminate()
}

func (w *glfwWindowWrapper) NextEventTimeout(timeoutMs int) Event {
	if len(w.queue) == 0 {
		if timeoutMs <= 0 {
			glfw.PollEvents()
		} else {
			glfw.WaitEventsTimeout((time.Duration(timeoutMs) * time.Millisecond).Seconds())
		}
	}
	if len(w.queue) == 0 {
		return TimeoutEvent{}
	}
	e := w.queue[0]
	w.queue = w.queue[1:]
	return e
}

func (w *glfwWindowWrapper) MakeCurrent() {
	w.window.MakeContextCurrent()
}

func (w *glfwWindowWrapper) SwapBuffers() {
	w.window.SwapBuffers()
}

func (w *glfwWindowWrapper) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

// KeyCodeEscape is the Code of KeyPress events for the Escape key.
const KeyCodeEscape = uint64(glfw.KeyEscape)
