package platform

type WindowConfig struct {
	PositionX int
	PositionY int
	Width     int
	Height    int
	Title     string
	// Samples is the multisample count of the default framebuffer.
	Samples int
}

// PlatformWindowWrapper is a native window with an OpenGL 3.3 core context.
// All methods must be called from the thread that created it.
type PlatformWindowWrapper interface {
	Show()
	Close()
	// NextEventTimeout waits up to timeoutMs for an event and returns
	// TimeoutEvent when none arrived.
	NextEventTimeout(timeoutMs int) Event
	MakeCurrent()
	SwapBuffers()
	FramebufferSize() (int, int)
}
