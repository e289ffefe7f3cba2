package platform

type Event interface{}

type Expose struct{}
type KeyPress struct {
	Code  uint64
	Label string
	Mods  Modifiers
}
type KeyRelease struct {
	Code  uint64
	Label string
	Mods  Modifiers
}
type ButtonPress struct {
	Button Button
	X, Y   float64
	Mods   Modifiers
}
type ButtonRelease struct {
	Button Button
	X, Y   float64
	Mods   Modifiers
}

// MotionNotify carries the buttons and modifiers held during the move.
type MotionNotify struct {
	X, Y    float64
	Buttons Buttons
	Mods    Modifiers
}
type EnterNotify struct{}
type LeaveNotify struct{}
type DestroyNotify struct{}

// MouseWheel deltas are angle deltas in eighths of a degree, 120 per notch.
type MouseWheel struct {
	DeltaX float64
	DeltaY float64
	Mods   Modifiers
}

// Resize reports the new framebuffer size in pixels.
type Resize struct {
	Width, Height int
}
type TimeoutEvent struct{}

type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonMiddle
)

type Buttons uint8

const (
	LeftHeld Buttons = 1 << iota
	RightHeld
	MiddleHeld
)

type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)
