package viewer

import "github.com/kjkrol/flowvis/internal/platform"

// The viewer hands platform events to callers unchanged. The aliases let
// code outside the module switch on them without importing internal/.
type (
	Event         = platform.Event
	Expose        = platform.Expose
	KeyPress      = platform.KeyPress
	KeyRelease    = platform.KeyRelease
	ButtonPress   = platform.ButtonPress
	ButtonRelease = platform.ButtonRelease
	MotionNotify  = platform.MotionNotify
	EnterNotify   = platform.EnterNotify
	LeaveNotify   = platform.LeaveNotify
	DestroyNotify = platform.DestroyNotify
	MouseWheel    = platform.MouseWheel
	Resize        = platform.Resize

	Button    = platform.Button
	Buttons   = platform.Buttons
	Modifiers = platform.Modifiers
)

const KeyCodeEscape = platform.KeyCodeEscape
