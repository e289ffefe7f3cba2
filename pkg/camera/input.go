package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/geom"
)

// Mode is the interaction state of the camera.
type Mode uint8

const (
	Idle Mode = iota
	Panning
	Orbiting
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case Orbiting:
		return "orbiting"
	default:
		return "idle"
	}
}

type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
)

type Key uint8

const (
	KeyNone Key = iota
	KeyResetRotation
	KeyFrameBounds
)

func (c *Camera) Mode() Mode {
	return c.mode
}

// Interacting reports whether a drag is in progress; the crosshair is shown
// while it is.
func (c *Camera) Interacting() bool {
	return c.mode != Idle
}

// screenToView maps window pixels to the unit disk centred on the viewport,
// y pointing up.
func (c *Camera) screenToView(p mgl32.Vec2) (float32, float32) {
	w, h := float32(c.width), float32(c.height)
	r := 2 * c.radius()
	return (p[0] - w/2) / r, ((h - p[1]) - h/2) / r
}

// MouseMove advances the interaction state machine. Shift drags pan, primary
// button drags orbit, anything else returns to Idle.
func (c *Camera) MouseMove(x, y float32, buttons Buttons, mods Modifiers) {
	cur := mgl32.Vec2{x, y}
	if !c.haveLast {
		c.last, c.haveLast = cur, true
	}
	switch {
	case mods == ModShift:
		c.pan(cur.Sub(c.last))
		c.mode = Panning
	case buttons == ButtonPrimary && mods == 0:
		c.orbit(c.last, cur)
		c.mode = Orbiting
	default:
		c.mode = Idle
	}
	c.last = cur
}

func (c *Camera) pan(d mgl32.Vec2) {
	r := c.radius()
	if r == 0 {
		return
	}
	s := c.Distance * float32(math.Tan(float64(mgl32.DegToRad(c.FOV))/2))
	dx, dy := s*d[0], s*d[1]
	inv := c.ViewMatrix().Inv()
	delta := inv.Mul4x1(mgl32.Vec4{dx / r, -dy / r, 0, 0})
	c.Translation = c.Translation.Add(delta.Vec3())
}

func (c *Camera) orbit(from, to mgl32.Vec2) {
	if c.radius() == 0 {
		return
	}
	x0, y0 := c.screenToView(from)
	x1, y1 := c.screenToView(to)
	v0 := geom.Arcball(x0, y0)
	v1 := geom.Arcball(x1, y1)
	c.Rotation = geom.Product(v1, v0, c.Rotation)
}

// Wheel zooms. dx and dy are angle deltas in eighths of a degree, 120 per
// notch. With Shift the FOV changes and the distance follows so the scene
// keeps its apparent size.
func (c *Camera) Wheel(dx, dy float32, mods Modifiers) {
	ticks := (dy + dx) / 50
	if mods == ModShift {
		old := c.FOV
		c.FOV = mgl32.Clamp(c.FOV+ticks, MinFOV, MaxFOV)
		c.Distance *= halfTan(old) / halfTan(c.FOV)
		return
	}
	c.Scale = mgl32.Clamp(c.Scale*(ticks/30+1), MinScale, MaxScale)
}

func halfTan(fovDeg float32) float32 {
	return float32(math.Tan(float64(mgl32.DegToRad(fovDeg)) / 2))
}

// Key handles the camera shortcuts. It reports whether the key was used.
func (c *Camera) Key(k Key) bool {
	switch k {
	case KeyResetRotation:
		c.Rotation = mgl32.QuatIdent()
	case KeyFrameBounds:
		if c.bboxSet {
			c.Center(c.bbox)
		}
	default:
		return false
	}
	return true
}
