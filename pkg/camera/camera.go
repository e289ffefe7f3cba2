// Package camera holds the orbit camera of a viewer window: its state, the
// matrices it feeds to painters and the mouse and keyboard interaction that
// changes it.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/geom"
)

const (
	DefaultScale    = 0.1
	DefaultDistance = 2
	DefaultFOV      = 60
	DefaultNear     = 0.1
	DefaultFar      = 100
	DefaultAspect   = 4.0 / 3.0

	MinFOV   = 5
	MaxFOV   = 120
	MinScale = 1e-3
	MaxScale = 1e3

	// frameFill is the share of the shorter viewport side a framed box fills.
	frameFill = 0.8
)

// Config seeds a Camera. Zero fields fall back to the defaults above.
type Config struct {
	FOV      float32
	Near     float32
	Far      float32
	Distance float32
	Scale    float32
}

type Camera struct {
	Rotation         mgl32.Quat
	Translation      mgl32.Vec3
	Scale            float32
	Distance         float32
	FOV              float32
	Near             float32
	Far              float32
	Aspect           float32
	ModelTranslation mgl32.Vec3

	width, height int
	defaultScale  float32

	mode     Mode
	last     mgl32.Vec2
	haveLast bool
	bbox     *geom.BBox
	bboxSet  bool
}

func New(conf Config) *Camera {
	c := &Camera{
		Rotation:     mgl32.QuatIdent(),
		Scale:        orDefault(conf.Scale, DefaultScale),
		Distance:     orDefault(conf.Distance, DefaultDistance),
		FOV:          mgl32.Clamp(orDefault(conf.FOV, DefaultFOV), MinFOV, MaxFOV),
		Near:         orDefault(conf.Near, DefaultNear),
		Far:          orDefault(conf.Far, DefaultFar),
		Aspect:       DefaultAspect,
		defaultScale: orDefault(conf.Scale, DefaultScale),
	}
	return c
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// ViewMatrix is T(0,0,-distance) * R(rotation) * S(scale) * T(translation).
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return geom.Translate(0, 0, -c.Distance).
		Mul4(geom.RotationMatrix(c.Rotation)).
		Mul4(geom.Scale(c.Scale)).
		Mul4(geom.TranslateVec(c.Translation))
}

func (c *Camera) ModelMatrix() mgl32.Mat4 {
	return geom.TranslateVec(c.ModelTranslation)
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return geom.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// ModelScale is the world to view scale, used to size disk sprites.
func (c *Camera) ModelScale() float32 {
	return c.Scale
}

// SetClip updates the projection parameters driven by the window node. The
// FOV is clamped to the wheel range.
func (c *Camera) SetClip(near, far, fov float32) {
	c.Near, c.Far = near, far
	c.FOV = mgl32.Clamp(fov, MinFOV, MaxFOV)
}

// Resize records the viewport size. A zero height keeps the old aspect.
func (c *Camera) Resize(width, height int) {
	c.width, c.height = width, height
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

func (c *Camera) Size() (int, int) {
	return c.width, c.height
}

// radius is half the shorter viewport side.
func (c *Camera) radius() float32 {
	return 0.5 * float32(min(c.width, c.height))
}

// SetBBox stores the box framed by KeyFrameBounds. Framing a nil box
// resets the view.
func (c *Camera) SetBBox(b *geom.BBox) {
	c.bbox = b
	c.bboxSet = true
}

func (c *Camera) BBox() *geom.BBox {
	return c.bbox
}

// Center frames b so its X/Y extent fills 80% of the shorter viewport
// side. The Z extent is ignored. A nil or empty box resets the scale and
// the translation, a box flat in both X and Y only recentres. The scale
// stays within [MinScale, MaxScale].
func (c *Camera) Center(b *geom.BBox) {
	if b.IsEmpty() || c.width == 0 || c.height == 0 {
		c.Scale = c.defaultScale
		c.Translation = mgl32.Vec3{}
		return
	}
	w, h := float32(c.width), float32(c.height)
	mi := min(w, h)
	width := b.Width()
	// A flat axis places no limit on the scale.
	var fit float32
	if width[0] > 0 {
		fit = (w / mi) / width[0]
	}
	if width[1] > 0 {
		if sy := (h / mi) / width[1]; fit == 0 || sy < fit {
			fit = sy
		}
	}
	if fit == 0 {
		c.Scale = c.defaultScale
	} else {
		c.Scale = mgl32.Clamp(frameFill*2*fit, MinScale, MaxScale)
	}
	c.Translation = b.Center().Mul(-1)
}
