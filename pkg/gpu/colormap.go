package gpu

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

const DefaultColorMapWidth = 256

// ColorMap is a 1D RGB lookup texture sampled by intensity.
type ColorMap struct {
	ctx         Context
	width       int
	image       []byte
	wrap        WrapMode
	texture     uint32
	initialized bool
}

func NewColorMap(ctx Context) *ColorMap {
	return &ColorMap{ctx: ctx, width: DefaultColorMapWidth}
}

func (c *ColorMap) Width() int {
	return c.width
}

func (c *ColorMap) Initialized() bool {
	return c.initialized
}

func (c *ColorMap) Image() []byte {
	return c.image
}

func (c *ColorMap) Initialise() error {
	if c.initialized {
		return nil
	}
	if c.image == nil {
		return ErrNoData
	}
	texture := c.ctx.GenTexture()
	if texture == 0 {
		return &AllocError{Resource: "colormap texture"}
	}
	c.texture = texture
	c.ctx.BindTexture1D(c.texture)
	c.ctx.TexWrap1D(c.wrap)
	c.ctx.TexLinearFilter1D()
	c.ctx.TexImage1D(c.width, c.image)
	c.ctx.BindTexture1D(0)
	c.initialized = true
	return nil
}

// SetImage stores a width x 3 RGB image. Before initialisation it is only
// cached, afterwards it is uploaded at once.
func (c *ColorMap) SetImage(rgb []byte) error {
	if len(rgb) != c.width*3 {
		return fmt.Errorf("colormap: image has %d bytes, want %d", len(rgb), c.width*3)
	}
	c.image = append(c.image[:0], rgb...)
	if c.initialized {
		c.ctx.BindTexture1D(c.texture)
		c.ctx.TexSubImage1D(c.width, c.image)
		c.ctx.BindTexture1D(0)
	}
	return nil
}

func (c *ColorMap) SetWrapMode(mode WrapMode) {
	c.wrap = mode
	if c.initialized {
		c.ctx.BindTexture1D(c.texture)
		c.ctx.TexWrap1D(mode)
		c.ctx.BindTexture1D(0)
	}
}

func (c *ColorMap) WrapMode() WrapMode {
	return c.wrap
}

// Bind binds the texture to unit 0.
func (c *ColorMap) Bind() {
	c.ctx.ActiveTexture(0)
	c.ctx.BindTexture1D(c.texture)
}

func (c *ColorMap) Delete() {
	if !c.initialized {
		return
	}
	c.ctx.DeleteTexture(c.texture)
	c.texture = 0
	c.initialized = false
}

// GradientStop is a colour at a position in [0,1].
type GradientStop struct {
	Pos   float64
	Color colorful.Color
}

// GradientLUT samples the gradient at width evenly spaced positions and
// returns width x 3 RGB bytes. Colours are blended in Lab space.
func GradientLUT(stops []GradientStop, width int) []byte {
	out := make([]byte, 0, width*3)
	if len(stops) == 0 || width <= 0 {
		return make([]byte, max(width, 0)*3)
	}
	sorted := append([]GradientStop(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })
	for i := 0; i < width; i++ {
		t := 0.0
		if width > 1 {
			t = float64(i) / float64(width-1)
		}
		r, g, b := gradientAt(sorted, t).Clamped().RGB255()
		out = append(out, r, g, b)
	}
	return out
}

func gradientAt(stops []GradientStop, t float64) colorful.Color {
	if t <= stops[0].Pos {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		lo, hi := stops[i-1], stops[i]
		if t <= hi.Pos {
			span := hi.Pos - lo.Pos
			if span <= 0 {
				return hi.Color
			}
			return lo.Color.BlendLab(hi.Color, (t-lo.Pos)/span)
		}
	}
	return stops[len(stops)-1].Color
}
