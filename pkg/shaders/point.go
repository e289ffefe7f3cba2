package shaders

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/gpu"
)

// PointOptions select a point sprite variant. PointSize and Color only feed
// uniforms; the other fields pick the variant.
type PointOptions struct {
	DrawMode  DrawMode
	ColorMode ColorMode
	Lightning bool
	PointSize float32
	Color     mgl32.Vec4
}

func DefaultPointOptions() PointOptions {
	return PointOptions{
		DrawMode:  DrawOrientedDisk,
		ColorMode: ColorFixed,
		Lightning: true,
		PointSize: 3,
		Color:     DefaultColor,
	}
}

func (o PointOptions) defines() []string {
	var d []string
	switch o.DrawMode {
	case DrawDisk:
		d = append(d, "DRAW_MODE_DISK")
	case DrawOrientedDisk:
		d = append(d, "DRAW_MODE_ORIENTED_DISK")
	default:
		d = append(d, "DRAW_MODE_SIMPLE")
	}
	d = append(d, o.ColorMode.define())
	if o.Lightning {
		d = append(d, "LIGHTNING")
	}
	return d
}

func (o PointOptions) Variant() (gpu.Variant, error) {
	if !o.DrawMode.valid() {
		return gpu.Variant{}, &OptionError{Kind: "point", Option: "draw mode", Value: o.DrawMode}
	}
	if !o.ColorMode.valid() {
		return gpu.Variant{}, &OptionError{Kind: "point", Option: "color mode", Value: o.ColorMode}
	}
	size := mgl32.Clamp(o.PointSize, MinPointSize, MaxPointSize)

	attributes := []string{"a_position"}
	uniforms := []string{"u_model", "u_view", "u_projection", "u_point_size"}
	defaults := map[string]any{"u_point_size": size}

	if o.Lightning || o.DrawMode == DrawOrientedDisk {
		attributes = append(attributes, "a_normal")
	}
	if o.DrawMode != DrawSimple {
		uniforms = append(uniforms, "u_model_scale")
	}
	switch o.ColorMode {
	case ColorFixed:
		uniforms = append(uniforms, "u_color")
		defaults["u_color"] = o.Color
	case ColorTexture:
		attributes = append(attributes, "a_intensity")
	case ColorPerVertex:
		attributes = append(attributes, "a_color")
	}

	defines := o.defines()
	return gpu.Variant{
		Key:        variantKey("point", defines),
		Vertex:     buildSource(pointVert, defines),
		Fragment:   buildSource(pointFrag, defines),
		Attributes: attributes,
		Uniforms:   uniforms,
		Defaults:   defaults,
	}, nil
}

// PointVariants enumerates every legal point variant.
func PointVariants() []PointOptions {
	var out []PointOptions
	for dm := DrawSimple; dm <= DrawOrientedDisk; dm++ {
		for cm := ColorFixed; cm <= ColorPerVertex; cm++ {
			for _, light := range []bool{false, true} {
				o := DefaultPointOptions()
				o.DrawMode, o.ColorMode, o.Lightning = dm, cm, light
				out = append(out, o)
			}
		}
	}
	return out
}
