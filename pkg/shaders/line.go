package shaders

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/gpu"
)

// LineOptions select a line variant. AlternateVColor paints every even
// vertex white and only applies to the fixed colour mode.
type LineOptions struct {
	ColorMode       ColorMode
	AlternateVColor bool
	Color           mgl32.Vec4
}

func DefaultLineOptions() LineOptions {
	return LineOptions{
		ColorMode:       ColorFixed,
		AlternateVColor: true,
		Color:           DefaultColor,
	}
}

func (o LineOptions) Variant() (gpu.Variant, error) {
	if !o.ColorMode.valid() {
		return gpu.Variant{}, &OptionError{Kind: "line", Option: "color mode", Value: o.ColorMode}
	}
	attributes := []string{"a_position"}
	uniforms := []string{"u_model", "u_view", "u_projection"}
	defaults := map[string]any{}
	defines := []string{o.ColorMode.define()}

	switch o.ColorMode {
	case ColorFixed:
		uniforms = append(uniforms, "u_color")
		defaults["u_color"] = o.Color
		if o.AlternateVColor {
			defines = append(defines, "ALTERNATE_VCOLOR")
		}
	case ColorTexture:
		attributes = append(attributes, "a_intensity")
	case ColorPerVertex:
		attributes = append(attributes, "a_color")
	}

	return gpu.Variant{
		Key:        variantKey("line", defines),
		Vertex:     buildSource(lineVert, defines),
		Fragment:   buildSource(lineFrag, defines),
		Attributes: attributes,
		Uniforms:   uniforms,
		Defaults:   defaults,
	}, nil
}

func LineVariants() []LineOptions {
	var out []LineOptions
	for cm := ColorFixed; cm <= ColorPerVertex; cm++ {
		for _, alt := range []bool{false, true} {
			o := DefaultLineOptions()
			o.ColorMode, o.AlternateVColor = cm, alt
			out = append(out, o)
		}
	}
	return out
}
