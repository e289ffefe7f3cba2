package shaders

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/gpu"
)

// TriangleOptions select a mesh variant. Meshes are always drawn with a
// fixed colour; wireframe is a painter flag, not a shader option.
type TriangleOptions struct {
	Lightning bool
	Color     mgl32.Vec4
}

func DefaultTriangleOptions() TriangleOptions {
	return TriangleOptions{Lightning: true, Color: DefaultColor}
}

func (o TriangleOptions) Variant() (gpu.Variant, error) {
	attributes := []string{"a_position"}
	var defines []string
	if o.Lightning {
		attributes = append(attributes, "a_normal")
		defines = append(defines, "LIGHTNING")
	}
	return gpu.Variant{
		Key:        variantKey("triangle", defines),
		Vertex:     buildSource(triangleVert, defines),
		Fragment:   buildSource(triangleFrag, defines),
		Attributes: attributes,
		Uniforms:   []string{"u_model", "u_view", "u_projection", "u_color"},
		Defaults:   map[string]any{"u_color": o.Color},
	}, nil
}

func TriangleVariants() []TriangleOptions {
	return []TriangleOptions{
		{Lightning: false, Color: DefaultColor},
		{Lightning: true, Color: DefaultColor},
	}
}
