package shaders

import "github.com/kjkrol/flowvis/pkg/gpu"

// CrosshairVariant draws screen space lines in grey. It has no uniforms.
func CrosshairVariant() gpu.Variant {
	return gpu.Variant{
		Key:        "crosshair",
		Vertex:     buildSource(crosshairVert, nil),
		Fragment:   buildSource(crosshairFrag, nil),
		Attributes: []string{"a_position"},
	}
}

// CrosshairData is the two screen-centred axes, four 2D vertices.
func CrosshairData() *gpu.StructArray {
	a, err := gpu.NewStructArray(4, gpu.Field{Name: "a_position", Type: gpu.Float32, Count: 2})
	if err != nil {
		panic(err)
	}
	pts := [4][2]float32{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	for i, p := range pts {
		_ = a.SetFloat32("a_position", i, p[0], p[1])
	}
	return a
}

func NewCrosshairPainter(ctx gpu.Context) *gpu.Painter {
	program := gpu.NewShaderProgram(ctx, CrosshairVariant())
	return gpu.NewPainter(ctx, "crosshair", program, gpu.Lines, gpu.NewBuffer(ctx, CrosshairData()))
}
