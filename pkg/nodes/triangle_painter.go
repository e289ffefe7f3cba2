package nodes

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
)

const (
	TermTriangles = "triangles"
	TermNormals   = "normals"
)

// TrianglePainter draws a triangle soup: every three positions make one
// triangle. Normals are per vertex.
type TrianglePainter struct {
	painterNode
	program *shaders.Program[shaders.TriangleOptions]
}

func NewTrianglePainter(name string, s *scene.Scene) *TrianglePainter {
	program, err := shaders.NewTriangleProgram(s.Context(), shaders.DefaultTriangleOptions())
	if err != nil {
		panic(err)
	}
	return &TrianglePainter{
		painterNode: newPainterNode(name, s, program.ShaderProgram, gpu.Triangles),
		program:     program,
	}
}

func (n *TrianglePainter) Options() shaders.TriangleOptions {
	return n.program.Options()
}

func (n *TrianglePainter) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermTriangles, Dir: flow.In},
		{Name: TermNormals, Dir: flow.In, Optional: true},
		{Name: TermOut, Dir: flow.Out},
		{Name: TermBBox, Dir: flow.Out},
	}
}

func (n *TrianglePainter) SetControl(key string, value any) error {
	opts := n.program.Options()
	switch key {
	case "color_mode":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		mode, err := shaders.ParseColorMode(s)
		if err != nil {
			return err
		}
		if mode != shaders.ColorFixed {
			return &shaders.OptionError{Kind: "triangle", Option: "color mode", Value: mode}
		}
		return nil
	case "lightning":
		b, err := toBool(key, value)
		if err != nil {
			return err
		}
		opts.Lightning = b
	case "color":
		c, err := toColor(key, value)
		if err != nil {
			return err
		}
		opts.Color = c
	case "wireframe":
		b, err := toBool(key, value)
		if err != nil {
			return err
		}
		n.painter.Wireframe = b
		return nil
	default:
		return controlError(key, value, "a triangle painter control")
	}
	_, err := n.program.SetOptions(opts)
	return err
}

func (n *TrianglePainter) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	name := n.Name()
	tris, err := flow.Required[[]mgl32.Vec3](name, in, TermTriangles)
	if err != nil {
		return n.fail(err)
	}
	if len(tris)%3 != 0 {
		return n.fail(&flow.InputError{Node: name, Terminal: TermTriangles, Reason: fmt.Sprintf("%d vertices is not a whole number of triangles", len(tris))})
	}
	normals, hasNormals, err := flow.Input[[]mgl32.Vec3](name, in, TermNormals)
	if err != nil {
		return n.fail(err)
	}

	fields := []gpu.Field{{Name: AttrPosition, Type: gpu.Float32, Count: 3}}
	if hasNormals {
		if err := checkLen(name, TermNormals, len(normals), len(tris)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrNormal, Type: gpu.Float32, Count: 3})
	}
	data, err := gpu.NewStructArray(len(tris), fields...)
	if err != nil {
		return n.fail(err)
	}
	for i, p := range tris {
		setVec3(data, AttrPosition, i, p)
		if hasNormals {
			setVec3(data, AttrNormal, i, normals[i])
		}
	}

	if err := n.upload(data); err != nil {
		return nil, err
	}
	return n.outputs(), nil
}
