package nodes

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
)

const (
	TermStart     = "start"
	TermEnd       = "end"
	TermIntensity = "intensity"
	TermColor     = "color"
)

// LinePainter draws one segment per start/end pair. Vertices are
// interleaved start0, end0, start1, end1; intensity and color are per
// segment and repeated for both ends.
type LinePainter struct {
	painterNode
	program *shaders.Program[shaders.LineOptions]
}

func NewLinePainter(name string, s *scene.Scene) *LinePainter {
	program, err := shaders.NewLineProgram(s.Context(), shaders.DefaultLineOptions())
	if err != nil {
		panic(err)
	}
	return &LinePainter{
		painterNode: newPainterNode(name, s, program.ShaderProgram, gpu.Lines),
		program:     program,
	}
}

func (n *LinePainter) Options() shaders.LineOptions {
	return n.program.Options()
}

func (n *LinePainter) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermStart, Dir: flow.In},
		{Name: TermEnd, Dir: flow.In},
		{Name: TermIntensity, Dir: flow.In, Optional: true},
		{Name: TermColor, Dir: flow.In, Optional: true},
		{Name: TermOut, Dir: flow.Out},
		{Name: TermBBox, Dir: flow.Out},
	}
}

func (n *LinePainter) SetControl(key string, value any) error {
	opts := n.program.Options()
	switch key {
	case "color_mode":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		if opts.ColorMode, err = shaders.ParseColorMode(s); err != nil {
			return err
		}
	case "alternate_vcolor":
		b, err := toBool(key, value)
		if err != nil {
			return err
		}
		opts.AlternateVColor = b
	case "color":
		c, err := toColor(key, value)
		if err != nil {
			return err
		}
		opts.Color = c
	case "wrap_mode":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		mode, err := gpu.ParseWrapMode(s)
		if err != nil {
			return err
		}
		n.colormap.SetWrapMode(mode)
		return nil
	case "gradient":
		stops, err := toGradient(key, value)
		if err != nil {
			return err
		}
		n.setGradient(stops)
		return nil
	default:
		return controlError(key, value, "a line painter control")
	}
	_, err := n.program.SetOptions(opts)
	return err
}

func (n *LinePainter) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	name := n.Name()
	start, err := flow.Required[[]mgl32.Vec3](name, in, TermStart)
	if err != nil {
		return n.fail(err)
	}
	end, err := flow.Required[[]mgl32.Vec3](name, in, TermEnd)
	if err != nil {
		return n.fail(err)
	}
	if err := checkLen(name, TermEnd, len(end), len(start)); err != nil {
		return n.fail(err)
	}
	intensity, hasIntensity, err := flow.Input[[]float32](name, in, TermIntensity)
	if err != nil {
		return n.fail(err)
	}
	colors, hasColors, err := flow.Input[[]mgl32.Vec4](name, in, TermColor)
	if err != nil {
		return n.fail(err)
	}

	fields := []gpu.Field{{Name: AttrPosition, Type: gpu.Float32, Count: 3}}
	if hasIntensity {
		if err := checkLen(name, TermIntensity, len(intensity), len(start)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrIntensity, Type: gpu.Float32, Count: 1})
	}
	if hasColors {
		if err := checkLen(name, TermColor, len(colors), len(start)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrColor, Type: gpu.Float32, Count: 4})
	}

	data, err := gpu.NewStructArray(2*len(start), fields...)
	if err != nil {
		return n.fail(err)
	}
	for i := range start {
		for k, p := range [2]mgl32.Vec3{start[i], end[i]} {
			v := 2*i + k
			setVec3(data, AttrPosition, v, p)
			if hasIntensity {
				_ = data.SetFloat32(AttrIntensity, v, intensity[i])
			}
			if hasColors {
				setVec4(data, AttrColor, v, colors[i])
			}
		}
	}

	if err := n.upload(data); err != nil {
		return nil, err
	}
	return n.outputs(), nil
}
