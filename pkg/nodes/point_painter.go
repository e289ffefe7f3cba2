package nodes

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
)

const (
	AttrPosition  = "a_position"
	AttrNormal    = "a_normal"
	AttrColor     = "a_color"
	AttrIntensity = "a_intensity"
	TermBBoxClip  = "bbox_clip"
)

// PointPainter draws a point cloud. a_position is required; a_normal,
// a_color and a_intensity are packed when connected; bbox_clip drops the
// points outside the box.
type PointPainter struct {
	painterNode
	program *shaders.Program[shaders.PointOptions]
}

// PointNodeColor is the fixed colour a new point painter node draws with.
var PointNodeColor = mgl32.Vec4{0.5, 0.5, 0, 1}

// DefaultPointNodeOptions is the variant a new point painter node starts
// with: plain unlit points that need nothing but a_position.
func DefaultPointNodeOptions() shaders.PointOptions {
	o := shaders.DefaultPointOptions()
	o.DrawMode = shaders.DrawSimple
	o.Lightning = false
	o.Color = PointNodeColor
	return o
}

func NewPointPainter(name string, s *scene.Scene) *PointPainter {
	program, err := shaders.NewPointProgram(s.Context(), DefaultPointNodeOptions())
	if err != nil {
		panic(err)
	}
	return &PointPainter{
		painterNode: newPainterNode(name, s, program.ShaderProgram, gpu.Points),
		program:     program,
	}
}

func (n *PointPainter) Options() shaders.PointOptions {
	return n.program.Options()
}

func (n *PointPainter) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: AttrPosition, Dir: flow.In},
		{Name: AttrNormal, Dir: flow.In, Optional: true},
		{Name: AttrColor, Dir: flow.In, Optional: true},
		{Name: AttrIntensity, Dir: flow.In, Optional: true},
		{Name: TermBBoxClip, Dir: flow.In, Optional: true},
		{Name: TermOut, Dir: flow.Out},
		{Name: TermBBox, Dir: flow.Out},
	}
}

// SetControl handles point_size, lightning, draw_mode, color_mode, color
// and gradient. Variant changes rebuild the program lazily; point_size and
// color are uploaded at once when the program is live.
func (n *PointPainter) SetControl(key string, value any) error {
	opts := n.program.Options()
	switch key {
	case "point_size":
		f, err := toRange(key, value, shaders.MinPointSize, shaders.MaxPointSize)
		if err != nil {
			return err
		}
		opts.PointSize = f
	case "lightning":
		b, err := toBool(key, value)
		if err != nil {
			return err
		}
		opts.Lightning = b
	case "draw_mode":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		if opts.DrawMode, err = shaders.ParseDrawMode(s); err != nil {
			return err
		}
	case "color_mode":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		if opts.ColorMode, err = shaders.ParseColorMode(s); err != nil {
			return err
		}
	case "color":
		c, err := toColor(key, value)
		if err != nil {
			return err
		}
		opts.Color = c
	case "gradient":
		stops, err := toGradient(key, value)
		if err != nil {
			return err
		}
		n.setGradient(stops)
		return nil
	default:
		return controlError(key, value, "a point painter control")
	}
	_, err := n.program.SetOptions(opts)
	return err
}

func (n *PointPainter) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	name := n.Name()
	pos, err := flow.Required[[]mgl32.Vec3](name, in, AttrPosition)
	if err != nil {
		return n.fail(err)
	}
	normals, hasNormals, err := flow.Input[[]mgl32.Vec3](name, in, AttrNormal)
	if err != nil {
		return n.fail(err)
	}
	colors, hasColors, err := flow.Input[[]mgl32.Vec4](name, in, AttrColor)
	if err != nil {
		return n.fail(err)
	}
	intensity, hasIntensity, err := flow.Input[[]float32](name, in, AttrIntensity)
	if err != nil {
		return n.fail(err)
	}
	clip, _, err := flow.Input[*geom.BBox](name, in, TermBBoxClip)
	if err != nil {
		return n.fail(err)
	}

	fields := []gpu.Field{{Name: AttrPosition, Type: gpu.Float32, Count: 3}}
	if hasNormals {
		if err := checkLen(name, AttrNormal, len(normals), len(pos)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrNormal, Type: gpu.Float32, Count: 3})
	}
	if hasIntensity {
		if err := checkLen(name, AttrIntensity, len(intensity), len(pos)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrIntensity, Type: gpu.Float32, Count: 1})
	}
	if hasColors {
		if err := checkLen(name, AttrColor, len(colors), len(pos)); err != nil {
			return n.fail(err)
		}
		fields = append(fields, gpu.Field{Name: AttrColor, Type: gpu.Float32, Count: 4})
	}

	data, err := gpu.NewStructArray(len(pos), fields...)
	if err != nil {
		return n.fail(err)
	}
	for i, p := range pos {
		setVec3(data, AttrPosition, i, p)
		if hasNormals {
			setVec3(data, AttrNormal, i, normals[i])
		}
		if hasIntensity {
			_ = data.SetFloat32(AttrIntensity, i, intensity[i])
		}
		if hasColors {
			setVec4(data, AttrColor, i, colors[i])
		}
	}
	if clip != nil && !clip.IsEmpty() {
		data = data.Filter(func(i int) bool { return clip.Contains(pos[i]) })
	}

	if err := n.upload(data); err != nil {
		return nil, err
	}
	return n.outputs(), nil
}
