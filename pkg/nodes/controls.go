package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/lucasb-eyer/go-colorful"
)

// Control values come from chart files (YAML scalars and lists) or from Go
// callers, so each conversion accepts both shapes.

func controlError(key string, value any, want string) error {
	return fmt.Errorf("%w: %s = %v (%T), want %s", flow.ErrBadControl, key, value, value, want)
}

func toFloat(key string, value any) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	case int64:
		return float32(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			return 0, controlError(key, value, "a number")
		}
		return float32(f), nil
	}
	return 0, controlError(key, value, "a number")
}

// toRange converts value and checks it lies in [lo, hi].
func toRange(key string, value any, lo, hi float32) (float32, error) {
	f, err := toFloat(key, value)
	if err != nil {
		return 0, err
	}
	if f < lo || f > hi {
		return 0, controlError(key, value, fmt.Sprintf("a number in [%g, %g]", lo, hi))
	}
	return f, nil
}

func toInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, controlError(key, value, "an integer")
}

func toBool(key string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
	}
	return false, controlError(key, value, "a boolean")
}

func toString(key string, value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", controlError(key, value, "a string")
}

// toColor accepts "#rrggbb", a colorful.Color, an mgl32.Vec4 or a list of
// three or four components in [0,1].
func toColor(key string, value any) (mgl32.Vec4, error) {
	switch v := value.(type) {
	case mgl32.Vec4:
		return v, nil
	case [4]float32:
		return v, nil
	case colorful.Color:
		return mgl32.Vec4{float32(v.R), float32(v.G), float32(v.B), 1}, nil
	case string:
		c, err := colorful.Hex(strings.TrimSpace(v))
		if err != nil {
			return mgl32.Vec4{}, controlError(key, value, "a #rrggbb colour")
		}
		return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), 1}, nil
	case []any:
		if len(v) != 3 && len(v) != 4 {
			break
		}
		out := mgl32.Vec4{0, 0, 0, 1}
		for i, c := range v {
			f, err := toRange(key, c, 0, 1)
			if err != nil {
				return mgl32.Vec4{}, err
			}
			out[i] = f
		}
		return out, nil
	}
	return mgl32.Vec4{}, controlError(key, value, "a colour")
}

var gradientPresets = map[string][]gpu.GradientStop{
	"grey": {
		{Pos: 0, Color: colorful.Color{R: 0, G: 0, B: 0}},
		{Pos: 1, Color: colorful.Color{R: 1, G: 1, B: 1}},
	},
	"thermal": {
		{Pos: 0, Color: colorful.Color{R: 0.725, G: 0, B: 0}},
		{Pos: 0.3333, Color: colorful.Color{R: 1, G: 0.863, B: 0}},
		{Pos: 1, Color: colorful.Color{R: 1, G: 1, B: 1}},
	},
	"spectrum": {
		{Pos: 0, Color: colorful.Color{R: 1, G: 0, B: 0}},
		{Pos: 0.5, Color: colorful.Color{R: 0, G: 1, B: 0}},
		{Pos: 1, Color: colorful.Color{R: 0, G: 0, B: 1}},
	},
}

// DefaultGradient is the grey ramp.
func DefaultGradient() []gpu.GradientStop {
	return gradientPresets["grey"]
}

// toGradient accepts a preset name, a []gpu.GradientStop, or a list whose
// items are "pos #rrggbb" strings or {pos, color} maps.
func toGradient(key string, value any) ([]gpu.GradientStop, error) {
	switch v := value.(type) {
	case []gpu.GradientStop:
		return v, nil
	case string:
		if stops, ok := gradientPresets[v]; ok {
			return stops, nil
		}
		return nil, controlError(key, value, "a gradient preset")
	case []any:
		stops := make([]gpu.GradientStop, 0, len(v))
		for _, item := range v {
			stop, err := toStop(key, item)
			if err != nil {
				return nil, err
			}
			stops = append(stops, stop)
		}
		if len(stops) == 0 {
			break
		}
		return stops, nil
	}
	return nil, controlError(key, value, "a gradient")
}

func toStop(key string, item any) (gpu.GradientStop, error) {
	var pos, color any
	switch s := item.(type) {
	case string:
		fields := strings.Fields(s)
		if len(fields) != 2 {
			return gpu.GradientStop{}, controlError(key, item, `"pos #rrggbb"`)
		}
		pos, color = fields[0], fields[1]
	case map[string]any:
		pos, color = s["pos"], s["color"]
	default:
		return gpu.GradientStop{}, controlError(key, item, "a gradient stop")
	}
	p, err := toRange(key, pos, 0, 1)
	if err != nil {
		return gpu.GradientStop{}, err
	}
	c, err := toColor(key, color)
	if err != nil {
		return gpu.GradientStop{}, err
	}
	return gpu.GradientStop{Pos: float64(p), Color: colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}}, nil
}
