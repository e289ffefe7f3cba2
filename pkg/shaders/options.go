package shaders

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type DrawMode uint8

const (
	DrawSimple DrawMode = iota
	DrawDisk
	DrawOrientedDisk
)

var drawModeNames = []string{"simple", "disk", "oriented_disk"}

func (m DrawMode) String() string {
	if int(m) < len(drawModeNames) {
		return drawModeNames[m]
	}
	return fmt.Sprintf("DrawMode(%d)", m)
}

func (m DrawMode) valid() bool {
	return int(m) < len(drawModeNames)
}

func ParseDrawMode(s string) (DrawMode, error) {
	for i, n := range drawModeNames {
		if n == s {
			return DrawMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown draw mode %q", s)
}

type ColorMode uint8

const (
	ColorFixed ColorMode = iota
	ColorTexture
	ColorPerVertex
)

var colorModeNames = []string{"fixed", "texture", "color"}

func (m ColorMode) String() string {
	if int(m) < len(colorModeNames) {
		return colorModeNames[m]
	}
	return fmt.Sprintf("ColorMode(%d)", m)
}

func (m ColorMode) valid() bool {
	return int(m) < len(colorModeNames)
}

func ParseColorMode(s string) (ColorMode, error) {
	for i, n := range colorModeNames {
		if n == s {
			return ColorMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color mode %q", s)
}

func (m ColorMode) define() string {
	switch m {
	case ColorTexture:
		return "COLOR_MODE_TEXTURE"
	case ColorPerVertex:
		return "COLOR_MODE_COLOR"
	default:
		return "COLOR_MODE_FIXED"
	}
}

const (
	MinPointSize = 1
	MaxPointSize = 200
)

var DefaultColor = mgl32.Vec4{1, 1, 0, 1}

// OptionError reports an options value outside the closed variant set.
type OptionError struct {
	Kind   string
	Option string
	Value  fmt.Stringer
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s shader: invalid %s %s", e.Kind, e.Option, e.Value)
}
