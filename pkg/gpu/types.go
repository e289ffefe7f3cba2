package gpu

import "fmt"

type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Primitive is the draw primitive kind of a Painter.
type Primitive uint8

const (
	Points Primitive = iota
	Lines
	Triangles
	LineStrip
	LineLoop
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	case LineStrip:
		return "line_strip"
	case LineLoop:
		return "line_loop"
	default:
		return "unknown"
	}
}

type PolygonMode uint8

const (
	PolygonFill PolygonMode = iota
	PolygonLine
)

type WrapMode uint8

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
)

func (w WrapMode) String() string {
	switch w {
	case WrapRepeat:
		return "repeat"
	case WrapClampToEdge:
		return "clamp_to_edge"
	default:
		return "unknown"
	}
}

func ParseWrapMode(s string) (WrapMode, error) {
	switch s {
	case "repeat":
		return WrapRepeat, nil
	case "clamp_to_edge":
		return WrapClampToEdge, nil
	}
	return 0, fmt.Errorf("unknown wrap mode %q", s)
}

type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil
)

// Capability is a piece of fixed function state toggled with Enable.
type Capability uint8

const (
	CapDepthTest Capability = iota
	CapProgramPointSize
)
