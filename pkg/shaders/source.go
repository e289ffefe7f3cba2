// Package shaders holds the closed set of shader variants used by the
// painters. Each painter kind has an options struct; every legal options
// value maps to exactly one Variant with the attribute and uniform names its
// sources declare.
package shaders

import (
	_ "embed"
	"strings"
)

var (
	//go:embed glsl/point.vert
	pointVert string
	//go:embed glsl/point.frag
	pointFrag string
	//go:embed glsl/line.vert
	lineVert string
	//go:embed glsl/line.frag
	lineFrag string
	//go:embed glsl/triangle.vert
	triangleVert string
	//go:embed glsl/triangle.frag
	triangleFrag string
	//go:embed glsl/crosshair.vert
	crosshairVert string
	//go:embed glsl/crosshair.frag
	crosshairFrag string
)

func buildSource(body string, defines []string) string {
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	for _, d := range defines {
		sb.WriteString("#define " + d + "\n")
	}
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// variantKey is a stable name for a define set.
func variantKey(kind string, defines []string) string {
	if len(defines) == 0 {
		return kind
	}
	return kind + "+" + strings.ToLower(strings.Join(defines, "+"))
}
