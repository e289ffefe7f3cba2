package nodes

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
)

// PointSource reads an ASCII point file, one "x y z [nx ny nz]" record per
// line. Blank lines and lines starting with '#' are skipped. Normals are
// output only when every record has them.
type PointSource struct {
	flow.Base
	path string
}

func NewPointSource(name string) *PointSource {
	return &PointSource{Base: flow.NewBase(name)}
}

func (n *PointSource) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: AttrPosition, Dir: flow.Out},
		{Name: AttrNormal, Dir: flow.Out},
		{Name: AttrIntensity, Dir: flow.Out},
	}
}

func (n *PointSource) SetControl(key string, value any) error {
	if key != "path" {
		return controlError(key, value, "path")
	}
	s, err := toString(key, value)
	if err != nil {
		return err
	}
	n.path = s
	return nil
}

func (n *PointSource) Process(_ context.Context, _ flow.Inputs) (flow.Outputs, error) {
	if n.path == "" {
		return nil, fmt.Errorf("point source %s: no path set", n.Name())
	}
	f, err := os.Open(n.path)
	if err != nil {
		return nil, fmt.Errorf("point source %s: %w", n.Name(), err)
	}
	defer f.Close()

	var pos, normals []mgl32.Vec3
	withNormals := true
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 && len(fields) != 6 {
			return nil, fmt.Errorf("%s:%d: want 3 or 6 numbers, got %d", n.path, line, len(fields))
		}
		var v [6]float32
		for i, s := range fields {
			x, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", n.path, line, err)
			}
			v[i] = float32(x)
		}
		pos = append(pos, mgl32.Vec3{v[0], v[1], v[2]})
		if len(fields) == 6 {
			normals = append(normals, mgl32.Vec3{v[3], v[4], v[5]})
		} else {
			withNormals = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("point source %s: %w", n.Name(), err)
	}

	out := flow.Outputs{AttrPosition: pos, AttrIntensity: heightIntensity(pos)}
	if withNormals && len(normals) > 0 {
		out[AttrNormal] = normals
	}
	return out, nil
}

// heightIntensity maps z linearly onto [0,1]. A flat cloud maps to 0.
func heightIntensity(pos []mgl32.Vec3) []float32 {
	out := make([]float32, len(pos))
	if len(pos) == 0 {
		return out
	}
	lo, hi := pos[0][2], pos[0][2]
	for _, p := range pos {
		lo, hi = min(lo, p[2]), max(hi, p[2])
	}
	if hi == lo {
		return out
	}
	for i, p := range pos {
		out[i] = (p[2] - lo) / (hi - lo)
	}
	return out
}

// Sphere samples a Fibonacci sphere: count points spread evenly over a
// sphere of the given radius, with outward normals.
type Sphere struct {
	flow.Base
	count  int
	radius float32
}

func NewSphere(name string) *Sphere {
	return &Sphere{Base: flow.NewBase(name), count: 1000, radius: 1}
}

func (n *Sphere) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: AttrPosition, Dir: flow.Out},
		{Name: AttrNormal, Dir: flow.Out},
		{Name: AttrIntensity, Dir: flow.Out},
	}
}

func (n *Sphere) SetControl(key string, value any) error {
	switch key {
	case "count":
		c, err := toInt(key, value)
		if err != nil {
			return err
		}
		if c < 1 {
			return controlError(key, value, "a positive count")
		}
		n.count = c
	case "radius":
		r, err := toFloat(key, value)
		if err != nil {
			return err
		}
		if r <= 0 {
			return controlError(key, value, "a positive radius")
		}
		n.radius = r
	default:
		return controlError(key, value, "count or radius")
	}
	return nil
}

func (n *Sphere) Process(_ context.Context, _ flow.Inputs) (flow.Outputs, error) {
	pos, normals := fibonacciSphere(n.count, n.radius)
	return flow.Outputs{
		AttrPosition:  pos,
		AttrNormal:    normals,
		AttrIntensity: heightIntensity(pos),
	}, nil
}

func fibonacciSphere(count int, radius float32) (pos, normals []mgl32.Vec3) {
	golden := math.Pi * (3 - math.Sqrt(5))
	pos = make([]mgl32.Vec3, count)
	normals = make([]mgl32.Vec3, count)
	for i := 0; i < count; i++ {
		y := 1.0
		if count > 1 {
			y = 1 - 2*float64(i)/float64(count-1)
		}
		r := math.Sqrt(max(0, 1-y*y))
		theta := golden * float64(i)
		nrm := mgl32.Vec3{float32(math.Cos(theta) * r), float32(y), float32(math.Sin(theta) * r)}
		normals[i] = nrm
		pos[i] = nrm.Mul(radius)
	}
	return pos, normals
}

// LineSource builds normal spokes: start is each position and end is the
// position moved length along its normal.
type LineSource struct {
	flow.Base
	length float32
}

func NewLineSource(name string) *LineSource {
	return &LineSource{Base: flow.NewBase(name), length: 0.1}
}

func (n *LineSource) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: AttrPosition, Dir: flow.In},
		{Name: AttrNormal, Dir: flow.In},
		{Name: TermStart, Dir: flow.Out},
		{Name: TermEnd, Dir: flow.Out},
	}
}

func (n *LineSource) SetControl(key string, value any) error {
	if key != "length" {
		return controlError(key, value, "length")
	}
	l, err := toFloat(key, value)
	if err != nil {
		return err
	}
	n.length = l
	return nil
}

func (n *LineSource) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	pos, err := flow.Required[[]mgl32.Vec3](n.Name(), in, AttrPosition)
	if err != nil {
		return nil, err
	}
	normals, err := flow.Required[[]mgl32.Vec3](n.Name(), in, AttrNormal)
	if err != nil {
		return nil, err
	}
	if err := checkLen(n.Name(), AttrNormal, len(normals), len(pos)); err != nil {
		return nil, err
	}
	end := make([]mgl32.Vec3, len(pos))
	for i, p := range pos {
		end[i] = p.Add(normals[i].Mul(n.length))
	}
	return flow.Outputs{TermStart: pos, TermEnd: end}, nil
}

// TriangleSource fans a regular polygon in the z=0 plane into triangles
// around its centre. All normals point along +z.
type TriangleSource struct {
	flow.Base
	sides  int
	radius float32
}

func NewTriangleSource(name string) *TriangleSource {
	return &TriangleSource{Base: flow.NewBase(name), sides: 6, radius: 1}
}

func (n *TriangleSource) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermTriangles, Dir: flow.Out},
		{Name: TermNormals, Dir: flow.Out},
	}
}

func (n *TriangleSource) SetControl(key string, value any) error {
	switch key {
	case "sides":
		s, err := toInt(key, value)
		if err != nil {
			return err
		}
		if s < 3 {
			return controlError(key, value, "at least 3 sides")
		}
		n.sides = s
	case "radius":
		r, err := toFloat(key, value)
		if err != nil {
			return err
		}
		n.radius = r
	default:
		return controlError(key, value, "sides or radius")
	}
	return nil
}

func (n *TriangleSource) Process(_ context.Context, _ flow.Inputs) (flow.Outputs, error) {
	tris := make([]mgl32.Vec3, 0, 3*n.sides)
	normals := make([]mgl32.Vec3, 0, 3*n.sides)
	corner := func(i int) mgl32.Vec3 {
		a := 2 * math.Pi * float64(i%n.sides) / float64(n.sides)
		return mgl32.Vec3{n.radius * float32(math.Cos(a)), n.radius * float32(math.Sin(a)), 0}
	}
	up := mgl32.Vec3{0, 0, 1}
	for i := 0; i < n.sides; i++ {
		tris = append(tris, mgl32.Vec3{}, corner(i), corner(i+1))
		normals = append(normals, up, up, up)
	}
	return flow.Outputs{TermTriangles: tris, TermNormals: normals}, nil
}
