package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// BBox is an axis aligned bounding box that grows as points are added.
// The zero value is an empty box.
type BBox struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	empty bool
	init  bool
}

func NewBBox(points []mgl32.Vec3) *BBox {
	b := &BBox{}
	b.Update(points, false)
	return b
}

func (b *BBox) IsEmpty() bool {
	return b == nil || !b.init || b.empty
}

// Update grows the box to include points. NaN components are ignored. With
// reset the previous extent is discarded first.
func (b *BBox) Update(points []mgl32.Vec3, reset bool) {
	if len(points) == 0 {
		if !b.init {
			b.empty = true
		}
		return
	}
	inf := float32(math.Inf(1))
	mi := mgl32.Vec3{inf, inf, inf}
	ma := mgl32.Vec3{-inf, -inf, -inf}
	for _, p := range points {
		for i := 0; i < 3; i++ {
			v := p[i]
			if v != v {
				continue
			}
			if v < mi[i] {
				mi[i] = v
			}
			if v > ma[i] {
				ma[i] = v
			}
		}
	}
	if reset || b.IsEmpty() {
		b.Min, b.Max = mi, ma
	} else {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], mi[i])
			b.Max[i] = max(b.Max[i], ma[i])
		}
	}
	b.init = true
	b.empty = false
}

func (b *BBox) Width() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b *BBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Width().Mul(0.5))
}

// Contains reports whether p lies inside the box, borders included.
func (b *BBox) Contains(p mgl32.Vec3) bool {
	if b.IsEmpty() {
		return false
	}
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b *BBox) String() string {
	if b.IsEmpty() {
		return "BBox(empty)"
	}
	return fmt.Sprintf("BBox(min=%v max=%v)", b.Min, b.Max)
}

// ParseBBox reads comma separated points of three whitespace separated
// coordinates, e.g. "0 0 0, 1 2 3", and returns their bounding box.
func ParseBBox(s string) (*BBox, error) {
	var points []mgl32.Vec3
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("bbox point %q: want 3 coordinates, got %d", part, len(fields))
		}
		var p mgl32.Vec3
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("bbox point %q: %w", part, err)
			}
			p[i] = float32(v)
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("bbox: no points in %q", s)
	}
	return NewBBox(points), nil
}
