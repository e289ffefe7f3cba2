package geom_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArcball_InsideDiskLandsOnHemisphere(t *testing.T) {
	q := geom.Arcball(0.3, 0.4)
	assert.Equal(t, float32(0), q.W)
	assert.InDelta(t, 1.0, q.V.Len(), 1e-6)
	assert.InDelta(t, math.Sqrt(1-0.25), q.V[2], 1e-6)
}

func TestArcball_OutsideDiskLandsOnEdge(t *testing.T) {
	q := geom.Arcball(3, 4)
	assert.InDelta(t, 0.6, q.V[0], 1e-6)
	assert.InDelta(t, 0.8, q.V[1], 1e-6)
	assert.Equal(t, float32(0), q.V[2])
}

func TestProduct_EmptyIsIdentity(t *testing.T) {
	assert.Equal(t, mgl32.QuatIdent(), geom.Product())
}

func TestProduct_SameArcballPointIsHalfTurn(t *testing.T) {
	v := geom.Arcball(0, 0)
	p := geom.Product(v, v)
	// a pure unit quaternion squared is -1, i.e. the identity rotation
	m := geom.RotationMatrix(p)
	assert.True(t, m.ApproxEqualThreshold(mgl32.Ident4(), 1e-6))
}

func TestPerspective_UsesDegrees(t *testing.T) {
	got := geom.Perspective(90, 1, 1, 10)
	want := mgl32.Perspective(float32(math.Pi/2), 1, 1, 10)
	assert.True(t, got.ApproxEqual(want))
}

func TestBBox_IgnoresNaN(t *testing.T) {
	nan := float32(math.NaN())
	b := geom.NewBBox([]mgl32.Vec3{{0, nan, 0}, {2, 4, 6}, {-2, 0, nan}})
	require.False(t, b.IsEmpty())
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, b.Max)
	assert.Equal(t, mgl32.Vec3{0, 2, 3}, b.Center())
	assert.Equal(t, mgl32.Vec3{4, 4, 6}, b.Width())
}

func TestBBox_UpdateGrowsUnlessReset(t *testing.T) {
	b := geom.NewBBox([]mgl32.Vec3{{0, 0, 0}, {1, 1, 1}})
	b.Update([]mgl32.Vec3{{5, 5, 5}}, false)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, b.Max)

	b.Update([]mgl32.Vec3{{5, 5, 5}}, true)
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, b.Min)
}

func TestBBox_EmptyAndNil(t *testing.T) {
	var b *geom.BBox
	assert.True(t, b.IsEmpty())
	assert.True(t, geom.NewBBox(nil).IsEmpty())
	assert.False(t, geom.NewBBox(nil).Contains(mgl32.Vec3{}))
}

func TestParseBBox(t *testing.T) {
	b, err := geom.ParseBBox("0 0 0, 1 2 3")
	require.NoError(t, err)
	assert.True(t, b.Contains(mgl32.Vec3{1, 2, 3}))
	assert.False(t, b.Contains(mgl32.Vec3{1, 2, 3.5}))

	_, err = geom.ParseBBox("0 0, 1 2 3")
	assert.Error(t, err)
	_, err = geom.ParseBBox("  ")
	assert.Error(t, err)
}
