package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Arcball projects a point of the unit view square onto the virtual
// trackball. Points inside the unit disk land on the hemisphere, points
// outside are pulled onto the disk edge. The result is a pure quaternion.
func Arcball(x, y float32) mgl32.Quat {
	h2 := x*x + y*y
	if h2 > 1 {
		h := float32(math.Sqrt(float64(h2)))
		return mgl32.Quat{W: 0, V: mgl32.Vec3{x / h, y / h, 0}}
	}
	return mgl32.Quat{W: 0, V: mgl32.Vec3{x, y, float32(math.Sqrt(float64(1 - h2)))}}
}

// Product multiplies the quaternions left to right. An empty product is the
// identity rotation.
func Product(qs ...mgl32.Quat) mgl32.Quat {
	p := mgl32.QuatIdent()
	for _, q := range qs {
		p = p.Mul(q)
	}
	return p
}

func RotationMatrix(q mgl32.Quat) mgl32.Mat4 {
	return q.Mat4()
}
