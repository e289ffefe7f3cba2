package geom

import "github.com/go-gl/mathgl/mgl32"

func Translate(x, y, z float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, y, z)
}

func TranslateVec(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v[0], v[1], v[2])
}

// Scale builds a uniform scale matrix.
func Scale(s float32) mgl32.Mat4 {
	return mgl32.Scale3D(s, s, s)
}

// Perspective takes the vertical field of view in degrees.
func Perspective(fovDeg, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, near, far)
}
