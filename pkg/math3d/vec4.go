package math3d

// Vec4 represents a 4D vector (or homogeneous 3D point).
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// V4FromV3 creates a Vec4 from Vec3 with specified W.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// Vec3 returns the Vec3 portion (ignoring W).
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// PerspectiveDivide returns the normalized device coordinates x/w, y/w, z/w.
// ok is false when |w| is not greater than eps; the result is then zero.
func (v Vec4) PerspectiveDivide(eps float64) (ndc Vec3, ok bool) {
	if v.W <= eps && v.W >= -eps {
		return Vec3{}, false
	}
	return v.Vec3().Scale(1.0 / v.W), true
}
