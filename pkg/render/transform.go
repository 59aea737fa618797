package render

import "github.com/taigrr/phongsphere/pkg/math3d"

// Scene holds the fixed object placement, camera and frustum.
type Scene struct {
	// Object placement: uniform scale, then translation.
	Translation math3d.Vec3
	Scale       float64

	// Camera
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3

	// Frustum extents on the near plane.
	Left, Right, Bottom, Top float64
	Near, Far                float64
}

// DefaultScene places a sphere of radius 2 seven units in front of a camera
// at the origin looking down -Z with a 90 degree frustum.
func DefaultScene() Scene {
	return Scene{
		Translation: math3d.V3(0, 0, -7),
		Scale:       2,
		Eye:         math3d.Zero3(),
		Center:      math3d.Forward(),
		Up:          math3d.Up(),
		Left:        -0.1,
		Right:       0.1,
		Bottom:      -0.1,
		Top:         0.1,
		Near:        0.1,
		Far:         1000,
	}
}

// Transforms is the per-frame matrix set.
type Transforms struct {
	Model      math3d.Mat4
	View       math3d.Mat4
	Projection math3d.Mat4
	ModelView  math3d.Mat4
	MVP        math3d.Mat4
}

// NewTransforms builds the matrices for a scene.
func NewTransforms(s Scene) Transforms {
	model := math3d.Translate(s.Translation).Mul(math3d.ScaleUniform(s.Scale))
	view := math3d.LookAt(s.Eye, s.Center, s.Up)
	proj := math3d.Frustum(s.Left, s.Right, s.Bottom, s.Top, s.Near, s.Far)
	modelView := view.Mul(model)

	return Transforms{
		Model:      model,
		View:       view,
		Projection: proj,
		ModelView:  modelView,
		MVP:        proj.Mul(modelView),
	}
}

// Project returns the clip-space position of an object-space point.
func (t Transforms) Project(v math3d.Vec3) math3d.Vec4 {
	return t.MVP.MulVec4(math3d.V4FromV3(v, 1))
}

// ToView returns the view-space position of an object-space point.
func (t Transforms) ToView(v math3d.Vec3) math3d.Vec3 {
	return t.ModelView.MulVec3(v)
}

// NormalToView rotates an object-space normal into view space.
// Exact for rigid transforms with uniform scale.
func (t Transforms) NormalToView(n math3d.Vec3) math3d.Vec3 {
	return t.ModelView.MulVec3Dir(n).Normalize()
}
