package math3d

import (
	"math"
	"testing"
)

func approxVec3(a, b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"axis", V3(0, 5, 0), V3(0, 1, 0)},
		{"3-4-5", V3(3, 4, 0), V3(0.6, 0.8, 0)},
		{"zero stays zero", Zero3(), Zero3()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if !approxVec3(got, tc.want, 1e-12) {
				t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestVec3Cross(t *testing.T) {
	x, y := V3(1, 0, 0), V3(0, 1, 0)
	if got := x.Cross(y); got != V3(0, 0, 1) {
		t.Errorf("x × y = %v, want (0,0,1)", got)
	}
	if got := y.Cross(x); got != V3(0, 0, -1) {
		t.Errorf("y × x = %v, want (0,0,-1)", got)
	}
}

func TestVec3ClampPow(t *testing.T) {
	got := V3(-1, 0.25, 4).Clamp(0, 1)
	if got != V3(0, 0.25, 1) {
		t.Errorf("Clamp = %v", got)
	}

	got = V3(0.25, 1, 4).Pow(0.5)
	if !approxVec3(got, V3(0.5, 1, 2), 1e-12) {
		t.Errorf("Pow = %v", got)
	}
}

func TestBarycentricWeights(t *testing.T) {
	a, b, c := V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)
	got := Barycentric(a, b, c, V3(0.2, 0.3, 0.5))
	if !approxVec3(got, V3(0.2, 0.3, 0.5), 1e-12) {
		t.Errorf("Barycentric = %v", got)
	}
}

func TestVec2(t *testing.T) {
	if got := V2(2, 2).Sub(V2(1, 0)).Dot(V2(1, 1)); got != 3 {
		t.Errorf("Sub/Dot = %v, want 3", got)
	}
}

func TestPerspectiveDivide(t *testing.T) {
	ndc, ok := V4(2, 4, 6, 2).PerspectiveDivide(1e-9)
	if !ok || ndc != V3(1, 2, 3) {
		t.Errorf("PerspectiveDivide = %v, %v", ndc, ok)
	}

	if _, ok := V4(1, 1, 1, 0).PerspectiveDivide(1e-9); ok {
		t.Error("w = 0 should not divide")
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(ScaleUniform(2))
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m * I = %v, want %v", got, m)
	}
	if got := Identity().Mul(m); got != m {
		t.Errorf("I * m = %v, want %v", got, m)
	}
}

func TestTranslateScaleOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(V3(0, 0, -7)).Mul(ScaleUniform(2))
	got := m.MulVec3(V3(1, 0, 0))
	if !approxVec3(got, V3(2, 0, -7), 1e-12) {
		t.Errorf("got %v, want (2,0,-7)", got)
	}

	dir := m.MulVec3Dir(V3(0, 1, 0))
	if !approxVec3(dir, V3(0, 2, 0), 1e-12) {
		t.Errorf("direction ignores translation: got %v", dir)
	}
}

func TestLookAtDownNegativeZIsIdentity(t *testing.T) {
	view := LookAt(Zero3(), Forward(), Up())
	id := Identity()
	for i := range view {
		if math.Abs(view[i]-id[i]) > 1e-12 {
			t.Fatalf("LookAt = %v, want identity", view)
		}
	}
}

func TestFrustumMapsNearAndFar(t *testing.T) {
	const near, far = 0.1, 1000.0
	p := Frustum(-0.1, 0.1, -0.1, 0.1, near, far)

	tests := []struct {
		name  string
		point Vec3
		ndcZ  float64
	}{
		{"near plane", V3(0, 0, -near), -1},
		{"far plane", V3(0, 0, -far), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clip := p.MulVec4(V4FromV3(tc.point, 1))
			if math.Abs(clip.W+tc.point.Z) > 1e-9 {
				t.Errorf("w = %v, want %v", clip.W, -tc.point.Z)
			}
			ndc, ok := clip.PerspectiveDivide(1e-9)
			if !ok || math.Abs(ndc.Z-tc.ndcZ) > 1e-6 {
				t.Errorf("ndc z = %v, want %v", ndc.Z, tc.ndcZ)
			}
		})
	}

	// Corner of the near plane lands on the NDC corner.
	clip := p.MulVec4(V4(0.1, 0.1, -near, 1))
	ndc, _ := clip.PerspectiveDivide(1e-9)
	if !approxVec3(V3(ndc.X, ndc.Y, 0), V3(1, 1, 0), 1e-9) {
		t.Errorf("near corner ndc = %v, want (1,1)", ndc)
	}
}

func TestTranslateScaleLayout(t *testing.T) {
	m := Translate(V3(4, 5, 6))
	if m[12] != 4 || m[13] != 5 || m[14] != 6 || m[15] != 1 {
		t.Errorf("translation column = %v", m[12:])
	}
	s := Scale(V3(2, 3, 4))
	if s[0] != 2 || s[5] != 3 || s[10] != 4 || s[15] != 1 {
		t.Errorf("scale diagonal = %v %v %v %v", s[0], s[5], s[10], s[15])
	}
}
