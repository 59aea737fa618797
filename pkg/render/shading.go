package render

import (
	"math"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

// Lighting holds the material coefficients and the single point light.
// LightPos is in view space.
type Lighting struct {
	Ambient          math3d.Vec3 // ka
	Diffuse          math3d.Vec3 // kd
	Specular         math3d.Vec3 // ks
	Shininess        float64
	AmbientIntensity float64 // Ia
	LightPos         math3d.Vec3
	Gamma            float64
}

// DefaultLighting returns a green plastic material lit from the upper left,
// slightly behind the camera plane.
func DefaultLighting() Lighting {
	return Lighting{
		Ambient:          math3d.V3(0, 1, 0),
		Diffuse:          math3d.V3(0, 0.5, 0),
		Specular:         math3d.V3(0.5, 0.5, 0.5),
		Shininess:        32,
		AmbientIntensity: 0.2,
		LightPos:         math3d.V3(-4, 4, -3),
		Gamma:            2.2,
	}
}

// Shade evaluates Blinn-Phong at a view-space position with unit normal n and
// returns the gamma-encoded color clamped to [0, 1]. The eye is at the origin.
func Shade(l Lighting, position, n math3d.Vec3) math3d.Vec3 {
	ambient := l.Ambient.Scale(l.AmbientIntensity)

	lightDir := l.LightPos.Sub(position).Normalize()
	viewDir := position.Negate().Normalize()
	half := lightDir.Add(viewDir).Normalize()

	diff := math.Max(n.Dot(lightDir), 0)
	spec := math.Pow(math.Max(n.Dot(half), 0), l.Shininess)

	linear := ambient.
		Add(l.Diffuse.Scale(diff)).
		Add(l.Specular.Scale(spec))

	return l.encode(linear)
}

// AmbientOnly returns the color of a surface that receives no direct light.
func (l Lighting) AmbientOnly() math3d.Vec3 {
	return l.encode(l.Ambient.Scale(l.AmbientIntensity))
}

func (l Lighting) encode(linear math3d.Vec3) math3d.Vec3 {
	return linear.Pow(1 / l.Gamma).Clamp(0, 1)
}
