package render

import (
	"errors"
	"math"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

// ClipEpsilon is the smallest clip-space w a vertex may have. Triangles with
// a vertex at or behind the eye plane are rejected whole; there is no
// near-plane clipping.
const ClipEpsilon = 1e-9

// ErrClipRejected is returned for triangles with a vertex whose clip w is not
// positive.
var ErrClipRejected = errors.New("triangle rejected: clip w not positive")

// Primitive is a triangle after the vertex stage: clip-space positions for
// coverage and depth, view-space positions and normals for shading.
type Primitive struct {
	Clip   [3]math3d.Vec4
	View   [3]math3d.Vec3
	Normal [3]math3d.Vec3
}

// Visible reports whether every vertex lies in front of the eye.
func (p Primitive) Visible() bool {
	for _, c := range p.Clip {
		if c.W <= ClipEpsilon {
			return false
		}
	}
	return true
}

// Rasterizer writes shaded, depth-tested fragments into a FrameStore.
// A rasterizer may be limited to a band of rows so several can share one
// frame without touching the same pixels.
type Rasterizer struct {
	fs       *FrameStore
	lighting Lighting
	minRow   int // first row, inclusive
	maxRow   int // last row, inclusive
}

// NewRasterizer creates a rasterizer covering the whole frame.
func NewRasterizer(fs *FrameStore, lighting Lighting) *Rasterizer {
	return &Rasterizer{
		fs:       fs,
		lighting: lighting,
		minRow:   0,
		maxRow:   fs.Height - 1,
	}
}

// Band returns a rasterizer restricted to rows [y0, y1).
func (r *Rasterizer) Band(y0, y1 int) *Rasterizer {
	band := *r
	band.minRow = max(y0, 0)
	band.maxRow = min(y1, r.fs.Height) - 1
	return &band
}

// screenVertex holds a vertex mapped to the viewport.
type screenVertex struct {
	P math3d.Vec2 // Pixel coordinates
	Z float64     // NDC depth
}

// DrawTriangle rasterizes one triangle and returns the number of fragments
// that passed the depth test. Degenerate and off-screen triangles write
// nothing and are not errors.
func (r *Rasterizer) DrawTriangle(p Primitive) (int, error) {
	if !p.Visible() {
		return 0, ErrClipRejected
	}

	width, height := r.fs.Width, r.fs.Height

	var sv [3]screenVertex
	for i, c := range p.Clip {
		ndc, ok := c.PerspectiveDivide(ClipEpsilon)
		if !ok {
			return 0, ErrClipRejected
		}
		sv[i] = screenVertex{
			P: math3d.V2((ndc.X+1)*0.5*float64(width), (ndc.Y+1)*0.5*float64(height)),
			Z: ndc.Z,
		}
	}

	// Bounding box (clamped to screen and band)
	minX := clampPixel(math.Floor(min3(sv[0].P.X, sv[1].P.X, sv[2].P.X)), 0, width)
	maxX := clampPixel(math.Ceil(max3(sv[0].P.X, sv[1].P.X, sv[2].P.X)), -1, width-1)
	minY := clampPixel(math.Floor(min3(sv[0].P.Y, sv[1].P.Y, sv[2].P.Y)), r.minRow, r.maxRow+1)
	maxY := clampPixel(math.Ceil(max3(sv[0].P.Y, sv[1].P.Y, sv[2].P.Y)), r.minRow-1, r.maxRow)

	if minX > maxX || minY > maxY {
		return 0, nil
	}

	depth := r.fs.Depth
	written := 0

	for y := minY; y <= maxY; y++ {
		rowOffset := y * width
		for x := minX; x <= maxX; x++ {
			pixel := math3d.V2(float64(x)+0.5, float64(y)+0.5)

			bc, inside := barycentric(pixel, sv[0].P, sv[1].P, sv[2].P)
			if !inside {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z

			idx := rowOffset + x
			if z >= depth[idx] {
				continue
			}
			depth[idx] = z

			// Plain screen-space weights, not perspective-corrected.
			pos := math3d.Barycentric(p.View[0], p.View[1], p.View[2], bc)
			normal := math3d.Barycentric(p.Normal[0], p.Normal[1], p.Normal[2], bc).Normalize()

			r.fs.setColor(idx, Shade(r.lighting, pos, normal))
			written++
		}
	}

	return written, nil
}

// barycentric returns the weights of p relative to triangle (a, b, c) and
// whether p is covered (all weights >= 0). Degenerate triangles cover
// nothing.
func barycentric(p, a, b, c math3d.Vec2) (math3d.Vec3, bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return math3d.Vec3{}, false
	}

	beta := (d11*d20 - d01*d21) / denom
	gamma := (d00*d21 - d01*d20) / denom
	alpha := 1 - beta - gamma

	return math3d.V3(alpha, beta, gamma), alpha >= 0 && beta >= 0 && gamma >= 0
}

// clampPixel converts a pixel bound to int after clamping it to [lo, hi], so
// far off-screen vertices cannot overflow the conversion.
func clampPixel(v float64, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), v)))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
