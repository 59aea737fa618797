package models

import (
	"fmt"
	"math"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

// MinSphereResolution is the smallest longitude or latitude count that still
// closes the sphere: three latitude samples leave a single ring between the
// poles, three longitude samples give that ring two distinct edges.
const MinSphereResolution = 3

// NewSphere builds a unit sphere from lon longitude samples and lat latitude
// samples and estimates its vertex normals.
//
// Rings j = 1..lat-2 are laid out one after another, each holding lon
// samples; the first and last sample of a ring coincide (phi = 0 and 2π).
// The north pole and then the south pole follow the rings.
func NewSphere(lon, lat int) (*Mesh, error) {
	if lon < MinSphereResolution || lat < MinSphereResolution {
		return nil, fmt.Errorf("sphere %dx%d, need at least %d per axis: %w",
			lon, lat, MinSphereResolution, ErrInvalidResolution)
	}

	rings := lat - 2
	mesh := &Mesh{
		Name:     fmt.Sprintf("sphere-%dx%d", lon, lat),
		Vertices: make([]math3d.Vec3, 0, lon*rings+2),
		Faces:    make([]Face, 0, 2*(lon-1)*(lat-3)+2*(lon-1)),
	}

	for j := 1; j < lat-1; j++ {
		theta := float64(j) / float64(lat-1) * math.Pi
		sinT, cosT := math.Sin(theta), math.Cos(theta)
		for i := range lon {
			phi := float64(i) / float64(lon-1) * 2 * math.Pi
			mesh.Vertices = append(mesh.Vertices, math3d.V3(
				sinT*math.Cos(phi),
				cosT,
				-sinT*math.Sin(phi),
			))
		}
	}

	north := len(mesh.Vertices)
	mesh.Vertices = append(mesh.Vertices, math3d.V3(0, 1, 0))
	south := len(mesh.Vertices)
	mesh.Vertices = append(mesh.Vertices, math3d.V3(0, -1, 0))

	// Two triangles per quad between ring j and ring j+1.
	for j := 0; j < rings-1; j++ {
		for i := 0; i < lon-1; i++ {
			a := j*lon + i
			b := (j+1)*lon + i
			mesh.Faces = append(mesh.Faces,
				Face{V: [3]int{a, b + 1, a + 1}},
				Face{V: [3]int{a, b, b + 1}},
			)
		}
	}

	for i := 0; i < lon-1; i++ {
		mesh.Faces = append(mesh.Faces, Face{V: [3]int{north, i, i + 1}})
	}

	base := (rings - 1) * lon
	for i := 0; i < lon-1; i++ {
		mesh.Faces = append(mesh.Faces, Face{V: [3]int{south, base + i + 1, base + i}})
	}

	normals, err := EstimateNormals(mesh.Vertices, mesh.Faces)
	if err != nil {
		return nil, err
	}
	mesh.Normals = normals
	mesh.CalculateBounds()

	return mesh, nil
}
