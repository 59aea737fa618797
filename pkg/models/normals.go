package models

import "github.com/taigrr/phongsphere/pkg/math3d"

// EstimateNormals computes one smooth normal per vertex.
//
// Every face contributes its unit face normal, (v1-v0) × (v2-v0) normalized,
// to each of its three vertices; the sums are then normalized. Faces are not
// weighted by area. A vertex touched by no face keeps a zero normal.
func EstimateNormals(vertices []math3d.Vec3, faces []Face) ([]math3d.Vec3, error) {
	if err := checkFaces(faces, len(vertices)); err != nil {
		return nil, err
	}

	acc := make([]math3d.Vec3, len(vertices))
	for _, f := range faces {
		v0 := vertices[f.V[0]]
		v1 := vertices[f.V[1]]
		v2 := vertices[f.V[2]]

		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		normal := edge1.Cross(edge2).Normalize()

		acc[f.V[0]] = acc[f.V[0]].Add(normal)
		acc[f.V[1]] = acc[f.V[1]].Add(normal)
		acc[f.V[2]] = acc[f.V[2]].Add(normal)
	}

	normals := make([]math3d.Vec3, len(acc))
	for i, n := range acc {
		normals[i] = n.Normalize()
	}
	return normals, nil
}
