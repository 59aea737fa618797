// Package models provides the triangle mesh representation for phongsphere,
// the procedural sphere generator and glTF interchange.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

var (
	// ErrInvalidResolution is returned when a sphere is requested with fewer
	// longitude or latitude samples than a closed triangulation needs.
	ErrInvalidResolution = errors.New("invalid mesh resolution")

	// ErrIndexOutOfRange is returned when a face references a vertex that
	// does not exist.
	ErrIndexOutOfRange = errors.New("vertex index out of range")
)

// Mesh is an indexed triangle mesh. Normals is parallel to Vertices.
type Mesh struct {
	Name     string
	Vertices []math3d.Vec3
	Normals  []math3d.Vec3
	Faces    []Face

	// Bounding box (calculated on construction)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Face represents a triangle by three vertex indices. The order defines the
// winding.
type Face struct {
	V [3]int // Indices into Mesh.Vertices
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]math3d.Vec3, 0),
		Faces:    make([]Face, 0),
	}
}

// Validate checks that every face index addresses an existing vertex and
// that the normal array, when present, is parallel to the vertex array.
func (m *Mesh) Validate() error {
	if err := checkFaces(m.Faces, len(m.Vertices)); err != nil {
		return err
	}
	if m.Normals != nil && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d normals for %d vertices", m.Name, len(m.Normals), len(m.Vertices))
	}
	return nil
}

func checkFaces(faces []Face, vertexCount int) error {
	for i, f := range faces {
		for _, idx := range f.V {
			if idx < 0 || idx >= vertexCount {
				return fmt.Errorf("face %d index %d (vertex count %d): %w", i, idx, vertexCount, ErrIndexOutOfRange)
			}
		}
	}
	return nil
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0]
	m.BoundsMax = m.Vertices[0]

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v)
		m.BoundsMax = m.BoundsMax.Max(v)
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]math3d.Vec3, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	if m.Normals != nil {
		clone.Normals = make([]math3d.Vec3, len(m.Normals))
		copy(clone.Normals, m.Normals)
	}
	return clone
}
