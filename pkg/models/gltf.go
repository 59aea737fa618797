package models

import (
	"fmt"
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/phongsphere/pkg/math3d"
)

// WriteGLB encodes the mesh as a binary glTF with POSITION, NORMAL and
// uint32 indices. Winding is kept as-is: faces are counter-clockwise seen
// from outside, which is glTF's front-face convention.
func WriteGLB(w io.Writer, mesh *Mesh) error {
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("export %q: %w", mesh.Name, err)
	}

	positions := make([][3]float32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	}

	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	doc := gltf.NewDocument()
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, positions),
	}
	if len(mesh.Normals) > 0 {
		normals := make([][3]float32, len(mesh.Normals))
		for i, n := range mesh.Normals {
			normals[i] = [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}

	doc.Meshes = []*gltf.Mesh{{
		Name: mesh.Name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attrs,
			Mode:       gltf.PrimitiveTriangles,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: mesh.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

// ReadGLB decodes a binary glTF written by WriteGLB (or any GLB with
// embedded buffers) into a single mesh. Face indices are validated; an
// index past the vertex array is reported, never clamped.
func ReadGLB(r io.Reader) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}

	mesh := NewMesh("")
	for _, m := range doc.Meshes {
		if mesh.Name == "" {
			mesh.Name = m.Name
		}
		if err := readPrimitives(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// readPrimitives appends the triangle primitives of m to mesh.
func readPrimitives(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
			if len(normals) != len(positions) {
				return fmt.Errorf("%d normals for %d positions", len(normals), len(positions))
			}
		}

		baseVertex := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, positions...)
		switch {
		case normals != nil:
			if mesh.Normals == nil && baseVertex > 0 {
				mesh.Normals = make([]math3d.Vec3, baseVertex)
			}
			mesh.Normals = append(mesh.Normals, normals...)
		case mesh.Normals != nil:
			mesh.Normals = append(mesh.Normals, make([]math3d.Vec3, len(positions))...)
		}

		if prim.Indices == nil {
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{baseVertex + i, baseVertex + i + 1, baseVertex + i + 2}})
			}
			continue
		}

		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V: [3]int{baseVertex + indices[i], baseVertex + indices[i+1], baseVertex + indices[i+2]},
			})
		}
	}
	return nil
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, ErrIndexOutOfRange)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, err)
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range accessor.Count {
		offset := start + i*stride
		result[i] = math3d.V3(
			float64(readFloat32(data[offset:])),
			float64(readFloat32(data[offset+4:])),
			float64(readFloat32(data[offset+8:])),
		)
	}
	return result, nil
}

// readIndices reads index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, ErrIndexOutOfRange)
	}
	accessor := doc.Accessors[accessorIdx]

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, err)
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		offset := start + i*stride
		var v uint32
		for b := range size {
			v |= uint32(data[offset+b]) << (8 * b)
		}
		result[i] = int(v)
	}
	return result, nil
}

// accessorBytes returns the embedded buffer behind an accessor together with
// the first element offset and the element stride. Every element of the
// accessor is checked to lie inside the buffer before anything is read.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) (data []byte, start, stride int, err error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	viewIdx := *accessor.BufferView
	if viewIdx < 0 || viewIdx >= len(doc.BufferViews) {
		return nil, 0, 0, fmt.Errorf("buffer view %d (have %d): %w", viewIdx, len(doc.BufferViews), ErrIndexOutOfRange)
	}
	bufferView := doc.BufferViews[viewIdx]
	if bufferView.Buffer < 0 || bufferView.Buffer >= len(doc.Buffers) {
		return nil, 0, 0, fmt.Errorf("buffer %d (have %d): %w", bufferView.Buffer, len(doc.Buffers), ErrIndexOutOfRange)
	}
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.URI != "" {
		return nil, 0, 0, fmt.Errorf("external buffers not supported")
	}
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	stride = bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if stride < elemSize {
		return nil, 0, 0, fmt.Errorf("stride %d smaller than element size %d", stride, elemSize)
	}

	data = buffer.Data
	start = bufferView.ByteOffset + accessor.ByteOffset
	if accessor.Count < 0 || start < 0 {
		return nil, 0, 0, fmt.Errorf("count %d at offset %d: %w", accessor.Count, start, ErrIndexOutOfRange)
	}
	if accessor.Count > 0 {
		// Last element must end inside the buffer.
		room := len(data) - start - elemSize
		if room < 0 || accessor.Count-1 > room/stride {
			return nil, 0, 0, fmt.Errorf("%d elements at offset %d overrun %d-byte buffer: %w",
				accessor.Count, start, len(data), ErrIndexOutOfRange)
		}
	}
	return data, start, stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
