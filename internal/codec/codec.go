// Package codec converts triangle meshes to and from a plain structural form
// that can cross a process boundary as JSON.
package codec

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// ErrMalformedPayload is returned when a structural form cannot be turned
// back into a mesh.
var ErrMalformedPayload = errors.New("malformed mesh payload")

// Index widths in bits.
const (
	IndexWidth16 = 16
	IndexWidth32 = 32
)

// AttributeData is a flat attribute buffer.
type AttributeData struct {
	Values   []float32 `json:"array"`
	ItemSize int       `json:"itemSize"`
}

// IndexData is an index buffer together with its declared element width.
type IndexData struct {
	Values []uint32 `json:"array"`
	Width  int      `json:"width"`
}

// StructuralForm is the serialized shape of a TriangleMesh.
type StructuralForm struct {
	Positions AttributeData  `json:"position"`
	Normals   AttributeData  `json:"normal"`
	UV        *AttributeData `json:"uv,omitempty"`
	Indices   *IndexData     `json:"index,omitempty"`
}

// IndexWidthFor returns the narrowest index width able to address
// vertexCount vertices. 16-bit indices reach vertex 65535 at most.
func IndexWidthFor(vertexCount int) int {
	if vertexCount <= 1<<16 {
		return IndexWidth16
	}
	return IndexWidth32
}

// Serialize copies m into a structural form. Buffers are copied, so the form
// does not alias the mesh.
func Serialize(m *mesh.TriangleMesh) (*StructuralForm, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrMalformedPayload)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if err := CheckFinite(m); err != nil {
		return nil, err
	}

	f := &StructuralForm{
		Positions: AttributeData{Values: copyFloats(nonNil(m.Positions)), ItemSize: 3},
		Normals:   AttributeData{Values: copyFloats(nonNil(m.Normals)), ItemSize: 3},
	}
	if m.UV != nil {
		f.UV = &AttributeData{Values: copyFloats(nonNil(m.UV.Values)), ItemSize: m.UV.ItemSize}
	}
	if m.Indices != nil {
		idx := make([]uint32, len(m.Indices))
		copy(idx, m.Indices)
		f.Indices = &IndexData{Values: idx, Width: IndexWidthFor(m.VertexCount())}
	}
	return f, nil
}

// CheckFinite reports the first NaN or infinite attribute value of m. Such
// values have no JSON encoding.
func CheckFinite(m *mesh.TriangleMesh) error {
	if m == nil {
		return nil
	}
	check := func(name string, values []float32) error {
		for i, v := range values {
			if f := float64(v); gomath.IsNaN(f) || gomath.IsInf(f, 0) {
				return fmt.Errorf("%w: non-finite %s value %v at %d", ErrMalformedPayload, name, v, i)
			}
		}
		return nil
	}
	if err := check("position", m.Positions); err != nil {
		return err
	}
	if err := check("normal", m.Normals); err != nil {
		return err
	}
	if m.UV != nil {
		return check("uv", m.UV.Values)
	}
	return nil
}

// Deserialize rebuilds a mesh from f. It is the exact inverse of Serialize.
func Deserialize(f *StructuralForm) (*mesh.TriangleMesh, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil form", ErrMalformedPayload)
	}
	if err := checkAttribute("position", &f.Positions, 3); err != nil {
		return nil, err
	}
	if err := checkAttribute("normal", &f.Normals, 3); err != nil {
		return nil, err
	}
	if len(f.Positions.Values) != len(f.Normals.Values) {
		return nil, fmt.Errorf("%w: %d normal values for %d position values",
			ErrMalformedPayload, len(f.Normals.Values), len(f.Positions.Values))
	}

	m := &mesh.TriangleMesh{
		Positions: copyFloats(f.Positions.Values),
		Normals:   copyFloats(f.Normals.Values),
	}
	vertices := m.VertexCount()

	if f.UV != nil {
		if f.UV.ItemSize <= 0 {
			return nil, fmt.Errorf("%w: uv item size %d", ErrMalformedPayload, f.UV.ItemSize)
		}
		if n := len(f.UV.Values); n > 0 && (n%f.UV.ItemSize != 0 || n/f.UV.ItemSize != vertices) {
			return nil, fmt.Errorf("%w: %d uv values for %d vertices", ErrMalformedPayload, n, vertices)
		}
		m.UV = &mesh.Attribute{Values: copyFloats(nonNil(f.UV.Values)), ItemSize: f.UV.ItemSize}
	}

	if f.Indices != nil {
		var limit uint64
		switch f.Indices.Width {
		case IndexWidth16:
			limit = 1 << 16
		case IndexWidth32:
			limit = 1 << 32
		default:
			return nil, fmt.Errorf("%w: index width %d", ErrMalformedPayload, f.Indices.Width)
		}
		if len(f.Indices.Values)%3 != 0 {
			return nil, fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrMalformedPayload, len(f.Indices.Values))
		}
		for i, idx := range f.Indices.Values {
			if uint64(idx) >= limit {
				return nil, fmt.Errorf("%w: index %d at %d exceeds %d-bit width", ErrMalformedPayload, idx, i, f.Indices.Width)
			}
			if int(idx) >= vertices {
				return nil, fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrMalformedPayload, idx, i, vertices)
			}
		}
		m.Indices = make([]uint32, len(f.Indices.Values))
		copy(m.Indices, f.Indices.Values)
	} else if vertices%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertices is not a whole number of triangles", ErrMalformedPayload, vertices)
	}

	return m, nil
}

// SerializeBrush serializes the geometry of b. Materials never cross the
// boundary.
func SerializeBrush(b *mesh.Brush) (*StructuralForm, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil brush", ErrMalformedPayload)
	}
	return Serialize(b.Geometry)
}

// DeserializeBrush returns a brush without material around the decoded geometry.
func DeserializeBrush(f *StructuralForm) (*mesh.Brush, error) {
	m, err := Deserialize(f)
	if err != nil {
		return nil, err
	}
	return &mesh.Brush{Geometry: m}, nil
}

func checkAttribute(name string, a *AttributeData, itemSize int) error {
	if a.Values == nil || a.ItemSize == 0 {
		return fmt.Errorf("%w: missing %s attribute", ErrMalformedPayload, name)
	}
	if a.ItemSize != itemSize {
		return fmt.Errorf("%w: %s item size %d, want %d", ErrMalformedPayload, name, a.ItemSize, itemSize)
	}
	if len(a.Values)%itemSize != 0 {
		return fmt.Errorf("%w: %d %s values is not a multiple of %d", ErrMalformedPayload, len(a.Values), name, itemSize)
	}
	return nil
}

func copyFloats(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// nonNil keeps empty buffers distinguishable from missing ones on the wire.
func nonNil(v []float32) []float32 {
	if v == nil {
		return []float32{}
	}
	return v
}
