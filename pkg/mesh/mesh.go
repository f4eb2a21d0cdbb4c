// Package mesh provides the triangle mesh and brush types shared by the
// loader, the boolean evaluator and the rendering layer.
package mesh

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshdiff/pkg/math"
)

// ErrInvalidMesh is returned by Validate for meshes that break an invariant.
var ErrInvalidMesh = errors.New("invalid mesh")

// Attribute is a flat per-vertex attribute buffer.
type Attribute struct {
	Values   []float32
	ItemSize int
}

// Count returns the number of items in the buffer.
func (a *Attribute) Count() int {
	if a == nil || a.ItemSize <= 0 {
		return 0
	}
	return len(a.Values) / a.ItemSize
}

// Clone returns a deep copy.
func (a *Attribute) Clone() *Attribute {
	if a == nil {
		return nil
	}
	return &Attribute{Values: cloneFloats(a.Values), ItemSize: a.ItemSize}
}

// TriangleMesh is triangle geometry with per-vertex normals, an optional UV
// channel and an optional index buffer.
type TriangleMesh struct {
	Positions []float32 // x, y, z per vertex
	Normals   []float32 // x, y, z per vertex
	UV        *Attribute
	Indices   []uint32 // Three per triangle; nil for a triangle soup
}

// VertexCount returns the number of vertices.
func (m *TriangleMesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *TriangleMesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return m.VertexCount() / 3
}

// IsEmpty reports whether the mesh has no triangles.
func (m *TriangleMesh) IsEmpty() bool {
	return m == nil || m.TriangleCount() == 0
}

// Indexed reports whether the mesh has an index buffer.
func (m *TriangleMesh) Indexed() bool {
	return m.Indices != nil
}

// Position returns vertex i.
func (m *TriangleMesh) Position(i int) math.Vec3 {
	return math.Vec3{X: m.Positions[i*3], Y: m.Positions[i*3+1], Z: m.Positions[i*3+2]}
}

// Normal returns the normal of vertex i.
func (m *TriangleMesh) Normal(i int) math.Vec3 {
	return math.Vec3{X: m.Normals[i*3], Y: m.Normals[i*3+1], Z: m.Normals[i*3+2]}
}

// TriangleVertices returns the vertex indices of triangle i.
func (m *TriangleMesh) TriangleVertices(i int) [3]int {
	if m.Indices != nil {
		return [3]int{int(m.Indices[i*3]), int(m.Indices[i*3+1]), int(m.Indices[i*3+2])}
	}
	return [3]int{i * 3, i*3 + 1, i*3 + 2}
}

// Triangle returns the corner positions of triangle i.
func (m *TriangleMesh) Triangle(i int) [3]math.Vec3 {
	v := m.TriangleVertices(i)
	return [3]math.Vec3{m.Position(v[0]), m.Position(v[1]), m.Position(v[2])}
}

// Validate checks the buffer invariants.
func (m *TriangleMesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position values is not a multiple of 3", ErrInvalidMesh, len(m.Positions))
	}
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normal values for %d position values", ErrInvalidMesh, len(m.Normals), len(m.Positions))
	}
	if m.UV != nil && len(m.UV.Values) > 0 {
		if m.UV.ItemSize != 1 && m.UV.ItemSize != 2 {
			return fmt.Errorf("%w: uv item size %d", ErrInvalidMesh, m.UV.ItemSize)
		}
		if len(m.UV.Values)%m.UV.ItemSize != 0 || m.UV.Count() != m.VertexCount() {
			return fmt.Errorf("%w: %d uv values for %d vertices", ErrInvalidMesh, len(m.UV.Values), m.VertexCount())
		}
	}
	if m.Indices != nil {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
		}
		n := uint32(m.VertexCount())
		for i, idx := range m.Indices {
			if idx >= n {
				return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrInvalidMesh, idx, i, n)
			}
		}
	} else if m.VertexCount()%3 != 0 {
		return fmt.Errorf("%w: %d vertices is not a whole number of triangles", ErrInvalidMesh, m.VertexCount())
	}
	return nil
}

// Clone returns a deep copy.
func (m *TriangleMesh) Clone() *TriangleMesh {
	if m == nil {
		return nil
	}
	c := &TriangleMesh{
		Positions: cloneFloats(m.Positions),
		Normals:   cloneFloats(m.Normals),
		UV:        m.UV.Clone(),
	}
	if m.Indices != nil {
		c.Indices = make([]uint32, len(m.Indices))
		copy(c.Indices, m.Indices)
	}
	return c
}

// Bounds returns the bounding box of all vertices.
func (m *TriangleMesh) Bounds() math.Box3 {
	b := math.EmptyBox()
	for i := 0; i < m.VertexCount(); i++ {
		b = b.ExpandByPoint(m.Position(i))
	}
	return b
}

// Volume returns the signed enclosed volume. It is positive for closed meshes
// with outward (counter-clockwise) winding.
func (m *TriangleMesh) Volume() float64 {
	var sum float64
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		ax, ay, az := float64(t[0].X), float64(t[0].Y), float64(t[0].Z)
		bx, by, bz := float64(t[1].X), float64(t[1].Y), float64(t[1].Z)
		cx, cy, cz := float64(t[2].X), float64(t[2].Y), float64(t[2].Z)
		sum += ax*(by*cz-bz*cy) - ay*(bx*cz-bz*cx) + az*(bx*cy-by*cx)
	}
	return sum / 6
}

// SurfaceArea returns the total triangle area.
func (m *TriangleMesh) SurfaceArea() float64 {
	var sum float64
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		sum += float64(t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length()) / 2
	}
	return sum
}

// Translate returns a copy moved by offset.
func (m *TriangleMesh) Translate(offset math.Vec3) *TriangleMesh {
	c := m.Clone()
	for i := 0; i < len(c.Positions); i += 3 {
		c.Positions[i] += offset.X
		c.Positions[i+1] += offset.Y
		c.Positions[i+2] += offset.Z
	}
	return c
}

// Center returns a copy whose bounding box is centered on the origin.
func (m *TriangleMesh) Center() *TriangleMesh {
	b := m.Bounds()
	if b.IsEmpty() {
		return m.Clone()
	}
	return m.Translate(b.Center().Neg())
}

// NonIndexed returns a triangle-soup copy with the index buffer expanded.
func (m *TriangleMesh) NonIndexed() *TriangleMesh {
	if m.Indices == nil {
		return m.Clone()
	}
	n := len(m.Indices)
	c := &TriangleMesh{
		Positions: make([]float32, 0, n*3),
		Normals:   make([]float32, 0, n*3),
	}
	hasUV := m.UV != nil && m.UV.Count() == m.VertexCount() && m.VertexCount() > 0
	if hasUV {
		c.UV = &Attribute{Values: make([]float32, 0, n*m.UV.ItemSize), ItemSize: m.UV.ItemSize}
	} else if m.UV != nil {
		c.UV = &Attribute{Values: []float32{}, ItemSize: m.UV.ItemSize}
	}
	for _, idx := range m.Indices {
		i := int(idx)
		c.Positions = append(c.Positions, m.Positions[i*3:i*3+3]...)
		c.Normals = append(c.Normals, m.Normals[i*3:i*3+3]...)
		if hasUV {
			s := m.UV.ItemSize
			c.UV.Values = append(c.UV.Values, m.UV.Values[i*s:i*s+s]...)
		}
	}
	return c
}

func cloneFloats(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// faceNormal returns the unit normal of a counter-clockwise triangle, or the
// zero vector for a degenerate one.
func faceNormal(a, b, c math.Vec3) math.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Length(); l < 1e-12 || gomath.IsNaN(float64(l)) {
		return math.Vec3{}
	}
	return n.Normalize()
}
