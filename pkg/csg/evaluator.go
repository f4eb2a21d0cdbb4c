package csg

import (
	"fmt"

	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// BSPEvaluator clips the polygons of each operand against a BSP tree built
// from the other. It keeps no state between calls and is safe for
// concurrent use.
type BSPEvaluator struct{}

// NewEvaluator returns the default evaluator.
func NewEvaluator() *BSPEvaluator {
	return &BSPEvaluator{}
}

// uvLayout describes the UV channel carried into the result.
type uvLayout struct {
	present  bool // result gets a UV attribute at all
	carry    bool // values are interpolated from the operands
	itemSize int
}

func resolveUV(a, b *mesh.TriangleMesh) uvLayout {
	full := func(m *mesh.TriangleMesh) bool {
		return m.UV != nil && len(m.UV.Values) > 0
	}
	switch {
	case a.UV == nil && b.UV == nil:
		return uvLayout{}
	case full(a) && full(b) && a.UV.ItemSize == b.UV.ItemSize:
		return uvLayout{present: true, carry: true, itemSize: a.UV.ItemSize}
	}
	size := 1
	if a.UV != nil && a.UV.ItemSize > 0 {
		size = a.UV.ItemSize
	} else if b.UV != nil && b.UV.ItemSize > 0 {
		size = b.UV.ItemSize
	}
	return uvLayout{present: true, itemSize: size}
}

// Evaluate implements Evaluator. The result takes the material of a.
func (e *BSPEvaluator) Evaluate(a, b *mesh.Brush, op Operation) (*mesh.Brush, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
	if err := checkBrush("first", a); err != nil {
		return nil, err
	}
	if err := checkBrush("second", b); err != nil {
		return nil, err
	}

	layout := resolveUV(a.Geometry, b.Geometry)
	pa := toPolygons(a.Geometry, layout)
	pb := toPolygons(b.Geometry, layout)

	// An empty tree clips nothing, so empty operands are resolved directly.
	if len(pa) == 0 || len(pb) == 0 {
		var polys []*polygon
		switch op {
		case Union:
			polys = append(pa, pb...)
		case Subtract:
			if len(pb) == 0 {
				polys = pa
			}
		}
		return &mesh.Brush{Geometry: fromPolygons(polys, layout), Material: a.Material}, nil
	}

	na := newNode(pa)
	nb := newNode(pb)

	var polys []*polygon
	switch op {
	case Union:
		na.clipTo(nb)
		nb.clipTo(na)
		nb.invert()
		nb.clipTo(na)
		nb.invert()
		na.build(nb.allPolygons())
		polys = na.allPolygons()
	case Subtract:
		na.invert()
		na.clipTo(nb)
		nb.clipTo(na)
		nb.invert()
		nb.clipTo(na)
		nb.invert()
		na.build(nb.allPolygons())
		na.invert()
		polys = na.allPolygons()
	case Intersect:
		na.invert()
		nb.clipTo(na)
		nb.invert()
		na.clipTo(nb)
		nb.clipTo(na)
		na.build(nb.allPolygons())
		na.invert()
		polys = na.allPolygons()
	}

	return &mesh.Brush{Geometry: fromPolygons(polys, layout), Material: a.Material}, nil
}

func checkBrush(name string, b *mesh.Brush) error {
	if b == nil || b.Geometry == nil {
		return fmt.Errorf("%w: %s operand is nil", ErrInvalidGeometry, name)
	}
	if err := b.Geometry.Validate(); err != nil {
		return fmt.Errorf("%w: %s operand: %v", ErrInvalidGeometry, name, err)
	}
	return nil
}

// toPolygons converts every non-degenerate triangle of m into a polygon.
func toPolygons(m *mesh.TriangleMesh, layout uvLayout) []*polygon {
	polys := make([]*polygon, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		idx := m.TriangleVertices(i)
		var vs [3]vertex
		for k, vi := range idx {
			p := m.Position(vi)
			vs[k].pos = vec{float64(p.X), float64(p.Y), float64(p.Z)}
			if layout.carry {
				s := m.UV.ItemSize
				for c := 0; c < s; c++ {
					vs[k].uv[c] = float64(m.UV.Values[vi*s+c])
				}
			}
		}
		pl, ok := planeFromPoints(vs[0].pos, vs[1].pos, vs[2].pos)
		if !ok {
			continue
		}
		polys = append(polys, &polygon{vertices: vs[:], plane: pl})
	}
	return polys
}

// fromPolygons fan-triangulates polys into a triangle soup with flat normals.
func fromPolygons(polys []*polygon, layout uvLayout) *mesh.TriangleMesh {
	tris := 0
	for _, p := range polys {
		tris += len(p.vertices) - 2
	}
	m := &mesh.TriangleMesh{
		Positions: make([]float32, 0, tris*9),
		Normals:   make([]float32, 0, tris*9),
	}
	if layout.present {
		m.UV = &mesh.Attribute{Values: []float32{}, ItemSize: layout.itemSize}
		if layout.carry {
			m.UV.Values = make([]float32, 0, tris*3*layout.itemSize)
		}
	}

	emit := func(v vertex, n vec) {
		m.Positions = append(m.Positions, float32(v.pos.x), float32(v.pos.y), float32(v.pos.z))
		m.Normals = append(m.Normals, float32(n.x), float32(n.y), float32(n.z))
		if layout.carry {
			for c := 0; c < layout.itemSize; c++ {
				m.UV.Values = append(m.UV.Values, float32(v.uv[c]))
			}
		}
	}

	for _, p := range polys {
		n := p.plane.normal
		for k := 1; k+1 < len(p.vertices); k++ {
			emit(p.vertices[0], n)
			emit(p.vertices[k], n)
			emit(p.vertices[k+1], n)
		}
	}
	return m
}
