package csg

import gomath "math"

// epsilon is the plane thickness used to classify points as coplanar.
const epsilon = 1e-5

// vec is a float64 vector; clipping runs in double precision and only the
// output is narrowed back to float32.
type vec struct{ x, y, z float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec) scale(s float64) vec { return vec{a.x * s, a.y * s, a.z * s} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec) neg() vec            { return vec{-a.x, -a.y, -a.z} }
func (a vec) length() float64     { return gomath.Sqrt(a.dot(a)) }

func (a vec) cross(b vec) vec {
	return vec{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

func (a vec) lerp(b vec, t float64) vec {
	return a.add(b.sub(a).scale(t))
}

type vertex struct {
	pos vec
	uv  [2]float64
}

func (v vertex) interpolate(o vertex, t float64) vertex {
	return vertex{
		pos: v.pos.lerp(o.pos, t),
		uv: [2]float64{
			v.uv[0] + (o.uv[0]-v.uv[0])*t,
			v.uv[1] + (o.uv[1]-v.uv[1])*t,
		},
	}
}

type plane struct {
	normal vec
	w      float64
}

// planeFromPoints returns false for degenerate (zero-area) triangles.
func planeFromPoints(a, b, c vec) (plane, bool) {
	n := b.sub(a).cross(c.sub(a))
	l := n.length()
	if l < 1e-12 || gomath.IsNaN(l) {
		return plane{}, false
	}
	n = n.scale(1 / l)
	return plane{normal: n, w: n.dot(a)}, true
}

func (p plane) flipped() plane {
	return plane{normal: p.normal.neg(), w: -p.w}
}

type polygon struct {
	vertices []vertex
	plane    plane
}

func (p *polygon) flip() {
	for i, j := 0, len(p.vertices)-1; i < j; i, j = i+1, j-1 {
		p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
	}
	p.plane = p.plane.flipped()
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split sorts poly into the four lists relative to pl. Coplanar polygons go
// to coplanarFront or coplanarBack depending on their orientation; spanning
// polygons are cut in two along the plane.
func (pl plane) split(poly *polygon, coplanarFront, coplanarBack, fronts, backs *[]*polygon) {
	var polyType int
	types := make([]int, len(poly.vertices))
	for i, v := range poly.vertices {
		t := pl.normal.dot(v.pos) - pl.w
		typ := coplanar
		if t < -epsilon {
			typ = back
		} else if t > epsilon {
			typ = front
		}
		polyType |= typ
		types[i] = typ
	}

	switch polyType {
	case coplanar:
		if pl.normal.dot(poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	case spanning:
		n := len(poly.vertices)
		f := make([]vertex, 0, n+1)
		b := make([]vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (pl.w - pl.normal.dot(vi.pos)) / pl.normal.dot(vj.pos.sub(vi.pos))
				v := vi.interpolate(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, &polygon{vertices: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, &polygon{vertices: b, plane: poly.plane})
		}
	}
}

// node is a BSP tree node. Polygons coplanar with the splitting plane live
// in the node itself.
type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polys []*polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

// invert turns solid space into empty space and back.
func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.plane != nil {
		f := n.plane.flipped()
		n.plane = &f
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *node) clipPolygons(polys []*polygon) []*polygon {
	if n.plane == nil {
		out := make([]*polygon, len(polys))
		copy(out, polys)
		return out
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes every polygon of n that lies inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []*polygon {
	out := make([]*polygon, 0, len(n.polygons))
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.polygons...)
		if cur.front != nil {
			stack = append(stack, cur.front)
		}
		if cur.back != nil {
			stack = append(stack, cur.back)
		}
	}
	return out
}

// build inserts polys into the tree, splitting them as needed. The first
// polygon of each batch picks the splitting plane of a new node.
func (n *node) build(polys []*polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		p := polys[0].plane
		n.plane = &p
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &n.polygons, &n.polygons, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}
