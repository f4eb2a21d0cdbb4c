package mesh

import "github.com/Faultbox/meshdiff/pkg/math"

// FromTriangles builds a triangle soup with flat normals computed from winding.
func FromTriangles(tris [][3]math.Vec3) *TriangleMesh {
	m := &TriangleMesh{
		Positions: make([]float32, 0, len(tris)*9),
		Normals:   make([]float32, 0, len(tris)*9),
	}
	for _, t := range tris {
		n := faceNormal(t[0], t[1], t[2])
		for _, v := range t {
			m.Positions = append(m.Positions, v.X, v.Y, v.Z)
			m.Normals = append(m.Normals, n.X, n.Y, n.Z)
		}
	}
	return m
}

// Box builds an axis-aligned box with outward winding.
func Box(size, center math.Vec3) *TriangleMesh {
	h := size.Scale(0.5)
	lo := center.Sub(h)
	hi := center.Add(h)

	corner := func(x, y, z int) math.Vec3 {
		p := lo
		if x == 1 {
			p.X = hi.X
		}
		if y == 1 {
			p.Y = hi.Y
		}
		if z == 1 {
			p.Z = hi.Z
		}
		return p
	}

	// Each face is listed counter-clockwise when seen from outside.
	faces := [6][4]math.Vec3{
		{corner(0, 0, 0), corner(0, 0, 1), corner(0, 1, 1), corner(0, 1, 0)}, // -X
		{corner(1, 0, 0), corner(1, 1, 0), corner(1, 1, 1), corner(1, 0, 1)}, // +X
		{corner(0, 0, 0), corner(1, 0, 0), corner(1, 0, 1), corner(0, 0, 1)}, // -Y
		{corner(0, 1, 0), corner(0, 1, 1), corner(1, 1, 1), corner(1, 1, 0)}, // +Y
		{corner(0, 0, 0), corner(0, 1, 0), corner(1, 1, 0), corner(1, 0, 0)}, // -Z
		{corner(0, 0, 1), corner(1, 0, 1), corner(1, 1, 1), corner(0, 1, 1)}, // +Z
	}

	tris := make([][3]math.Vec3, 0, 12)
	for _, f := range faces {
		tris = append(tris, [3]math.Vec3{f[0], f[1], f[2]}, [3]math.Vec3{f[0], f[2], f[3]})
	}
	return FromTriangles(tris)
}
