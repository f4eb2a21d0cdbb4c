package mesh

import "github.com/Faultbox/meshdiff/pkg/material"

// Brush is an operand of a boolean operation, optionally paired with a material.
type Brush struct {
	Geometry *TriangleMesh
	Material *material.Material
}

// NewBrush wraps a private copy of geometry. Later changes to geometry do not
// affect the brush.
func NewBrush(geometry *TriangleMesh, mat *material.Material) *Brush {
	return &Brush{Geometry: geometry.Clone(), Material: mat}
}

// WithMaterial returns a brush with a copy of b's geometry and the given material.
func (b *Brush) WithMaterial(mat *material.Material) *Brush {
	return NewBrush(b.Geometry, mat)
}
