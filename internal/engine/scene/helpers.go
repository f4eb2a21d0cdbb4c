package scene

import (
	"image/color"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
)

// Lines is a line-list helper: every two vertices form a segment.
type Lines struct {
	Name     string
	Vertices []float32 // x, y, z per vertex
	Colors   []color.RGBA
}

// SegmentCount returns the number of segments.
func (l Lines) SegmentCount() int {
	return len(l.Vertices) / 6
}

// ColorAt returns the color of vertex i. A single color applies to all vertices.
func (l Lines) ColorAt(i int) color.RGBA {
	if len(l.Colors) == 1 {
		return l.Colors[0]
	}
	return l.Colors[i]
}

// HelperSize is the grid and axes size for bounds: the largest planar
// extent rounded up to a multiple of 5, doubled.
func HelperSize(bounds math.Box3) float32 {
	return math32.Ceil(bounds.PlanarExtent()/5) * 10
}

// Grid returns a square grid of size in the XY plane, centered on the
// origin, with size/5 divisions.
func Grid(size float32, c color.RGBA) Lines {
	l := Lines{Name: "grid", Colors: []color.RGBA{c}}
	divisions := int(size / 5)
	if divisions <= 0 {
		return l
	}
	half := size / 2
	step := size / float32(divisions)
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		l.Vertices = append(l.Vertices,
			-half, k, 0, half, k, 0,
			k, -half, 0, k, half, 0,
		)
	}
	return l
}

// Axes returns the X, Y and Z axes of length size, colored red, green and blue.
func Axes(size float32) Lines {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	return Lines{
		Name: "axes",
		Vertices: []float32{
			0, 0, 0, size, 0, 0,
			0, 0, 0, 0, size, 0,
			0, 0, 0, 0, 0, size,
		},
		Colors: []color.RGBA{red, red, green, green, blue, blue},
	}
}

// BoundingBox returns the 12 edges of bounds.
func BoundingBox(bounds math.Box3, c color.RGBA) Lines {
	return Lines{
		Name:     "bounding-box",
		Vertices: boxEdges(bounds.Min, bounds.Max),
		Colors:   []color.RGBA{c},
	}
}

// BoundingBoxVertexCount is the number of vertices in a bounding-box helper (12 edges × 2).
const BoundingBoxVertexCount = 24

func boxEdges(lo, hi math.Vec3) []float32 {
	return []float32{
		// Bottom face (4 edges)
		lo.X, lo.Y, lo.Z, hi.X, lo.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, lo.Y, hi.Z,
		hi.X, lo.Y, hi.Z, lo.X, lo.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, lo.Y, lo.Z,
		// Top face (4 edges)
		lo.X, hi.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, hi.Y, lo.Z, hi.X, hi.Y, hi.Z,
		hi.X, hi.Y, hi.Z, lo.X, hi.Y, hi.Z,
		lo.X, hi.Y, hi.Z, lo.X, hi.Y, lo.Z,
		// Vertical edges (4 edges)
		lo.X, lo.Y, lo.Z, lo.X, hi.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, hi.Y, hi.Z,
	}
}

// HelperOptions selects the helpers added by AddHelpers.
type HelperOptions struct {
	Grid        bool
	GridColor   string // empty means material.ColorGrid
	Axes        bool
	BoundingBox bool
}

// AddHelpers adds the selected helpers sized for bounds.
func (s *Scene) AddHelpers(bounds math.Box3, opts HelperOptions) error {
	size := HelperSize(bounds)
	if opts.Grid {
		hex := opts.GridColor
		if hex == "" {
			hex = material.ColorGrid
		}
		c, err := material.ParseColor(hex)
		if err != nil {
			return err
		}
		s.AddLines(Grid(size, c))
	}
	if opts.Axes {
		s.AddLines(Axes(size))
	}
	if opts.BoundingBox && !bounds.IsEmpty() {
		c, _ := material.ParseColor(material.ColorBoundingBox)
		s.AddLines(BoundingBox(bounds, c))
	}
	return nil
}
