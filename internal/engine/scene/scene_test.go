package scene

import (
	"context"
	"image/color"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshdiff/internal/diff"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

func TestSceneCollectsObjects(t *testing.T) {
	s := New()
	var sink Sink = s

	box := mesh.Box(math.V3(2, 2, 2), math.V3(0, 0, 0))
	mat := material.MustNew(material.DefaultSettings())
	sink.RenderObject(box, mat)
	sink.RenderObject(nil, mat)

	objs := s.Objects()
	require.Len(t, objs, 1)
	assert.Same(t, box, objs[0].Geometry)
	assert.Same(t, mat, objs[0].Material)
	assert.Equal(t, math.V3(-1, -1, -1), s.Bounds().Min)

	s.Reset()
	assert.Empty(t, s.Objects())
	assert.True(t, s.Bounds().IsEmpty())
}

func TestSceneConcurrentDelivery(t *testing.T) {
	s := New()
	mat := material.MustNew(material.DefaultSettings())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.RenderObject(mesh.Box(math.V3(1, 1, 1), math.V3(float32(i), 0, 0)), mat)
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Objects(), 16)
}

func TestHelperSize(t *testing.T) {
	tests := []struct {
		name   string
		bounds math.Box3
		want   float32
	}{
		{"small", math.Box3{Min: math.V3(-1, -2, -3), Max: math.V3(1, 2, 3)}, 10},
		{"exact multiple", math.Box3{Min: math.V3(-5, -5, 0), Max: math.V3(5, 5, 100)}, 10},
		{"asymmetric", math.Box3{Min: math.V3(-12, 0, 0), Max: math.V3(3, 7, 1)}, 30},
		{"empty", math.EmptyBox(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HelperSize(tt.bounds))
		})
	}
}

func TestGrid(t *testing.T) {
	c := color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	g := Grid(20, c)

	// 4 divisions: 5 lines each way.
	assert.Equal(t, 10, g.SegmentCount())
	assert.Equal(t, c, g.ColorAt(7))
	for i := 2; i < len(g.Vertices); i += 3 {
		assert.Zero(t, g.Vertices[i], "grid lies in the XY plane")
	}
	assert.Equal(t, []float32{-10, -10, 0, 10, -10, 0}, g.Vertices[:6])

	assert.Zero(t, Grid(0, c).SegmentCount())
}

func TestAxes(t *testing.T) {
	a := Axes(30)
	require.Equal(t, 3, a.SegmentCount())
	assert.Equal(t, []float32{30, 0, 0}, a.Vertices[3:6])
	assert.Equal(t, []float32{0, 0, 30}, a.Vertices[15:18])
	assert.Equal(t, uint8(255), a.ColorAt(0).R)
	assert.Equal(t, uint8(255), a.ColorAt(5).B)
}

func TestBoundingBox(t *testing.T) {
	b := math.Box3{Min: math.V3(-1, -2, -3), Max: math.V3(1, 2, 3)}
	l := BoundingBox(b, color.RGBA{R: 255, G: 255, A: 255})

	require.Len(t, l.Vertices, BoundingBoxVertexCount*3)
	for i := 0; i < len(l.Vertices); i += 3 {
		p := math.V3(l.Vertices[i], l.Vertices[i+1], l.Vertices[i+2])
		assert.True(t, p.X == -1 || p.X == 1)
		assert.True(t, p.Y == -2 || p.Y == 2)
		assert.True(t, p.Z == -3 || p.Z == 3)
	}
}

func TestAddHelpers(t *testing.T) {
	b := math.Box3{Min: math.V3(-4, -4, 0), Max: math.V3(4, 4, 2)}

	s := New()
	require.NoError(t, s.AddHelpers(b, HelperOptions{Grid: true, Axes: true, BoundingBox: true}))
	h := s.Helpers()
	require.Len(t, h, 3)
	assert.Equal(t, "grid", h[0].Name)
	assert.Equal(t, "axes", h[1].Name)
	assert.Equal(t, "bounding-box", h[2].Name)
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}, h[0].ColorAt(0))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, A: 0xff}, h[2].ColorAt(0))

	s = New()
	require.NoError(t, s.AddHelpers(b, HelperOptions{Grid: true, GridColor: "red"}))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, s.Helpers()[0].ColorAt(0))

	assert.Error(t, New().AddHelpers(b, HelperOptions{Grid: true, GridColor: "#12"}))
}

func TestShowMeshesSingle(t *testing.T) {
	s := New()
	m := mesh.Box(math.V3(2, 2, 2), math.V3(10, 10, 10))

	framing, err := ShowMeshes(s, []*mesh.TriangleMesh{m}, material.DefaultSettings(), nil)
	require.NoError(t, err)

	objs := s.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, math.V3(0, 0, 0), objs[0].Geometry.Bounds().Center())
	assert.Equal(t, math.V3(-1, -1, -1), framing.Min)
	assert.Equal(t, "#999999", material.Hex(objs[0].Material.Color))
	assert.Equal(t, float32(1), objs[0].Material.Opacity)
	assert.False(t, objs[0].Material.Transparent)

	// The source mesh is untouched.
	assert.Equal(t, math.V3(10, 10, 10), m.Bounds().Center())
}

func TestShowMeshesSeveral(t *testing.T) {
	s := New()
	meshes := []*mesh.TriangleMesh{
		mesh.Box(math.V3(1, 1, 1), math.V3(0, 0, 0)),
		mesh.Box(math.V3(3, 3, 3), math.V3(5, 0, 0)),
	}

	_, err := ShowMeshes(s, meshes, material.DefaultSettings(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, o := range s.Objects() {
		assert.Equal(t, float32(0.5), o.Material.Opacity)
		assert.True(t, o.Material.Transparent)
	}
}

func TestShowDiff(t *testing.T) {
	a := mesh.Box(math.V3(1, 1, 1), math.V3(0, 0, 0))
	b := mesh.Box(math.V3(1, 1, 1), math.V3(0.5, 0, 0))

	eng, err := diff.New(a, b, material.DefaultSettings())
	require.NoError(t, err)
	res, err := eng.ComputeDiff(context.Background()).Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err())

	s := New()
	framing := ShowDiff(s, res)

	objs := s.Objects()
	require.Len(t, objs, 3)
	assert.Equal(t, material.ColorAdded, material.Hex(objs[0].Material.Color))
	assert.Equal(t, material.ColorRemoved, material.Hex(objs[1].Material.Color))
	assert.Equal(t, material.ColorIntersection, material.Hex(objs[2].Material.Color))
	assert.InDelta(t, -0.5, framing.Min.X, 1e-5)
	assert.InDelta(t, 1, framing.Max.X, 1e-5)
}

func TestShowDiffSingleOperand(t *testing.T) {
	a := mesh.Box(math.V3(1, 1, 1), math.V3(0, 0, 0))
	eng, err := diff.New(a, nil, material.DefaultSettings())
	require.NoError(t, err)
	res, err := eng.ComputeDiff(context.Background()).Wait(context.Background())
	require.NoError(t, err)

	s := New()
	framing := ShowDiff(s, res)
	require.Len(t, s.Objects(), 1)
	assert.Equal(t, material.ColorRemoved, material.Hex(s.Objects()[0].Material.Color))
	assert.False(t, framing.IsEmpty())

	assert.True(t, ShowDiff(New(), &diff.Resolved{}).IsEmpty())
}

func TestNewInfo(t *testing.T) {
	cam := camera.NewOrbitCamera()
	b := math.Box3{Min: math.V3(-1.234, -2, -3), Max: math.V3(1.234, 2, 3.456)}
	cam.ApplyPreset(camera.Top, b, 20)

	info := NewInfo(cam, b)
	assert.InDelta(t, -1.23, info.Min.X, 1e-5)
	assert.InDelta(t, 3.46, info.Max.Z, 1e-5)
	assert.InDelta(t, 2.47, info.Dimensions.X, 1e-5)
	assert.InDelta(t, 23.46, info.Camera.Position.Z, 1e-4)

	empty := NewInfo(nil, math.EmptyBox())
	assert.Equal(t, math.Vec3{}, empty.Min)
	assert.Equal(t, math.Vec3{}, empty.Dimensions)
}

func TestGeneration(t *testing.T) {
	s := New()
	g0 := s.Generation()
	s.AddLines(Axes(10))
	g1 := s.Generation()
	assert.NotEqual(t, g0, g1)

	s.ClearHelpers()
	assert.Empty(t, s.Helpers())
	assert.NotEqual(t, g1, s.Generation())
}

func TestInfoString(t *testing.T) {
	info := Info{
		Min:        math.V3(-1, -2, -3),
		Max:        math.V3(1, 2, 3.456),
		Dimensions: math.V3(2, 4, 6.46),
	}
	assert.Equal(t,
		"camera (0.00, 0.00, 0.00)  min (-1.00, -2.00, -3.00)  max (1.00, 2.00, 3.46)  size (2.00, 4.00, 6.46)",
		info.String())
}
