// Package scene collects what the viewer draws: meshes with their
// materials, plus the grid, axes and bounding-box helpers.
package scene

import (
	"image/color"
	"sync"

	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// Sink receives objects to render. Ownership of both arguments passes to the sink.
type Sink interface {
	RenderObject(geometry *mesh.TriangleMesh, mat *material.Material)
}

// Object is a mesh with its material.
type Object struct {
	Geometry *mesh.TriangleMesh
	Material *material.Material
}

// Light is a directional light shining from Position toward the origin.
type Light struct {
	Position  math.Vec3
	Color     color.RGBA
	Intensity float32
}

// Hemisphere is an ambient light blended between sky and ground colors.
type Hemisphere struct {
	Sky       color.RGBA
	Ground    color.RGBA
	Intensity float32
}

// Scene is the default Sink. It is safe for concurrent use, so diff
// futures may deliver into it from several goroutines.
type Scene struct {
	mu      sync.Mutex
	objects []Object
	helpers []Lines
	gen     uint64

	Background color.RGBA
	Ambient    Hemisphere
	Sun        Light
}

// New creates an empty scene with the default background and lights.
func New() *Scene {
	bg, _ := material.ParseColor(material.ColorBackground)
	light, _ := material.ParseColor(material.ColorLight)
	return &Scene{
		Background: bg,
		Ambient:    Hemisphere{Sky: light, Ground: bg, Intensity: 0.6},
		Sun:        Light{Position: math.V3(10, 10, 10), Color: light, Intensity: 1},
	}
}

// RenderObject adds geometry with mat. Nil geometry is ignored.
func (s *Scene) RenderObject(geometry *mesh.TriangleMesh, mat *material.Material) {
	if geometry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, Object{Geometry: geometry, Material: mat})
	s.gen++
}

// AddLines adds a line helper.
func (s *Scene) AddLines(l Lines) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.helpers = append(s.helpers, l)
	s.gen++
}

// ClearHelpers removes every line helper.
func (s *Scene) ClearHelpers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.helpers = nil
	s.gen++
}

// Generation changes whenever the helpers or objects change.
func (s *Scene) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Objects returns a snapshot of the rendered objects in insertion order.
func (s *Scene) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Object(nil), s.objects...)
}

// Helpers returns a snapshot of the line helpers.
func (s *Scene) Helpers() []Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lines(nil), s.helpers...)
}

// Bounds returns the union of all object bounds.
func (s *Scene) Bounds() math.Box3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := math.EmptyBox()
	for _, o := range s.objects {
		b = b.Union(o.Geometry.Bounds())
	}
	return b
}

// Reset removes every object and helper. Lights are kept.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
	s.helpers = nil
	s.gen++
}
