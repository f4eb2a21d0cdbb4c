// Package camera positions the viewer camera around a mesh.
package camera

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshdiff/pkg/math"
)

// Preset is a named camera placement.
type Preset string

// View presets.
const (
	Isometric Preset = "isometric"
	Top       Preset = "top"
	Left      Preset = "left"
	Right     Preset = "right"
	Bottom    Preset = "bottom"
)

// Presets lists every preset in toolbar order.
var Presets = []Preset{Isometric, Top, Left, Right, Bottom}

// ParsePreset parses a preset name. The empty string means Isometric.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return Isometric, nil
	}
	for _, known := range Presets {
		if p == known {
			return p, nil
		}
	}
	return Isometric, fmt.Errorf("unknown camera preset %q", s)
}

// Up is the world up direction. Meshes are Z-up, as printed parts are.
var Up = math.V3(0, 0, 1)

// axisNudge keeps the eye off the Z axis in top and bottom views, where
// looking straight along Up makes the view matrix degenerate.
const axisNudge = -0.001

// OrbitCamera looks at a target from an eye position and orbits around it.
type OrbitCamera struct {
	Eye    math.Vec3
	Target math.Vec3

	FovY float32 // radians
	Near float32
	Far  float32

	MinDistance     float32
	MaxDistance     float32
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera returns a camera at (1,1,1) looking at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Eye:             math.V3(1, 1, 1),
		FovY:            math32.Pi / 4,
		Near:            0.1,
		Far:             10000,
		MinDistance:     0.01,
		MaxDistance:     100000,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// ApplyPreset places the camera for preset around bounds. offset is the
// extra distance kept between the mesh and the eye.
func (c *OrbitCamera) ApplyPreset(p Preset, bounds math.Box3, offset float32) {
	size := bounds.Size()
	switch p {
	case Top:
		c.Eye = math.V3(0, axisNudge, bounds.Max.Z+offset)
	case Bottom:
		c.Eye = math.V3(0, axisNudge, -(bounds.Max.Z + offset))
	case Left:
		c.Eye = math.V3(-(bounds.Max.X + offset), 0, size.Z/2)
	case Right:
		c.Eye = math.V3(bounds.Max.X+offset, 0, size.Z/2)
	default:
		d := bounds.Max.Z + offset/2
		c.Eye = math.V3(d, d, d)
	}
	c.Target = bounds.Center()
	c.fitClipPlanes(bounds)
}

// fitClipPlanes keeps the whole mesh between the near and far planes.
func (c *OrbitCamera) fitClipPlanes(bounds math.Box3) {
	radius := bounds.Size().Length() / 2
	dist := c.Distance()
	c.Far = math32.Max(dist+radius*4, 100)
	c.Near = math32.Max(c.Far/100000, 0.001)
}

// Distance returns the distance from eye to target.
func (c *OrbitCamera) Distance() float32 {
	return c.Eye.Distance(c.Target)
}

// ViewMatrix returns the view matrix.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Eye, c.Target, Up)
}

// ProjectionMatrix returns the perspective projection for aspect.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag orbits the eye: deltaX turns around Up, deltaY tilts.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	off := c.Eye.Sub(c.Target)
	r := off.Length()
	if r == 0 {
		return
	}
	yaw := math32.Atan2(off.Y, off.X) - deltaX*c.DragSensitivity
	pitch := math32.Asin(clamp(off.Z/r, -1, 1)) + deltaY*c.DragSensitivity

	// Stop just short of the poles.
	const limit = math32.Pi/2 - 0.01
	pitch = clamp(pitch, -limit, limit)

	cp := math32.Cos(pitch)
	c.Eye = c.Target.Add(math.V3(r*cp*math32.Cos(yaw), r*cp*math32.Sin(yaw), r*math32.Sin(pitch)))
}

// HandleZoom moves the eye toward the target for positive delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	off := c.Eye.Sub(c.Target)
	r := off.Length()
	if r == 0 {
		return
	}
	next := clamp(r-delta*r*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
	c.Eye = c.Target.Add(off.Scale(next / r))
}

// Info is the camera section of the info overlay, rounded to two decimals.
type Info struct {
	Position math.Vec3
	Target   math.Vec3
}

// Info returns the rounded camera position and target.
func (c *OrbitCamera) Info() Info {
	return Info{Position: Round2(c.Eye), Target: Round2(c.Target)}
}

// Round2 rounds every component to two decimals.
func Round2(v math.Vec3) math.Vec3 {
	r := func(f float32) float32 { return math32.Floor(f*100+0.5) / 100 }
	return math.V3(r(v.X), r(v.Y), r(v.Z))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
