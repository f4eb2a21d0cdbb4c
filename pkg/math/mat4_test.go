package math

import (
	"math"
	"testing"
)

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/2), 2, 1, 100)

	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
	// 90 degree fov: f = 1, divided by aspect on X.
	if abs(m[0]-0.5) > 1e-5 || abs(m[5]-1) > 1e-5 {
		t.Errorf("Perspective scale = (%f, %f), want (0.5, 1)", m[0], m[5])
	}

	// Points on the near and far planes land on NDC -1 and +1.
	near := m.TransformVec3(Vec3{0, 0, -1})
	far := m.TransformVec3(Vec3{0, 0, -100})
	if abs(near.Z+1) > 1e-4 || abs(far.Z-1) > 1e-4 {
		t.Errorf("depth range = (%f, %f), want (-1, 1)", near.Z, far.Z)
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	center := Vec3{0, 0, 0}
	up := Vec3{0, 1, 0}

	m := LookAt(eye, center, up)

	if m[15] != 1 {
		t.Errorf("LookAt [15] should be 1, got %f", m[15])
	}

	// The eye maps to the view-space origin
	got := m.TransformVec3(eye)
	if abs(got.X) > 1e-5 || abs(got.Y) > 1e-5 || abs(got.Z) > 1e-5 {
		t.Errorf("LookAt(eye) = %v, want origin", got)
	}

	// The target lies straight ahead on -Z
	got = m.TransformVec3(center)
	if abs(got.Z+5) > 1e-5 {
		t.Errorf("LookAt(center).Z = %f, want -5", got.Z)
	}
}

func TestLookAtZUp(t *testing.T) {
	m := LookAt(Vec3{3, 3, 3}, Vec3{}, Vec3{0, 0, 1})
	up := m.TransformDirection(Vec3{0, 0, 1})
	if up.Y <= 0 {
		t.Errorf("world +Z should point up in view space, got %v", up)
	}
	// Directions ignore the translation column.
	if d := m.TransformDirection(Vec3{}); d != (Vec3{}) {
		t.Errorf("TransformDirection(0) = %v, want zero", d)
	}
}

func TestMulOrder(t *testing.T) {
	view := LookAt(Vec3{0, 0, 10}, Vec3{}, Vec3{0, 1, 0})
	proj := Perspective(float32(math.Pi/4), 1, 0.1, 100)
	viewProj := proj.Mul(view)

	for _, p := range []Vec3{{0, 0, 0}, {1, 2, 3}, {-4, 0.5, -2}} {
		want := proj.TransformVec3(view.TransformVec3(p))
		got := viewProj.TransformVec3(p)
		if abs(got.X-want.X) > 1e-4 || abs(got.Y-want.Y) > 1e-4 || abs(got.Z-want.Z) > 1e-4 {
			t.Errorf("viewProj(%v) = %v, want %v", p, got, want)
		}
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
