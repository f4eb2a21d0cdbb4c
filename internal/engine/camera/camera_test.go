package camera

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshdiff/pkg/math"
)

// A 10x20x30 part centered on the origin.
var part = math.Box3{Min: math.V3(-5, -10, -15), Max: math.V3(5, 10, 15)}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset Preset
		eye    math.Vec3
	}{
		{Isometric, math.V3(25, 25, 25)},
		{Top, math.V3(0, -0.001, 35)},
		{Bottom, math.V3(0, -0.001, -35)},
		{Left, math.V3(-25, 0, 15)},
		{Right, math.V3(25, 0, 15)},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			c := NewOrbitCamera()
			c.ApplyPreset(tt.preset, part, 20)

			assert.Equal(t, tt.eye, c.Eye)
			assert.Equal(t, math.V3(0, 0, 0), c.Target)
			assert.Greater(t, c.Far, c.Distance())
			assert.Less(t, c.Near, float32(1))
		})
	}
}

func TestTopViewIsNotDegenerate(t *testing.T) {
	c := NewOrbitCamera()
	c.ApplyPreset(Top, part, 20)
	v := c.ViewMatrix()
	for i, f := range v {
		assert.False(t, gomath.IsNaN(float64(f)), "NaN in view matrix at %d", i)
	}
	// The target lands straight ahead of the eye.
	p := v.TransformVec3(c.Target)
	assert.InDelta(t, 0, p.X, 1e-3)
	assert.InDelta(t, 0, p.Y, 1e-3)
	assert.InDelta(t, -35, p.Z, 1e-2)
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("")
	require.NoError(t, err)
	assert.Equal(t, Isometric, p)

	p, err = ParsePreset(" Bottom")
	require.NoError(t, err)
	assert.Equal(t, Bottom, p)

	_, err = ParsePreset("front")
	assert.Error(t, err)
}

func TestHandleDragKeepsDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.ApplyPreset(Isometric, part, 20)
	before := c.Distance()

	c.HandleDrag(100, -40)
	assert.InDelta(t, before, c.Distance(), 1e-3)
	assert.NotEqual(t, math.V3(25, 25, 25), c.Eye)

	// Pitch is clamped short of the pole.
	c.HandleDrag(0, 100000)
	off := c.Eye.Sub(c.Target).Normalize()
	assert.Less(t, off.Z, float32(1))
}

func TestHandleZoom(t *testing.T) {
	c := NewOrbitCamera()
	c.ApplyPreset(Right, part, 20)
	before := c.Distance()

	c.HandleZoom(1)
	assert.InDelta(t, before*0.9, c.Distance(), 1e-3)

	c.MinDistance = 5
	c.HandleZoom(100)
	assert.InDelta(t, 5, c.Distance(), 1e-3)
}

func TestInfoRounding(t *testing.T) {
	c := NewOrbitCamera()
	c.Eye = math.V3(1.23456, -7.891, 100.004)
	info := c.Info()
	assert.InDelta(t, 1.23, info.Position.X, 1e-5)
	assert.InDelta(t, -7.89, info.Position.Y, 1e-5)
	assert.InDelta(t, 100, info.Position.Z, 1e-3)
}
