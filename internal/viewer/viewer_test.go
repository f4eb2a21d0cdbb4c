package viewer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshdiff/internal/config"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/internal/preview"
	"github.com/Faultbox/meshdiff/pkg/formats"
	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

func stlBytes(t *testing.T, size float32, center math.Vec3) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, formats.WriteSTL(path, mesh.Box(math.V3(size, size, size), center)))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestLoadSingle(t *testing.T) {
	v := New(config.Default())
	d := &preview.Data{File: stlBytes(t, 2, math.V3(10, 10, 10))}
	require.NoError(t, v.Load(context.Background(), d))

	objs := v.Scene.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "#999999", material.Hex(objs[0].Material.Color))

	// Centered on the origin and framed.
	assert.InDelta(t, -1, v.Framing().Min.X, 1e-5)
	assert.InDelta(t, 1, v.Framing().Max.Z, 1e-5)
	assert.Equal(t, camera.Isometric, v.Preset())
	assert.InDelta(t, 11, v.Camera.Eye.X, 1e-4) // max.z + offset/2

	// Default config shows only the grid.
	helpers := v.Scene.Helpers()
	require.Len(t, helpers, 1)
	assert.Equal(t, "grid", helpers[0].Name)
}

func TestLoadDiff(t *testing.T) {
	for _, mode := range []string{"in-process", "isolated"} {
		t.Run(mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.Diff.Mode = mode
			v := New(cfg)

			d := &preview.Data{
				Prev:    stlBytes(t, 1, math.V3(0, 0, 0)),
				Current: stlBytes(t, 1, math.V3(0.5, 0, 0)),
			}
			require.NoError(t, v.Load(context.Background(), d))

			objs := v.Scene.Objects()
			require.Len(t, objs, 3)
			assert.Equal(t, 0, v.Failures())
			assert.InDelta(t, -0.5, v.Framing().Min.X, 1e-5)
			assert.InDelta(t, 1, v.Framing().Max.X, 1e-5)
		})
	}
}

func TestLoadDiffAddedFile(t *testing.T) {
	v := New(config.Default())
	d := &preview.Data{Current: stlBytes(t, 1, math.V3(0, 0, 0))}
	require.NoError(t, v.Load(context.Background(), d))

	objs := v.Scene.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, material.ColorAdded, material.Hex(objs[0].Material.Color))
	assert.False(t, v.Framing().IsEmpty())
}

func TestLoadReplacesContent(t *testing.T) {
	v := New(config.Default())
	d := &preview.Data{File: stlBytes(t, 1, math.V3(0, 0, 0))}
	require.NoError(t, v.Load(context.Background(), d))
	require.NoError(t, v.Load(context.Background(), d))
	assert.Len(t, v.Scene.Objects(), 1)
	assert.Len(t, v.Scene.Helpers(), 1)
}

func TestReloadKeepsCamera(t *testing.T) {
	v := New(config.Default())
	d := &preview.Data{File: stlBytes(t, 2, math.V3(10, 10, 10))}
	require.NoError(t, v.Load(context.Background(), d))
	require.InDelta(t, 11, v.Camera.Eye.X, 1e-4)

	v.PressButton(true)
	v.HandleMotion(40, 15)
	v.ReleaseButton(true)
	v.HandleWheel(2)
	eye, target := v.Camera.Eye, v.Camera.Target

	require.NoError(t, v.Load(context.Background(), d))
	assert.Equal(t, eye, v.Camera.Eye)
	assert.Equal(t, target, v.Camera.Target)

	d.File = stlBytes(t, 4, math.V3(0, 0, 0))
	require.NoError(t, v.Load(context.Background(), d))
	assert.Equal(t, eye, v.Camera.Eye)
	assert.InDelta(t, 2, v.Framing().Max.X, 1e-5)

	// Reset frames the new bounds.
	assert.Equal(t, ActionRedraw, v.HandleKey('r'))
	assert.InDelta(t, 12, v.Camera.Eye.X, 1e-4)
}

func TestFailedReloadKeepsContent(t *testing.T) {
	cfg := config.Default()
	v := New(cfg)
	require.NoError(t, v.Load(context.Background(), &preview.Data{File: stlBytes(t, 2, math.V3(0, 0, 0))}))
	before := v.Scene
	framing := v.Framing()

	cfg.MeshMaterial = material.Settings{Kind: material.KindBasic, Config: material.Params{material.ParamColor: "not-a-color"}}
	err := v.Load(context.Background(), &preview.Data{
		Prev:    stlBytes(t, 1, math.V3(0, 0, 0)),
		Current: stlBytes(t, 1, math.V3(0.5, 0, 0)),
	})
	require.ErrorIs(t, err, material.ErrInvalidColor)

	assert.Same(t, before, v.Scene)
	assert.Len(t, v.Scene.Objects(), 1)
	assert.Len(t, v.Scene.Helpers(), 1)
	assert.Equal(t, framing, v.Framing())
}

func TestLoadParseError(t *testing.T) {
	v := New(config.Default())
	err := v.Load(context.Background(), &preview.Data{File: []byte("garbage")})
	assert.ErrorIs(t, err, formats.ErrParse)
}

func TestHandleKey(t *testing.T) {
	v := New(config.Default())
	require.NoError(t, v.Load(context.Background(), &preview.Data{File: stlBytes(t, 2, math.V3(0, 0, 0))}))

	assert.Equal(t, ActionRedraw, v.HandleKey('2'))
	assert.Equal(t, camera.Top, v.Preset())
	assert.InDelta(t, -0.001, v.Camera.Eye.Y, 1e-6)

	assert.Equal(t, ActionRedraw, v.HandleKey('5'))
	assert.Equal(t, camera.Bottom, v.Preset())

	v.Camera.HandleZoom(3)
	assert.Equal(t, ActionRedraw, v.HandleKey('r'))
	assert.InDelta(t, -21, v.Camera.Eye.Z, 1e-4)

	assert.Equal(t, ActionRedraw, v.HandleKey('a'))
	assert.Len(t, v.Scene.Helpers(), 2)
	assert.Equal(t, ActionRedraw, v.HandleKey('g'))
	assert.Len(t, v.Scene.Helpers(), 1)
	assert.Equal(t, ActionRedraw, v.HandleKey('b'))
	assert.Len(t, v.Scene.Helpers(), 2)

	assert.Equal(t, ActionScreenshot, v.HandleKey('s'))
	assert.Equal(t, ActionQuit, v.HandleKey('q'))
	assert.Equal(t, ActionQuit, v.HandleKey(27))
	assert.Equal(t, ActionNone, v.HandleKey('z'))
}

func TestPresetKeysNeedViewButtons(t *testing.T) {
	cfg := config.Default()
	cfg.View.ShowViewButtons = false
	v := New(cfg)

	assert.Equal(t, ActionNone, v.HandleKey('3'))
	assert.Equal(t, camera.Isometric, v.Preset())
}

func TestMouse(t *testing.T) {
	v := New(config.Default())
	require.NoError(t, v.Load(context.Background(), &preview.Data{File: stlBytes(t, 2, math.V3(0, 0, 0))}))
	eye := v.Camera.Eye

	assert.Equal(t, ActionNone, v.HandleMotion(50, 0))
	assert.Equal(t, eye, v.Camera.Eye)

	v.PressButton(true)
	assert.Equal(t, ActionRedraw, v.HandleMotion(50, 0))
	assert.NotEqual(t, eye, v.Camera.Eye)
	v.ReleaseButton(true)

	moved := v.Camera.Eye
	assert.Equal(t, ActionNone, v.HandleMotion(50, 0))
	assert.Equal(t, moved, v.Camera.Eye)

	d := v.Camera.Distance()
	assert.Equal(t, ActionRedraw, v.HandleWheel(1))
	assert.Less(t, v.Camera.Distance(), d)
	assert.Equal(t, ActionNone, v.HandleWheel(0))
}

func TestTitle(t *testing.T) {
	v := New(config.Default())
	assert.Equal(t, "part.stl", v.Title("part.stl"))

	v.HandleKey('i')
	assert.Contains(t, v.Title("part.stl"), "part.stl  |  camera (")
}
