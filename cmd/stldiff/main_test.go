package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshdiff/pkg/formats"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// workdir moves the test into an empty directory with no user config.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func writeCube(t *testing.T, path string, center math.Vec3) {
	t.Helper()
	require.NoError(t, formats.WriteSTL(path, mesh.Box(math.V3(10, 10, 10), center)))
}

func TestInfo(t *testing.T) {
	dir := workdir(t)
	path := filepath.Join(dir, "cube.stl")
	writeCube(t, path, math.V3(0, 0, 5))

	var out bytes.Buffer
	require.NoError(t, cmdInfo([]string{path}, &out))

	s := out.String()
	assert.Contains(t, s, "Format:     binary")
	assert.Contains(t, s, "Triangles:  12")
	assert.Contains(t, s, "Volume:     1000.00")
	assert.Contains(t, s, "Min:        -5.00 -5.00 0.00")
	assert.Contains(t, s, "Dimensions: 10.00 10.00 10.00")
}

func TestInfoErrors(t *testing.T) {
	dir := workdir(t)
	assert.Error(t, cmdInfo(nil, &bytes.Buffer{}))
	assert.Error(t, cmdInfo([]string{filepath.Join(dir, "missing.stl")}, &bytes.Buffer{}))

	bad := filepath.Join(dir, "bad.stl")
	require.NoError(t, os.WriteFile(bad, []byte("solid x\nfacet normal 0 0\n"), 0644))
	assert.ErrorIs(t, cmdInfo([]string{bad}, &bytes.Buffer{}), formats.ErrParse)
}

func TestDiffExport(t *testing.T) {
	dir := workdir(t)
	before := filepath.Join(dir, "before.stl")
	after := filepath.Join(dir, "after.stl")
	writeCube(t, before, math.V3(0, 0, 0))
	writeCube(t, after, math.V3(5, 0, 0))
	outDir := filepath.Join(dir, "out")

	var out bytes.Buffer
	require.NoError(t, cmdDiff(context.Background(), []string{"-o", outDir, before, after}, &out))

	volumes := map[string]float64{
		"added":        500,
		"removed":      500,
		"intersection": 500,
		"sum":          1500,
	}
	for name, want := range volumes {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(outDir, name+".stl")
			assert.Contains(t, out.String(), path)

			m, err := formats.ParseSTLFile(path)
			require.NoError(t, err)
			assert.InDelta(t, want, m.Volume(), 1e-2)
		})
	}

	added, err := formats.ParseSTLFile(filepath.Join(outDir, "added.stl"))
	require.NoError(t, err)
	assert.InDelta(t, 5, added.Bounds().Min.X, 1e-4)
	assert.InDelta(t, 10, added.Bounds().Max.X, 1e-4)
}

func TestDiffNewFile(t *testing.T) {
	dir := workdir(t)
	after := filepath.Join(dir, "after.stl")
	writeCube(t, after, math.V3(0, 0, 0))

	var out bytes.Buffer
	err := cmdDiff(context.Background(), []string{filepath.Join(dir, "before.stl"), after}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "added")
	assert.Contains(t, out.String(), "1000.00")
}

func TestDiffUsage(t *testing.T) {
	workdir(t)
	assert.Error(t, cmdDiff(context.Background(), []string{"only-one.stl"}, &bytes.Buffer{}))
	assert.Error(t, cmdDiff(context.Background(), []string{"-mode", "sideways", "a.stl", "b.stl"}, &bytes.Buffer{}))
	assert.Error(t, cmdRev(context.Background(), nil, &bytes.Buffer{}))
	assert.Error(t, cmdWatch(context.Background(), []string{"a.stl"}, &bytes.Buffer{}))
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := workdir(t)
	before := filepath.Join(dir, "before.stl")
	after := filepath.Join(dir, "after.stl")
	writeCube(t, before, math.V3(0, 0, 0))
	writeCube(t, after, math.V3(5, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, cmdWatch(ctx, []string{before, after}, &out))
}
