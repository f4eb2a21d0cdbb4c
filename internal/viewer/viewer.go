// Package viewer holds the interactive state of the mesh viewer: what is in
// the scene, where the camera is, and how keys and mouse gestures change
// them. It does not touch SDL or OpenGL.
package viewer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/config"
	"github.com/Faultbox/meshdiff/internal/diff"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/internal/engine/scene"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/preview"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// Action tells the caller what to do after an input.
type Action int

const (
	ActionNone Action = iota
	ActionRedraw
	ActionScreenshot
	ActionQuit
)

// Viewer is the viewer state.
type Viewer struct {
	Scene  *scene.Scene
	Camera *camera.OrbitCamera

	cfg      *config.Config
	rng      *rand.Rand
	log      *zap.Logger
	framing  math.Box3
	preset   camera.Preset
	dragging bool
	framed   bool
	failures int
}

// New creates an empty viewer for cfg.
func New(cfg *config.Config) *Viewer {
	return &Viewer{
		Scene:   scene.New(),
		Camera:  camera.NewOrbitCamera(),
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     logger.Named("viewer"),
		framing: math.EmptyBox(),
		preset:  cfg.CameraPreset(),
	}
}

// Load replaces the scene content with d. Diff categories that fail to
// evaluate are logged and left out; the rest are shown. The new content is
// built aside and swapped in only on success, so a failed Load leaves the
// viewer as it was. The camera preset is applied on the first successful
// Load only; later loads keep the camera where the user left it.
func (v *Viewer) Load(ctx context.Context, d *preview.Data) error {
	meshes, err := d.Parse(ctx)
	if err != nil {
		return err
	}

	next := scene.New()
	var framing math.Box3
	failures := 0

	if !d.IsDiff() {
		framing, err = scene.ShowMeshes(next, []*mesh.TriangleMesh{meshes.File}, v.cfg.MeshMaterial, v.rng)
		if err != nil {
			return err
		}
	} else {
		opts := append(v.cfg.DiffOptions(), diff.WithLogger(v.log))
		eng, err := diff.New(meshes.Prev, meshes.Current, v.cfg.MeshMaterial, opts...)
		if err != nil {
			return err
		}
		res, err := eng.ComputeDiff(ctx).Wait(ctx)
		if err != nil {
			return err
		}
		for c, cerr := range res.Errors {
			failures++
			v.log.Warn("diff category failed", zap.Stringer("category", c), zap.Error(cerr))
		}
		framing = scene.ShowDiff(next, res)
		if framing.IsEmpty() {
			framing = next.Bounds()
		}
	}

	if err := v.addHelpers(next, framing); err != nil {
		return err
	}

	v.Scene, v.framing, v.failures = next, framing, failures
	if !v.framed {
		v.ApplyPreset(v.preset)
		v.framed = true
	}
	v.log.Info("scene loaded",
		zap.Int("objects", len(v.Scene.Objects())),
		zap.Int("failed", v.failures),
		zap.Stringer("info", v.Info()),
	)
	return nil
}

// Failures returns the number of diff categories that failed in the last Load.
func (v *Viewer) Failures() int {
	return v.failures
}

// Framing returns the bounds the camera is fitted to.
func (v *Viewer) Framing() math.Box3 {
	return v.framing
}

func (v *Viewer) refreshHelpers() error {
	v.Scene.ClearHelpers()
	return v.addHelpers(v.Scene, v.framing)
}

func (v *Viewer) addHelpers(s *scene.Scene, framing math.Box3) error {
	return s.AddHelpers(framing, scene.HelperOptions{
		Grid:        v.cfg.Grid.Enable,
		GridColor:   v.cfg.Grid.Color,
		Axes:        v.cfg.View.ShowAxes,
		BoundingBox: v.cfg.View.ShowBoundingBox,
	})
}

// ApplyPreset moves the camera to p around the framing bounds.
func (v *Viewer) ApplyPreset(p camera.Preset) {
	v.preset = p
	v.Camera.ApplyPreset(p, v.framing, v.cfg.View.ViewOffset)
}

// Preset returns the last applied preset.
func (v *Viewer) Preset() camera.Preset {
	return v.preset
}

// Info returns the info overlay values.
func (v *Viewer) Info() scene.Info {
	return scene.NewInfo(v.Camera, v.framing)
}

// Title returns the window title for name.
func (v *Viewer) Title(name string) string {
	if !v.cfg.View.ShowInfo {
		return name
	}
	return fmt.Sprintf("%s  |  %s", name, v.Info())
}

// HandleKey reacts to a lower-case key.
//
//	1-5  view presets (when view buttons are enabled)
//	r    reset to the current preset
//	i    toggle the info overlay
//	g    toggle the grid
//	a    toggle the axes
//	b    toggle the bounding box
//	s    screenshot
//	q    quit
func (v *Viewer) HandleKey(r rune) Action {
	switch r {
	case '1', '2', '3', '4', '5':
		if !v.cfg.View.ShowViewButtons {
			return ActionNone
		}
		v.ApplyPreset(camera.Presets[r-'1'])
	case 'r':
		v.ApplyPreset(v.preset)
	case 'i':
		v.cfg.View.ShowInfo = !v.cfg.View.ShowInfo
	case 'g':
		v.cfg.Grid.Enable = !v.cfg.Grid.Enable
		return v.redrawHelpers()
	case 'a':
		v.cfg.View.ShowAxes = !v.cfg.View.ShowAxes
		return v.redrawHelpers()
	case 'b':
		v.cfg.View.ShowBoundingBox = !v.cfg.View.ShowBoundingBox
		return v.redrawHelpers()
	case 's':
		return ActionScreenshot
	case 'q', 27: // escape
		return ActionQuit
	default:
		return ActionNone
	}
	return ActionRedraw
}

func (v *Viewer) redrawHelpers() Action {
	if err := v.refreshHelpers(); err != nil {
		v.log.Warn("updating helpers", zap.Error(err))
	}
	return ActionRedraw
}

// PressButton starts a drag with the left button.
func (v *Viewer) PressButton(left bool) {
	if left {
		v.dragging = true
	}
}

// ReleaseButton ends a drag.
func (v *Viewer) ReleaseButton(left bool) {
	if left {
		v.dragging = false
	}
}

// HandleMotion orbits the camera while dragging.
func (v *Viewer) HandleMotion(dx, dy int) Action {
	if !v.dragging {
		return ActionNone
	}
	v.Camera.HandleDrag(float32(dx), float32(dy))
	return ActionRedraw
}

// HandleWheel zooms; positive ticks move closer.
func (v *Viewer) HandleWheel(ticks int) Action {
	if ticks == 0 {
		return ActionNone
	}
	v.Camera.HandleZoom(float32(ticks))
	return ActionRedraw
}
