package scene

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Faultbox/meshdiff/internal/diff"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// ShowMeshes centers each mesh on the origin and sends it to sink. A single
// mesh gets the default color; several get random translucent colors drawn
// from rng, or from a time-seeded source when rng is nil. It
// returns the bounds of the first mesh, which frames the camera.
func ShowMeshes(sink Sink, meshes []*mesh.TriangleMesh, settings material.Settings, rng *rand.Rand) (math.Box3, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	framing := math.EmptyBox()
	for i, m := range meshes {
		mat, err := material.New(material.DisplaySettings(settings, len(meshes), rng))
		if err != nil {
			return framing, err
		}
		centered := m.Center()
		if i == 0 {
			framing = centered.Bounds()
		}
		sink.RenderObject(centered, mat)
	}
	return framing, nil
}

// ShowDiff sends the added, removed and intersection brushes of r to sink.
// The sum is not drawn; its bounds are returned to frame the camera.
func ShowDiff(sink Sink, r *diff.Resolved) math.Box3 {
	for _, c := range []diff.Category{diff.CategoryAdded, diff.CategoryRemoved, diff.CategoryIntersection} {
		if b := r.Brush(c); b != nil {
			sink.RenderObject(b.Geometry, b.Material)
		}
	}
	if r.Sum == nil {
		return math.EmptyBox()
	}
	return r.Sum.Geometry.Bounds()
}

// Info is the content of the info overlay. All values are rounded to two decimals.
type Info struct {
	Camera     camera.Info
	Min        math.Vec3
	Max        math.Vec3
	Dimensions math.Vec3
}

// NewInfo builds the overlay for cam looking at bounds.
func NewInfo(cam *camera.OrbitCamera, bounds math.Box3) Info {
	info := Info{
		Min:        camera.Round2(bounds.Min),
		Max:        camera.Round2(bounds.Max),
		Dimensions: camera.Round2(bounds.Size()),
	}
	if bounds.IsEmpty() {
		info.Min, info.Max = math.Vec3{}, math.Vec3{}
	}
	if cam != nil {
		info.Camera = cam.Info()
	}
	return info
}

func (i Info) String() string {
	v := func(p math.Vec3) string { return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z) }
	return fmt.Sprintf("camera %s  min %s  max %s  size %s",
		v(i.Camera.Position), v(i.Min), v(i.Max), v(i.Dimensions))
}
