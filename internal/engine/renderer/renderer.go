// Package renderer draws a scene with OpenGL.
package renderer

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/internal/engine/scene"
	"github.com/Faultbox/meshdiff/internal/engine/shader"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Shading models understood by the mesh fragment shader.
const (
	shadeBasic int32 = iota
	shadeLambert
	shadePhong
	shadeStandard
	shadeNormal
)

func shadingMode(k material.Kind) int32 {
	switch k {
	case material.KindBasic:
		return shadeBasic
	case material.KindPhong:
		return shadePhong
	case material.KindStandard:
		return shadeStandard
	case material.KindNormal:
		return shadeNormal
	default:
		return shadeLambert
	}
}

// shininess maps a material to a Blinn-Phong exponent. Standard materials
// derive it from roughness.
func shininess(m *material.Material) float32 {
	if m.Kind == material.KindStandard {
		r := math32.Max(m.Roughness, 0.05)
		return math32.Min(2/(r*r*r*r)-2, 512)
	}
	if m.Shininess <= 0 {
		return 30
	}
	return m.Shininess
}

type gpuBuffer struct {
	vao, vbo uint32
	count    int32
}

func (b *gpuBuffer) delete() {
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.vbo)
}

// upload creates a VAO with two vec3 attributes interleaved in data.
func upload(data []float32) *gpuBuffer {
	b := &gpuBuffer{count: int32(len(data) / 6)}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return b
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	meshProgram  *shader.Program
	linesProgram *shader.Program

	meshes map[*mesh.TriangleMesh]*gpuBuffer
	lines    *gpuBuffer
	linesGen uint64 // scene generation the lines buffer was built from
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		meshes: make(map[*mesh.TriangleMesh]*gpuBuffer),
	}

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	var err error
	if r.meshProgram, err = shader.Compile(meshVertexShader, meshFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	if r.linesProgram, err = shader.Compile(linesVertexShader, linesFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("lines shader: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.Forget()
	r.meshProgram.Delete()
	r.linesProgram.Delete()
}

// Forget releases every uploaded buffer. Call it after the scene is reset.
func (r *Renderer) Forget() {
	for m, b := range r.meshes {
		b.delete()
		delete(r.meshes, m)
	}
	if r.lines != nil {
		r.lines.delete()
		r.lines = nil
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

func (r *Renderer) meshBuffer(m *mesh.TriangleMesh) *gpuBuffer {
	if b, ok := r.meshes[m]; ok {
		return b
	}
	soup := m.NonIndexed()
	data := make([]float32, 0, len(soup.Positions)*2)
	for i := 0; i < soup.VertexCount(); i++ {
		data = append(data, soup.Positions[i*3:i*3+3]...)
		data = append(data, soup.Normals[i*3:i*3+3]...)
	}
	b := upload(data)
	r.meshes[m] = b
	r.log.Debug("mesh uploaded", zap.Int("triangles", soup.TriangleCount()))
	return b
}

func (r *Renderer) linesBuffer(helpers []scene.Lines, gen uint64) *gpuBuffer {
	if r.lines != nil && r.linesGen == gen {
		return r.lines
	}
	if r.lines != nil {
		r.lines.delete()
	}
	var data []float32
	for _, l := range helpers {
		for i := 0; i < len(l.Vertices)/3; i++ {
			c := l.ColorAt(i)
			data = append(data, l.Vertices[i*3:i*3+3]...)
			data = append(data, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255)
		}
	}
	r.lines = upload(data)
	r.linesGen = gen
	return r.lines
}

// Draw renders s as seen by cam.
func (r *Renderer) Draw(s *scene.Scene, cam *camera.OrbitCamera) {
	bg := rgb(s.Background)
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view := cam.ViewMatrix()
	viewProj := cam.ProjectionMatrix(r.Aspect()).Mul(view)

	if helpers := s.Helpers(); len(helpers) > 0 {
		r.linesProgram.Use()
		r.linesProgram.SetMat4("uViewProjection", viewProj)
		b := r.linesBuffer(helpers, s.Generation())
		gl.BindVertexArray(b.vao)
		gl.DrawArrays(gl.LINES, 0, b.count)
	}

	p := r.meshProgram
	p.Use()
	p.SetMat4("uViewProjection", viewProj)
	p.SetVec3("uEye", cam.Eye)
	p.SetVec3("uSunDir", s.Sun.Position.Normalize())
	p.SetVec3("uSunColor", rgbVec(s.Sun.Color))
	p.SetFloat("uSunIntensity", s.Sun.Intensity)
	p.SetVec3("uSky", rgbVec(s.Ambient.Sky))
	p.SetVec3("uGround", rgbVec(s.Ambient.Ground))
	p.SetFloat("uHemiIntensity", s.Ambient.Intensity)

	// Opaque first, then transparent back to front with depth writes off.
	objects := s.Objects()
	var transparent []scene.Object
	for _, o := range objects {
		if o.Material != nil && o.Material.Transparent {
			transparent = append(transparent, o)
			continue
		}
		r.drawObject(o)
	}
	if len(transparent) > 0 {
		// View space looks down -Z, so the farthest object has the lowest Z.
		sort.SliceStable(transparent, func(i, j int) bool {
			zi := view.TransformVec3(transparent[i].Geometry.Bounds().Center()).Z
			zj := view.TransformVec3(transparent[j].Geometry.Bounds().Center()).Z
			return zi < zj
		})
		gl.Enable(gl.BLEND)
		gl.DepthMask(false)
		for _, o := range transparent {
			r.drawObject(o)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}
	gl.BindVertexArray(0)

	if len(r.meshes) > len(objects) {
		r.prune(objects)
	}
}

// prune releases buffers of meshes no longer in the scene.
func (r *Renderer) prune(objects []scene.Object) {
	live := make(map[*mesh.TriangleMesh]bool, len(objects))
	for _, o := range objects {
		live[o.Geometry] = true
	}
	for m, b := range r.meshes {
		if !live[m] {
			b.delete()
			delete(r.meshes, m)
		}
	}
}

func (r *Renderer) drawObject(o scene.Object) {
	m := o.Material
	if m == nil {
		m = material.MustNew(material.DefaultSettings())
	}
	p := r.meshProgram
	p.SetVec4("uColor", m.RGBA())
	p.SetInt("uMode", shadingMode(m.Kind))
	p.SetBool("uFlat", m.FlatShading)
	p.SetFloat("uShininess", shininess(m))

	if m.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	b := r.meshBuffer(o.Geometry)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, b.count)
}

// ReadPixels returns the current framebuffer as RGBA rows, bottom row first.
func (r *Renderer) ReadPixels() []byte {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Size returns the viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

func rgb(c color.RGBA) [3]float32 {
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

func rgbVec(c color.RGBA) math.Vec3 {
	v := rgb(c)
	return math.V3(v[0], v[1], v[2])
}
