// Package material resolves mesh material settings into render-ready materials.
//
// Settings are a tagged union: a Kind plus a free-form parameter record. The
// record is passed through untouched except for the fields a caller explicitly
// overrides (see Settings.WithOverrides).
package material

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"strings"
)

// Material errors.
var (
	ErrUnknownKind  = errors.New("unknown material kind")
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidParam = errors.New("invalid material parameter")
)

// Kind selects the shading model.
type Kind string

const (
	KindBasic    Kind = "basic"    // Unlit flat color
	KindStandard Kind = "standard" // Physically based (roughness/metalness)
	KindNormal   Kind = "normal"   // Colored by surface normal
	KindPhong    Kind = "phong"    // Lambert + specular highlight
	KindLambert  Kind = "lambert"  // Diffuse only
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindBasic, KindStandard, KindNormal, KindPhong, KindLambert}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	_, ok := factories[k]
	return ok
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Well-known parameter keys.
const (
	ParamColor       = "color"
	ParamOpacity     = "opacity"
	ParamTransparent = "transparent"
	ParamWireframe   = "wireframe"
	ParamFlatShading = "flatShading"
	ParamShininess   = "shininess"
	ParamRoughness   = "roughness"
	ParamMetalness   = "metalness"
)

// Params is the free-form parameter record of a material kind.
type Params map[string]any

// Clone returns a shallow copy of the record.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Settings is the user-facing material configuration.
type Settings struct {
	Kind   Kind   `yaml:"type" json:"type"`
	Config Params `yaml:"config" json:"config"`
}

// DefaultSettings returns lambert with no parameters.
func DefaultSettings() Settings {
	return Settings{Kind: KindLambert, Config: Params{}}
}

// WithOverrides returns a copy of s whose color and opacity are replaced.
// Transparency is enabled exactly when opacity is below 1. All other
// parameters are kept verbatim.
func (s Settings) WithOverrides(colorValue string, opacity float32) Settings {
	cfg := s.Config.Clone()
	cfg[ParamColor] = colorValue
	cfg[ParamOpacity] = opacity
	cfg[ParamTransparent] = opacity < 1
	return Settings{Kind: s.Kind, Config: cfg}
}

// Material is a resolved material handed to the rendering layer.
type Material struct {
	Kind        Kind
	Color       color.RGBA
	Opacity     float32
	Transparent bool
	Wireframe   bool
	FlatShading bool

	// Shading-model specific values; zero when the kind does not use them.
	Shininess float32
	Roughness float32
	Metalness float32

	// Params is the record the material was built from.
	Params Params
}

// UsesNormalColors reports whether the surface color comes from normals instead of Color.
func (m *Material) UsesNormalColors() bool {
	return m.Kind == KindNormal
}

// Lit reports whether the material responds to scene lights.
func (m *Material) Lit() bool {
	return m.Kind != KindBasic && m.Kind != KindNormal
}

// RGBA returns the color as normalized floats with opacity as alpha.
func (m *Material) RGBA() [4]float32 {
	return [4]float32{
		float32(m.Color.R) / 255,
		float32(m.Color.G) / 255,
		float32(m.Color.B) / 255,
		m.Opacity,
	}
}

func (m *Material) String() string {
	return fmt.Sprintf("%s(%s, opacity=%.2f)", m.Kind, Hex(m.Color), m.Opacity)
}
