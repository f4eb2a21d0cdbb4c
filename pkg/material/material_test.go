package material

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesEveryKind(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			m, err := New(Settings{Kind: kind, Config: Params{ParamColor: "#102030"}})
			require.NoError(t, err)
			assert.Equal(t, kind, m.Kind)
			assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, m.Color)
			assert.Equal(t, float32(1), m.Opacity)
			assert.False(t, m.Transparent)
		})
	}
}

func TestNewUnknownKindFallsBackToLambert(t *testing.T) {
	m, err := New(Settings{Kind: "toon"})
	require.NoError(t, err)
	assert.Equal(t, KindLambert, m.Kind)
}

func TestNewKindDefaults(t *testing.T) {
	phong := MustNew(Settings{Kind: KindPhong})
	assert.Equal(t, float32(30), phong.Shininess)

	std := MustNew(Settings{Kind: KindStandard, Config: Params{ParamMetalness: 0.25}})
	assert.Equal(t, float32(1), std.Roughness)
	assert.Equal(t, float32(0.25), std.Metalness)

	assert.True(t, MustNew(Settings{Kind: KindNormal}).UsesNormalColors())
	assert.False(t, MustNew(Settings{Kind: KindBasic}).Lit())
	assert.True(t, MustNew(Settings{Kind: KindLambert}).Lit())
}

func TestNewInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   error
	}{
		{"bad color", Params{ParamColor: "#12"}, ErrInvalidColor},
		{"opacity type", Params{ParamOpacity: "half"}, ErrInvalidParam},
		{"opacity range", Params{ParamOpacity: 1.5}, ErrInvalidParam},
		{"transparent type", Params{ParamTransparent: "yes"}, ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Settings{Kind: KindBasic, Config: tt.params})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWithOverridesKeepsOtherParams(t *testing.T) {
	base := Settings{Kind: KindPhong, Config: Params{
		ParamShininess: 80,
		ParamWireframe: true,
		ParamColor:     "#ffffff",
	}}

	got := base.WithOverrides(ColorAdded, 0.5)

	assert.Equal(t, KindPhong, got.Kind)
	assert.Equal(t, ColorAdded, got.Config[ParamColor])
	assert.Equal(t, float32(0.5), got.Config[ParamOpacity])
	assert.Equal(t, true, got.Config[ParamTransparent])
	assert.Equal(t, 80, got.Config[ParamShininess])
	assert.Equal(t, true, got.Config[ParamWireframe])

	// The source record is untouched
	assert.Equal(t, "#ffffff", base.Config[ParamColor])
	assert.NotContains(t, base.Config, ParamOpacity)

	opaque := base.WithOverrides(ColorRemoved, 1)
	assert.Equal(t, false, opaque.Config[ParamTransparent])

	m := MustNew(got)
	assert.Equal(t, float32(80), m.Shininess)
	assert.True(t, m.Wireframe)
	assert.True(t, m.Transparent)
}

func TestWithOverridesNilConfig(t *testing.T) {
	got := Settings{Kind: KindBasic}.WithOverrides(ColorIntersection, 1)
	m := MustNew(got)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, m.Color)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#00ff00", color.RGBA{G: 255, A: 255}, false},
		{"#F00", color.RGBA{R: 255, A: 255}, false},
		{"0x999999", color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}, false},
		{"yellow", color.RGBA{R: 255, G: 255, A: 255}, false},
		{"#xyzxyz", color.RGBA{}, true},
		{"#12345", color.RGBA{}, true},
		{"not-a-color", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColorValueNumbers(t *testing.T) {
	c, err := ParseColorValue(0x111111)
	require.NoError(t, err)
	assert.Equal(t, "#111111", Hex(c))

	c, err = ParseColorValue(float64(0xa9b5bf))
	require.NoError(t, err)
	assert.Equal(t, ColorBackground, Hex(c))

	_, err = ParseColorValue(-1)
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, err = ParseColorValue(true)
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Phong ")
	require.NoError(t, err)
	assert.Equal(t, KindPhong, k)

	_, err = ParseKind("toon")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDisplaySettings(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := DefaultSettings()

	single := MustNew(DisplaySettings(base, 1, rng))
	assert.Equal(t, ColorDefault, Hex(single.Color))
	assert.Equal(t, float32(1), single.Opacity)
	assert.False(t, single.Transparent)

	multi := MustNew(DisplaySettings(base, 2, rng))
	assert.Equal(t, float32(0.5), multi.Opacity)
	assert.True(t, multi.Transparent)
	assert.Len(t, Hex(multi.Color), 7)
}

func TestRandomColorIsPadded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		c := RandomColor(rng)
		require.Len(t, c, 7)
		_, err := ParseColor(c)
		require.NoError(t, err)
	}
}
