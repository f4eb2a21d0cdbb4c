package material

import "fmt"

type factory func(p Params) (*Material, error)

// factories resolves a kind to its constructor.
var factories = map[Kind]factory{
	KindBasic:    newBasic,
	KindStandard: newStandard,
	KindNormal:   newNormal,
	KindPhong:    newPhong,
	KindLambert:  newLambert,
}

// New builds a material from settings. Unknown kinds fall back to lambert.
func New(s Settings) (*Material, error) {
	f, ok := factories[s.Kind]
	if !ok {
		f = newLambert
	}
	m, err := f(s.Config.Clone())
	if err != nil {
		return nil, fmt.Errorf("building %s material: %w", s.Kind, err)
	}
	return m, nil
}

// MustNew is New for settings known to be valid. It panics on error.
func MustNew(s Settings) *Material {
	m, err := New(s)
	if err != nil {
		panic(err)
	}
	return m
}

// base reads the parameters shared by every kind.
func base(kind Kind, p Params) (*Material, error) {
	m := &Material{
		Kind:    kind,
		Color:   White,
		Opacity: 1,
		Params:  p,
	}

	if v, ok := p[ParamColor]; ok {
		c, err := ParseColorValue(v)
		if err != nil {
			return nil, err
		}
		m.Color = c
	}

	var err error
	if m.Opacity, err = floatParam(p, ParamOpacity, 1); err != nil {
		return nil, err
	}
	if m.Opacity < 0 || m.Opacity > 1 {
		return nil, fmt.Errorf("%w: opacity %v out of range [0, 1]", ErrInvalidParam, m.Opacity)
	}
	if m.Transparent, err = boolParam(p, ParamTransparent, false); err != nil {
		return nil, err
	}
	if m.Wireframe, err = boolParam(p, ParamWireframe, false); err != nil {
		return nil, err
	}
	return m, nil
}

func newBasic(p Params) (*Material, error) {
	return base(KindBasic, p)
}

func newLambert(p Params) (*Material, error) {
	m, err := base(KindLambert, p)
	if err != nil {
		return nil, err
	}
	m.FlatShading, err = boolParam(p, ParamFlatShading, false)
	return m, err
}

func newPhong(p Params) (*Material, error) {
	m, err := base(KindPhong, p)
	if err != nil {
		return nil, err
	}
	if m.FlatShading, err = boolParam(p, ParamFlatShading, false); err != nil {
		return nil, err
	}
	m.Shininess, err = floatParam(p, ParamShininess, 30)
	return m, err
}

func newStandard(p Params) (*Material, error) {
	m, err := base(KindStandard, p)
	if err != nil {
		return nil, err
	}
	if m.FlatShading, err = boolParam(p, ParamFlatShading, false); err != nil {
		return nil, err
	}
	if m.Roughness, err = floatParam(p, ParamRoughness, 1); err != nil {
		return nil, err
	}
	m.Metalness, err = floatParam(p, ParamMetalness, 0)
	return m, err
}

func newNormal(p Params) (*Material, error) {
	m, err := base(KindNormal, p)
	if err != nil {
		return nil, err
	}
	m.FlatShading, err = boolParam(p, ParamFlatShading, false)
	return m, err
}

func floatParam(p Params, key string, def float32) (float32, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int:
		return float32(n), nil
	case int64:
		return float32(n), nil
	case uint64:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidParam, key, v)
	}
}

func boolParam(p Params, key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidParam, key, v)
	}
	return b, nil
}
