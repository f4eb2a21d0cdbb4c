// Package diff compares two versions of a mesh with boolean operations.
//
// Given a previous mesh A and a current mesh B, the engine produces:
//
//	added         B minus A, green
//	removed       A minus B, red
//	intersection  A and B, blue
//	sum           A or B, in the caller's material
//
// When only one mesh is present the categories degrade to plain copies.
package diff

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/codec"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/csg"
	"github.com/Faultbox/meshdiff/pkg/material"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// ErrInvalidInput is returned by New when neither mesh is given.
var ErrInvalidInput = errors.New("no meshes provided for diff")

// Opacity of the colored categories when both meshes are present.
const overlayOpacity = 0.5

// Engine computes diffs between two meshes. It never modifies its inputs.
type Engine struct {
	a, b *mesh.Brush

	sum          *material.Material
	added        *material.Material
	removed      *material.Material
	intersection *material.Material

	mode         Mode
	newEvaluator func() csg.Evaluator
	evaluator    csg.Evaluator
	factory      worker.UnitFactory
	log          *zap.Logger
}

// New prepares a diff between meshA (previous) and meshB (current). Either
// may be nil, not both. Materials are resolved here so invalid settings
// surface before any evaluation starts.
func New(meshA, meshB *mesh.TriangleMesh, settings material.Settings, opts ...Option) (*Engine, error) {
	if meshA == nil && meshB == nil {
		return nil, ErrInvalidInput
	}

	e := &Engine{
		mode:         ModeInProcess,
		newEvaluator: newBSPEvaluator,
		log:          logger.Named("diff"),
	}
	for _, opt := range opts {
		opt(e)
	}
	switch {
	case e.mode == ModeInProcess:
		e.evaluator = e.newEvaluator()
	case e.factory == nil:
		e.factory = worker.GoroutineFactory(e.newEvaluator)
	}

	if meshA != nil {
		e.a = mesh.NewBrush(normalizeUV(meshA), nil)
	}
	if meshB != nil {
		e.b = mesh.NewBrush(normalizeUV(meshB), nil)
	}

	opacity := float32(1)
	if e.a != nil && e.b != nil {
		opacity = overlayOpacity
	}

	var err error
	if e.sum, err = material.New(settings); err != nil {
		return nil, fmt.Errorf("sum material: %w", err)
	}
	if e.added, err = material.New(settings.WithOverrides(material.ColorAdded, opacity)); err != nil {
		return nil, fmt.Errorf("added material: %w", err)
	}
	if e.removed, err = material.New(settings.WithOverrides(material.ColorRemoved, opacity)); err != nil {
		return nil, fmt.Errorf("removed material: %w", err)
	}
	if e.intersection, err = material.New(settings.WithOverrides(material.ColorIntersection, opacity)); err != nil {
		return nil, fmt.Errorf("intersection material: %w", err)
	}
	return e, nil
}

func newBSPEvaluator() csg.Evaluator {
	return csg.NewEvaluator()
}

// normalizeUV returns a copy of m with an empty single-component UV
// channel, so that both operands carry the same attribute set.
func normalizeUV(m *mesh.TriangleMesh) *mesh.TriangleMesh {
	c := m.Clone()
	c.UV = &mesh.Attribute{Values: []float32{}, ItemSize: 1}
	return c
}

// Mode reports how evaluations run.
func (e *Engine) Mode() Mode {
	return e.mode
}

// ComputeDiff starts every applicable evaluation and returns their futures.
// In ModeInProcess all futures are settled on return.
func (e *Engine) ComputeDiff(ctx context.Context) *Result {
	a, b := e.a, e.b
	r := &Result{}

	switch {
	case a != nil && b != nil:
		r.Added = e.evaluate(ctx, CategoryAdded, b, a, csg.Subtract, e.added)
		r.Removed = e.evaluate(ctx, CategoryRemoved, a, b, csg.Subtract, e.removed)
		r.Intersection = e.evaluate(ctx, CategoryIntersection, a, b, csg.Intersect, e.intersection)
		r.Sum = e.evaluate(ctx, CategorySum, a, b, csg.Union, e.sum)
	case a != nil:
		r.Removed = worker.Resolved(a.WithMaterial(e.removed), nil)
		r.Sum = worker.Resolved(a.WithMaterial(e.sum), nil)
	default:
		r.Added = worker.Resolved(b.WithMaterial(e.added), nil)
		r.Sum = worker.Resolved(b.WithMaterial(e.sum), nil)
	}
	return r
}

func (e *Engine) evaluate(ctx context.Context, cat Category, x, y *mesh.Brush, op csg.Operation, mat *material.Material) *worker.Future {
	e.log.Debug("dispatching evaluation",
		zap.Stringer("category", cat), zap.Stringer("operation", op), zap.Stringer("mode", e.mode))

	attach := func(out *mesh.Brush) *mesh.Brush {
		return &mesh.Brush{Geometry: out.Geometry, Material: mat}
	}

	if e.mode == ModeIsolated {
		ch := worker.NewChannel(e.factory, worker.WithChannelLogger(e.log.With(zap.Stringer("category", cat))))
		return ch.Dispatch(ctx, x, y, op).Map(attach)
	}

	out, err := evaluateInProcess(e.evaluator, x, y, op)
	if err != nil {
		e.log.Warn("evaluation failed", zap.Stringer("category", cat), zap.Error(err))
		return worker.Resolved(nil, err)
	}
	return worker.Resolved(attach(out), nil)
}

// evaluateInProcess reports evaluator errors and panics the same way an
// isolated unit would. Operands an isolated unit could not receive are
// rejected here too.
func evaluateInProcess(ev csg.Evaluator, x, y *mesh.Brush, op csg.Operation) (out *mesh.Brush, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &worker.EvaluationError{Operation: op.String(), Message: fmt.Sprintf("evaluator panic: %v", r)}
		}
	}()
	for i, b := range []*mesh.Brush{x, y} {
		if b == nil {
			continue
		}
		if cerr := codec.CheckFinite(b.Geometry); cerr != nil {
			return nil, &worker.EvaluationError{Operation: op.String(), Message: fmt.Sprintf("brush%d: %v", i+1, cerr)}
		}
	}
	out, err = ev.Evaluate(x, y, op)
	if err != nil {
		return nil, &worker.EvaluationError{Operation: op.String(), Message: err.Error()}
	}
	if out == nil || out.Geometry == nil {
		return nil, &worker.EvaluationError{Operation: op.String(), Message: "evaluator returned no result"}
	}
	return out, nil
}
