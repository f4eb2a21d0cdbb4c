package diff

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// Category names one of the four diff outputs.
type Category int

// Diff categories, in display order.
const (
	CategoryAdded Category = iota
	CategoryRemoved
	CategoryIntersection
	CategorySum
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAdded, CategoryRemoved, CategoryIntersection, CategorySum}

func (c Category) String() string {
	switch c {
	case CategoryAdded:
		return "added"
	case CategoryRemoved:
		return "removed"
	case CategoryIntersection:
		return "intersection"
	case CategorySum:
		return "sum"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Result holds one future per category. A nil future stands for a category
// that does not apply to the inputs.
type Result struct {
	Added        *worker.Future
	Removed      *worker.Future
	Intersection *worker.Future
	Sum          *worker.Future
}

// Future returns the future of c.
func (r *Result) Future(c Category) *worker.Future {
	switch c {
	case CategoryAdded:
		return r.Added
	case CategoryRemoved:
		return r.Removed
	case CategoryIntersection:
		return r.Intersection
	case CategorySum:
		return r.Sum
	}
	return nil
}

// Wait awaits all four futures. Failed categories are reported in
// Resolved.Errors and leave their brush nil; the others are unaffected. The
// returned error is non-nil only when ctx ends first.
func (r *Result) Wait(ctx context.Context) (*Resolved, error) {
	res := &Resolved{Errors: map[Category]error{}}
	for _, c := range Categories {
		b, err := r.Future(c).Await(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.Errors[c] = err
			continue
		}
		res.set(c, b)
	}
	return res, nil
}

// Resolved is a settled Result.
type Resolved struct {
	Added        *mesh.Brush
	Removed      *mesh.Brush
	Intersection *mesh.Brush
	Sum          *mesh.Brush

	Errors map[Category]error
}

func (r *Resolved) set(c Category, b *mesh.Brush) {
	switch c {
	case CategoryAdded:
		r.Added = b
	case CategoryRemoved:
		r.Removed = b
	case CategoryIntersection:
		r.Intersection = b
	case CategorySum:
		r.Sum = b
	}
}

// Brush returns the brush of c, or nil.
func (r *Resolved) Brush(c Category) *mesh.Brush {
	switch c {
	case CategoryAdded:
		return r.Added
	case CategoryRemoved:
		return r.Removed
	case CategoryIntersection:
		return r.Intersection
	case CategorySum:
		return r.Sum
	}
	return nil
}

// Err joins the per-category errors, or returns nil.
func (r *Resolved) Err() error {
	var errs []error
	for _, c := range Categories {
		if err, ok := r.Errors[c]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}
