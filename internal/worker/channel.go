package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/codec"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/pkg/csg"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// State is the lifecycle state of a Channel.
type State int

// Channel states. Completed and Failed are terminal.
const (
	Idle State = iota
	Dispatched
	Completed
	Failed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Dispatched:
		return "Dispatched"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Channel errors.
var (
	ErrEvaluation        = errors.New("evaluation failed")
	ErrAlreadyDispatched = errors.New("channel already dispatched")
)

// EvaluationError describes a failed request. It wraps ErrEvaluation.
type EvaluationError struct {
	Operation string
	Message   string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrEvaluation, e.Operation, e.Message)
}

// Unwrap returns ErrEvaluation.
func (e *EvaluationError) Unwrap() error {
	return ErrEvaluation
}

// Channel carries exactly one request to a fresh unit and delivers the
// outcome through a Future.
type Channel struct {
	factory     UnitFactory
	log         *zap.Logger
	stateHook   func(State)
	disposeHook func()

	mu    sync.Mutex
	state State
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(State)) ChannelOption {
	return func(c *Channel) { c.stateHook = fn }
}

// WithDisposeHook registers fn to run after the unit is disposed.
func WithDisposeHook(fn func()) ChannelOption {
	return func(c *Channel) { c.disposeHook = fn }
}

// WithChannelLogger sets the logger.
func WithChannelLogger(l *zap.Logger) ChannelOption {
	return func(c *Channel) { c.log = l }
}

// NewChannel returns an Idle channel whose unit will come from factory.
func NewChannel(factory UnitFactory, opts ...ChannelOption) *Channel {
	c := &Channel{factory: factory, log: logger.Named("worker")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.stateHook != nil {
		c.stateHook(s)
	}
}

// Dispatch serializes both operands, hands them to a new unit and returns
// a Future for the result. Operands may be changed by the caller as soon as
// Dispatch returns. ctx is passed to the unit for its values only: a running
// evaluation is never cancelled.
func (c *Channel) Dispatch(ctx context.Context, a, b *mesh.Brush, op csg.Operation) *Future {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return Resolved(nil, ErrAlreadyDispatched)
	}
	c.state = Dispatched
	c.mu.Unlock()
	if c.stateHook != nil {
		c.stateHook(Dispatched)
	}

	f := newFuture()
	fail := func(msg string) *Future {
		c.setState(Failed)
		c.log.Warn("evaluation failed", zap.Stringer("operation", op), zap.String("error", msg))
		f.resolve(nil, &EvaluationError{Operation: op.String(), Message: msg})
		return f
	}

	req := &Request{Operation: op.String()}
	form, err := codec.SerializeBrush(a)
	if err != nil {
		return fail(fmt.Sprintf("brush1: %v", err))
	}
	req.Brush1 = *form
	if form, err = codec.SerializeBrush(b); err != nil {
		return fail(fmt.Sprintf("brush2: %v", err))
	}
	req.Brush2 = *form

	unit, err := c.factory()
	if err != nil {
		return fail(fmt.Sprintf("starting unit: %v", err))
	}

	go c.run(context.WithoutCancel(ctx), unit, req, op, f)
	return f
}

func (c *Channel) run(ctx context.Context, unit Unit, req *Request, op csg.Operation, f *Future) {
	start := time.Now()
	brush, msg := c.exchange(ctx, unit, req)

	if msg == "" {
		c.setState(Completed)
	} else {
		c.setState(Failed)
	}
	unit.Dispose()
	if c.disposeHook != nil {
		c.disposeHook()
	}

	if msg != "" {
		c.log.Warn("evaluation failed", zap.Stringer("operation", op), zap.String("error", msg),
			zap.Duration("elapsed", time.Since(start)))
		f.resolve(nil, &EvaluationError{Operation: op.String(), Message: msg})
		return
	}
	c.log.Debug("evaluation completed", zap.Stringer("operation", op),
		zap.Int("triangles", brush.Geometry.TriangleCount()), zap.Duration("elapsed", time.Since(start)))
	f.resolve(brush, nil)
}

// exchange returns the decoded result, or a non-empty failure message.
func (c *Channel) exchange(ctx context.Context, unit Unit, req *Request) (*mesh.Brush, string) {
	resp, err := unit.Run(ctx, req)
	switch {
	case err != nil:
		return nil, err.Error()
	case resp == nil:
		return nil, "unit returned no response"
	case !resp.Success:
		if resp.Error == "" {
			return nil, "unit reported failure without a message"
		}
		return nil, resp.Error
	case resp.Result == nil:
		return nil, "unit reported success without a result"
	}
	brush, err := codec.DeserializeBrush(resp.Result)
	if err != nil {
		return nil, fmt.Sprintf("result: %v", err)
	}
	return brush, ""
}

// Future is the eventual outcome of an evaluation.
type Future struct {
	done  chan struct{}
	brush *mesh.Brush
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns an already settled future.
func Resolved(brush *mesh.Brush, err error) *Future {
	f := newFuture()
	f.resolve(brush, err)
	return f
}

func (f *Future) resolve(brush *mesh.Brush, err error) {
	f.brush, f.err = brush, err
	close(f.done)
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Map returns a future that settles with fn applied to a successful result.
// Errors pass through unchanged.
func (f *Future) Map(fn func(*mesh.Brush) *mesh.Brush) *Future {
	out := newFuture()
	go func() {
		<-f.done
		if f.err != nil || f.brush == nil {
			out.resolve(f.brush, f.err)
			return
		}
		out.resolve(fn(f.brush), nil)
	}()
	return out
}

// Await blocks until the future settles or ctx ends. A nil future settles
// immediately with no result.
func (f *Future) Await(ctx context.Context) (*mesh.Brush, error) {
	if f == nil {
		return nil, nil
	}
	select {
	case <-f.done:
		return f.brush, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
