package diff

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/csg"
)

// Mode selects where evaluations run.
type Mode int

// Execution modes.
const (
	// ModeInProcess evaluates synchronously inside ComputeDiff.
	ModeInProcess Mode = iota
	// ModeIsolated dispatches every evaluation to its own worker unit.
	ModeIsolated
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeInProcess:
		return "in-process"
	case ModeIsolated:
		return "isolated"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a config mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in-process", "inprocess", "sync":
		return ModeInProcess, nil
	case "isolated", "worker":
		return ModeIsolated, nil
	}
	return ModeInProcess, fmt.Errorf("unknown diff mode %q", s)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode sets the execution mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithEvaluator replaces the evaluator constructor. In-process mode builds
// one evaluator per engine; isolated goroutine units each build their own,
// unless WithUnitFactory is also given.
func WithEvaluator(newEvaluator func() csg.Evaluator) Option {
	return func(e *Engine) { e.newEvaluator = newEvaluator }
}

// WithUnitFactory sets the unit factory used in isolated mode.
func WithUnitFactory(f worker.UnitFactory) Option {
	return func(e *Engine) { e.factory = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}
