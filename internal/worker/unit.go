package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/pkg/csg"
)

// Unit executes a single request. Units are not reused: the channel creates
// one per request and disposes it afterwards.
type Unit interface {
	Run(ctx context.Context, req *Request) (*Response, error)
	Dispose()
}

// UnitFactory creates a fresh unit.
type UnitFactory func() (Unit, error)

// ErrDisposed is returned by Run on a disposed unit.
var ErrDisposed = errors.New("unit disposed")

// GoroutineUnit evaluates on its own goroutine with its own evaluator.
type GoroutineUnit struct {
	evaluator csg.Evaluator

	mu       sync.Mutex
	disposed bool
}

// NewGoroutineUnit returns a unit backed by ev.
func NewGoroutineUnit(ev csg.Evaluator) *GoroutineUnit {
	return &GoroutineUnit{evaluator: ev}
}

// GoroutineFactory returns a factory that gives every unit a new evaluator.
func GoroutineFactory(newEvaluator func() csg.Evaluator) UnitFactory {
	return func() (Unit, error) {
		return NewGoroutineUnit(newEvaluator()), nil
	}
}

// Run implements Unit. The request is handled through its JSON encoding so
// the unit never shares memory with the caller.
func (u *GoroutineUnit) Run(ctx context.Context, req *Request) (*Response, error) {
	u.mu.Lock()
	disposed := u.disposed
	u.mu.Unlock()
	if disposed {
		return nil, ErrDisposed
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	out := make(chan *Response, 1)
	go func() {
		var own Request
		if err := json.Unmarshal(data, &own); err != nil {
			out <- failure("decoding request: %v", err)
			return
		}
		out <- Handle(u.evaluator, &own)
	}()

	select {
	case resp := <-out:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispose implements Unit.
func (u *GoroutineUnit) Dispose() {
	u.mu.Lock()
	u.disposed = true
	u.mu.Unlock()
}

// ProcessUnit runs each request in a fresh subprocess that speaks the
// Serve protocol on stdin and stdout.
type ProcessUnit struct {
	command []string
	env     []string
	log     *zap.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	exited   bool
	disposed bool
}

// NewProcessUnit returns a unit that runs command. Extra env entries are
// appended to the current environment.
func NewProcessUnit(command []string, env ...string) *ProcessUnit {
	return &ProcessUnit{command: command, env: env, log: logger.Named("worker.process")}
}

// ProcessFactory returns a factory for process units running command. An
// empty command runs the current executable with the "worker" argument.
func ProcessFactory(command []string, env ...string) UnitFactory {
	return func() (Unit, error) {
		if len(command) == 0 {
			exe, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("locating worker executable: %w", err)
			}
			return NewProcessUnit([]string{exe, "worker"}, env...), nil
		}
		return NewProcessUnit(command, env...), nil
	}
}

// Run implements Unit. Cancelling ctx stops the wait; the process itself is
// stopped by Dispose.
func (u *ProcessUnit) Run(ctx context.Context, req *Request) (*Response, error) {
	if len(u.command) == 0 {
		return nil, errors.New("empty worker command")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(u.command[0], u.command[1:]...)
	cmd.Env = append(os.Environ(), u.env...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	u.mu.Lock()
	if u.disposed {
		u.mu.Unlock()
		return nil, ErrDisposed
	}
	if err := cmd.Start(); err != nil {
		u.mu.Unlock()
		return nil, fmt.Errorf("starting worker %s: %w", u.command[0], err)
	}
	u.cmd = cmd
	u.mu.Unlock()
	u.log.Debug("worker started", zap.Int("pid", cmd.Process.Pid), zap.String("operation", req.Operation))

	waited := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		u.mu.Lock()
		u.exited = true
		u.mu.Unlock()
		waited <- err
	}()

	select {
	case err := <-waited:
		var resp Response
		if decErr := json.Unmarshal(stdout.Bytes(), &resp); decErr != nil {
			if err != nil {
				return nil, fmt.Errorf("worker exited: %w%s", err, stderrTail(&stderr))
			}
			return nil, fmt.Errorf("decoding worker response: %w%s", decErr, stderrTail(&stderr))
		}
		return &resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispose implements Unit. A process still running is killed.
func (u *ProcessUnit) Dispose() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.disposed = true
	if u.cmd != nil && !u.exited {
		_ = u.cmd.Process.Kill()
	}
}

func stderrTail(b *bytes.Buffer) string {
	s := strings.TrimSpace(b.String())
	if s == "" {
		return ""
	}
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return ": " + s
}
