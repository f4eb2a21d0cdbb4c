// Package worker runs boolean evaluations in isolated units: one unit per
// request, created on dispatch and disposed once the request settles.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Faultbox/meshdiff/internal/codec"
	"github.com/Faultbox/meshdiff/pkg/csg"
)

// Request is the message sent to a unit.
type Request struct {
	Brush1    codec.StructuralForm `json:"brush1Data"`
	Brush2    codec.StructuralForm `json:"brush2Data"`
	Operation string               `json:"operation"`
}

// Response is the single message a unit answers with.
type Response struct {
	Success bool                  `json:"success"`
	Result  *codec.StructuralForm `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func failure(format string, args ...any) *Response {
	return &Response{Error: fmt.Sprintf(format, args...)}
}

// Handle evaluates req with ev. Decoding errors and evaluator panics become
// failure responses.
func Handle(ev csg.Evaluator, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = failure("evaluator panic: %v", r)
		}
	}()

	if req == nil {
		return failure("empty request")
	}
	op, err := csg.ParseOperation(req.Operation)
	if err != nil {
		return failure("%v", err)
	}
	a, err := codec.DeserializeBrush(&req.Brush1)
	if err != nil {
		return failure("brush1: %v", err)
	}
	b, err := codec.DeserializeBrush(&req.Brush2)
	if err != nil {
		return failure("brush2: %v", err)
	}

	out, err := ev.Evaluate(a, b, op)
	if err != nil {
		return failure("%v", err)
	}
	if out == nil {
		return failure("evaluator returned no result")
	}
	form, err := codec.SerializeBrush(out)
	if err != nil {
		return failure("result: %v", err)
	}
	return &Response{Success: true, Result: form}
}

// Serve is the subprocess side of a ProcessUnit. It reads exactly one
// request from r, evaluates it and writes exactly one response to w.
func Serve(ctx context.Context, r io.Reader, w io.Writer, ev csg.Evaluator) error {
	var req Request
	var resp *Response
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		resp = failure("decoding request: %v", err)
	} else if err := ctx.Err(); err != nil {
		resp = failure("%v", err)
	} else {
		resp = Handle(ev, &req)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
