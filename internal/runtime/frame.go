package runtime

import (
	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// Frame is the record of one active call. Result starts as the undefined
// zero value of the return type; Returned is set once a return statement
// stores into it, after which nothing else in the call executes.
type Frame struct {
	Function *ast.Function
	Locals   *Store
	Result   value.Value
	Returned bool
}

// NewFrame creates the frame for a call to fn with the given locals.
func NewFrame(fn *ast.Function, locals *Store) *Frame {
	return &Frame{
		Function: fn,
		Locals:   locals,
		Result:   value.Zero(fn.ReturnType),
	}
}

// Complete stores the call's result.
func (f *Frame) Complete(v value.Value) {
	f.Result = v
	f.Returned = true
}

// CallStack is a LIFO of active frames. Each evaluation owns its own stack.
type CallStack struct {
	frames []*Frame
}

// Push makes f the current frame.
func (cs *CallStack) Push(f *Frame) { cs.frames = append(cs.frames, f) }

// Pop removes and returns the current frame, or nil when empty.
func (cs *CallStack) Pop() *Frame {
	if len(cs.frames) == 0 {
		return nil
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames[len(cs.frames)-1] = nil
	cs.frames = cs.frames[:len(cs.frames)-1]
	return f
}

// Depth returns the number of active frames.
func (cs *CallStack) Depth() int { return len(cs.frames) }

// Trace returns the active function names, innermost first.
func (cs *CallStack) Trace() []string {
	names := make([]string, 0, len(cs.frames))
	for i := len(cs.frames) - 1; i >= 0; i-- {
		names = append(names, cs.frames[i].Function.Name)
	}
	return names
}
