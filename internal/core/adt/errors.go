// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adt

import (
	"fmt"

	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/cue/token"
)

// ErrorCode is the evaluation-error taxonomy of §7. A CheckError from
// the static checker (§4.3) uses the same concrete type with its own
// three codes so that every stage reports through one shape.
type ErrorCode int

const (
	TypeMismatch ErrorCode = iota
	InvalidKey
	InvalidIndex
	NoSuchKey
	IndexOutOfBounds
	DivByZero
	VarNotFound
	AssertionFailed
	StdError
	RuntimeError
	ParamNotBound
	BadParam
	ManifestError
	TooManyArgs

	// Static-checker codes (§4.3).
	DuplicateParam
	DuplicateBinding
	PosAfterNamedParam
)

func (c ErrorCode) String() string {
	switch c {
	case TypeMismatch:
		return "type mismatch"
	case InvalidKey:
		return "invalid key"
	case InvalidIndex:
		return "invalid index"
	case NoSuchKey:
		return "no such key"
	case IndexOutOfBounds:
		return "index out of bounds"
	case DivByZero:
		return "division by zero"
	case VarNotFound:
		return "variable not found"
	case AssertionFailed:
		return "assertion failed"
	case StdError:
		return "standard library error"
	case RuntimeError:
		return "runtime error"
	case ParamNotBound:
		return "parameter not bound"
	case BadParam:
		return "bad parameter"
	case ManifestError:
		return "manifest error"
	case TooManyArgs:
		return "too many arguments"
	case DuplicateParam:
		return "duplicate parameter"
	case DuplicateBinding:
		return "duplicate local var"
	case PosAfterNamedParam:
		return "positional after named argument"
	}
	return "unknown error"
}

// StackFrame is one entry of a Backtrace (§3.7): a function call, and
// the span at which it was entered.
type StackFrame struct {
	Name string // function/field name, or "top-level"
	Span token.Span
}

// Backtrace is the call stack attached to every Bottom. It is built by
// the evaluator pushing a StackFrame when it applies a closure and
// popping it on return — never by unwinding a host call stack. Forcing
// a field and calling a std builtin push no frame.
type Backtrace []StackFrame

// Bottom is a raised error, represented as a Value so it can flow
// through the same channels as any other result and be cached in a
// Thunk (§3.8.2: "subsequent forces return the cached result,
// including the cached error").
type Bottom struct {
	Code ErrorCode
	Msg  string
	Args []interface{}
	Pos  token.Pos
	BT   Backtrace
}

func (b *Bottom) Kind() Kind { return BottomKind }

func (b *Bottom) Error() string {
	return fmt.Sprintf(b.Msg, b.Args...)
}

// Errf builds a Bottom positioned at pos with the given code.
func Errf(pos token.Pos, code ErrorCode, format string, args ...interface{}) *Bottom {
	return &Bottom{Code: code, Msg: format, Args: args, Pos: pos}
}

// WithFrame returns a copy of b with frame prepended to its backtrace.
// The evaluator does not call it: Engine.Errf copies the live
// backtrace at the point the error is raised.
func (b *Bottom) WithFrame(frame StackFrame) *Bottom {
	nb := *b
	nb.BT = append(Backtrace{frame}, b.BT...)
	return &nb
}

// ToError wraps b as a cue/errors.Error. Its Error text is b's
// formatted message alone: no "Runtime error:" banner and no rendered
// backtrace are added, here or by internal/core/runtime, which returns
// this error unchanged. The backtrace's frame positions are available
// through InputPositions.
func (b *Bottom) ToError() errors.Error {
	return &bottomError{b: b}
}

type bottomError struct{ b *Bottom }

func (e *bottomError) Error() string { return e.b.Error() }
func (e *bottomError) Position() token.Pos { return e.b.Pos }
func (e *bottomError) InputPositions() []token.Pos {
	a := make([]token.Pos, len(e.b.BT))
	for i, f := range e.b.BT {
		a[i] = f.Span.Start
	}
	return a
}

// CheckError is the static checker's (§4.3) error shape: at most one
// per program, reported pre-order.
type CheckError struct {
	Code ErrorCode
	Name string // the offending identifier, when applicable
	Span token.Span
}

func (e *CheckError) Error() string {
	switch e.Code {
	case DuplicateParam:
		return fmt.Sprintf("duplicate parameter %q", e.Name)
	case DuplicateBinding:
		return fmt.Sprintf("duplicate local var %q", e.Name)
	case PosAfterNamedParam:
		return "positional after named argument"
	}
	return e.Code.String()
}

func (e *CheckError) Position() token.Pos        { return e.Span.Start }
func (e *CheckError) InputPositions() []token.Pos { return []token.Pos{e.Span.Start} }

var _ errors.Error = (*CheckError)(nil)
var _ errors.Error = (*bottomError)(nil)
