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

// Package errors defines the positioned, list-aware error type used
// across the pipeline. A plain Go error loses the source span by the
// time it reaches the user; errors.Error never does.
package errors

import (
	"bytes"
	"fmt"

	"github.com/jsonnet-go/jsonnet/cue/token"
	"golang.org/x/xerrors"
)

// Error is the interface implemented by every error this module
// produces. It is deliberately small: a position, optionally more
// positions for a backtrace, and a message.
type Error interface {
	error
	Position() token.Pos
	InputPositions() []token.Pos
}

// Message holds a printf-style message, kept unformatted so that
// rendering can be deferred until Error is called.
type Message struct {
	format string
	args   []interface{}
}

func NewMessage(format string, args []interface{}) Message {
	return Message{format: format, args: args}
}

func (m Message) Msg() (string, []interface{}) { return m.format, m.args }

func (m Message) Error() string { return fmt.Sprintf(m.format, m.args...) }

// posError is the concrete Error used by Newf and Wrapf.
type posError struct {
	Message
	pos   token.Pos
	chain []token.Pos
	wrap  error
}

func (e *posError) Position() token.Pos        { return e.pos }
func (e *posError) InputPositions() []token.Pos { return e.chain }

func (e *posError) Error() string {
	if e.wrap != nil {
		return e.Message.Error() + ": " + e.wrap.Error()
	}
	return e.Message.Error()
}

func (e *posError) Unwrap() error { return e.wrap }

// Newf creates an Error positioned at p.
func Newf(p token.Pos, format string, args ...interface{}) Error {
	return &posError{Message: NewMessage(format, args), pos: p}
}

// Wrapf creates an Error positioned at p that wraps err, so that
// xerrors.Is(result, err) holds.
func Wrapf(err error, p token.Pos, format string, args ...interface{}) Error {
	return &posError{Message: NewMessage(format, args), pos: p, wrap: err}
}

// New is a plain, unpositioned sentinel error, for use with
// xerrors.Is/As comparisons (mirrors the stdlib's errors.New).
func New(text string) error { return xerrors.New(text) }

// list is an ordered collection of errors, implementing Error itself
// so that "one bottom carries many sub-errors" composes without a
// separate wrapper type at call sites.
type list struct {
	errs []Error
}

func (l *list) Error() string {
	var buf bytes.Buffer
	for i, e := range l.errs {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(e.Error())
	}
	return buf.String()
}

func (l *list) Position() token.Pos {
	if len(l.errs) == 0 {
		return token.NoPos
	}
	return l.errs[0].Position()
}

func (l *list) InputPositions() []token.Pos {
	var a []token.Pos
	for _, e := range l.errs {
		a = append(a, e.InputPositions()...)
	}
	return a
}

// Errors flattens err into its constituent Error values, in report
// order. A nil err yields nil.
func Errors(err Error) []Error {
	if err == nil {
		return nil
	}
	if l, ok := err.(*list); ok {
		return l.errs
	}
	return []Error{err}
}

// Append combines a and b into a single Error preserving report order;
// either may be nil.
func Append(a, b Error) Error {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	l := &list{}
	l.errs = append(l.errs, Errors(a)...)
	l.errs = append(l.errs, Errors(b)...)
	return l
}

// String renders e the way fmt.Stringer would, without requiring a
// caller to type-assert to error first; used by wrapper types whose
// Error() method just calls errors.String(e).
func String(e Error) string {
	return e.Error()
}

// Is reports whether any error in err's chain matches target, following
// the stdlib convention via golang.org/x/xerrors.
func Is(err, target error) bool { return xerrors.Is(err, target) }
