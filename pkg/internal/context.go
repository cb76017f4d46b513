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

// Package internal is the standard-library builtin registry (§4.6): it
// mirrors the teacher's pkg/internal CallCtxt/Builtin/Package shape,
// rebuilt on adt.CallContext/adt.Value instead of cue.Value — there is
// no unification lattice left to walk here, only a Value to force and
// type-assert, but the "decode arguments through a CallCtxt, bail out
// via c.Err" calling convention is kept identical.
package internal

import (
	"github.com/cockroachdb/apd/v2"

	"github.com/jsonnet-go/jsonnet/cue/token"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

// CallCtxt is passed to a Builtin's Func. It is an internal type, as
// in the teacher; std's own package wraps each Builtin before handing
// it to the evaluator as an adt.Builtin.
type CallCtxt struct {
	ctx  adt.CallContext
	args []*adt.Thunk
	name string

	Err interface{}
	Ret adt.Value
}

func newCallCtxt(ctx adt.CallContext, name string, args []*adt.Thunk) *CallCtxt {
	return &CallCtxt{ctx: ctx, args: args, name: name}
}

func (c *CallCtxt) Pos() token.Pos { return c.ctx.Pos() }
func (c *CallCtxt) Name() string   { return c.name }

// Do reports whether the call should proceed. It is false once an
// earlier argument decode already failed, so a Func can decode several
// arguments back to back and check Do() once before using them,
// exactly like the teacher's CallCtxt.Do.
func (c *CallCtxt) Do() bool { return c.Err == nil }

func (c *CallCtxt) errf(format string, args ...interface{}) {
	c.Err = c.ctx.Errf(adt.BadParam, format, args...)
}

// Errf builds a *adt.Bottom positioned at the current call site,
// without assigning it to c.Err, so callers can return it directly.
func (c *CallCtxt) Errf(format string, args ...interface{}) *adt.Bottom {
	return c.ctx.Errf(adt.StdError, format, args...)
}

func (c *CallCtxt) force(i int) adt.Value {
	v, err := c.ctx.Force(c.args[i])
	if err != nil {
		c.Err = err
		return nil
	}
	return v
}

// Force forces an arbitrary thunk (typically one returned by Thunk or
// Arr), for builtins that need to inspect an element's value directly
// rather than through an argument-index accessor.
func (c *CallCtxt) Force(t *adt.Thunk) (adt.Value, *adt.Bottom) {
	return c.ctx.Force(t)
}

// Equal reports deep structural equality between two thunks, via the
// same rule the evaluator's == operator uses.
func (c *CallCtxt) Equal(a, b *adt.Thunk) (bool, *adt.Bottom) {
	return c.ctx.Equal(a, b)
}

// Thunk returns the i'th argument unforced, for builtins (map, filter,
// foldl, ...) that must pass it on to a callback rather than consume
// it directly.
func (c *CallCtxt) Thunk(i int) *adt.Thunk { return c.args[i] }

// NumArgs reports how many arguments were actually supplied.
func (c *CallCtxt) NumArgs() int { return len(c.args) }

func (c *CallCtxt) Num(i int) *apd.Decimal {
	v := c.force(i)
	if v == nil {
		return nil
	}
	n, ok := v.(adt.VNum)
	if !ok {
		c.errf("argument %d to %s must be a number, got %s", i, c.name, v.Kind())
		return nil
	}
	return &n.X
}

func (c *CallCtxt) Int(i int) int {
	n := c.Num(i)
	if n == nil {
		return 0
	}
	iv, err := n.Int64()
	if err != nil {
		c.errf("argument %d to %s is not an integer", i, c.name)
		return 0
	}
	return int(iv)
}

func (c *CallCtxt) Float64(i int) float64 {
	n := c.Num(i)
	if n == nil {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		c.errf("argument %d to %s is out of float64 range", i, c.name)
		return 0
	}
	return f
}

func (c *CallCtxt) String(i int) string {
	v := c.force(i)
	if v == nil {
		return ""
	}
	s, ok := v.(adt.VStr)
	if !ok {
		c.errf("argument %d to %s must be a string, got %s", i, c.name, v.Kind())
		return ""
	}
	return s.S
}

func (c *CallCtxt) Bool(i int) bool {
	v := c.force(i)
	if v == nil {
		return false
	}
	b, ok := v.(adt.VBool)
	if !ok {
		c.errf("argument %d to %s must be a boolean, got %s", i, c.name, v.Kind())
		return false
	}
	return b.B
}

// Arr returns the i'th argument's elements, unforced: a builtin that
// only reshuffles or iterates (map, reverse, length) has no business
// forcing elements the caller never asked for.
func (c *CallCtxt) Arr(i int) []*adt.Thunk {
	v := c.force(i)
	if v == nil {
		return nil
	}
	a, ok := v.(adt.VArr)
	if !ok {
		c.errf("argument %d to %s must be an array, got %s", i, c.name, v.Kind())
		return nil
	}
	return a.Elems
}

func (c *CallCtxt) Obj(i int) *adt.VObj {
	v := c.force(i)
	if v == nil {
		return nil
	}
	o, ok := v.(*adt.VObj)
	if !ok {
		c.errf("argument %d to %s must be an object, got %s", i, c.name, v.Kind())
		return nil
	}
	return o
}

// Func returns the i'th argument as a callable value (closure or
// builtin), for std.map/filter/foldl's own higher-order arguments.
func (c *CallCtxt) Func(i int) adt.Value {
	v := c.force(i)
	if v == nil {
		return nil
	}
	if v.Kind() != adt.FuncKind {
		c.errf("argument %d to %s must be a function, got %s", i, c.name, v.Kind())
		return nil
	}
	return v
}

// Call invokes fn (as returned by Func) with args bound positionally.
func (c *CallCtxt) Call(fn adt.Value, args ...*adt.Thunk) adt.Value {
	v, err := c.ctx.Apply(fn, args)
	if err != nil {
		c.Err = err
		return nil
	}
	return v
}
