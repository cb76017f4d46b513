// Copyright 2021 CUE Authors
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

// Package eval is the tree-walking evaluator (§4.4): it turns a Core
// tree plus an Env into a Value, forcing thunks on demand and caching
// results through adt.Thunk's own state machine. The public surface is
// small — New plus the Engine methods — mirroring the teacher's own
// eval.Engine/Evaluate shape, even though what Engine evaluates (a
// lazy call-by-need calculus, not a unification lattice) is new.
package eval

import (
	"math/big"

	"github.com/cockroachdb/apd/v2"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/cue/token"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

var numCtx = apd.BaseContext.WithPrecision(34)

// Engine is the evaluator. It implements adt.Evaluator so adt.Thunk
// can delegate forcing to it, and adt.CallContext so pkg/std builtins
// can force arguments and build positioned errors — neither adt nor
// pkg/std import this package; internal/core/runtime wires all three
// together (§6).
type Engine struct {
	pos token.Pos
	bt  adt.Backtrace
}

var (
	_ adt.Evaluator   = (*Engine)(nil)
	_ adt.CallContext = (*Engine)(nil)
)

// New creates an evaluator. An Engine is not safe for concurrent use
// (§5: evaluation is single-threaded; the only concurrency in the
// system is at the host boundary, across independent Evaluate calls
// each with their own Engine).
func New() *Engine { return &Engine{} }

func (e *Engine) Pos() token.Pos { return e.pos }

func (e *Engine) Errf(code adt.ErrorCode, format string, args ...interface{}) *adt.Bottom {
	b := adt.Errf(e.pos, code, format, args...)
	b.BT = append(adt.Backtrace{}, e.bt...)
	return b
}

func (e *Engine) errAt(span token.Span, code adt.ErrorCode, format string, args ...interface{}) *adt.Bottom {
	saved := e.pos
	e.pos = span.Start
	b := e.Errf(code, format, args...)
	e.pos = saved
	return b
}

// Force implements adt.CallContext, letting std builtins force an
// argument thunk through this same Engine.
func (e *Engine) Force(t *adt.Thunk) (adt.Value, *adt.Bottom) {
	return t.Force(e)
}

// Eval implements adt.Evaluator: it evaluates c in env, dispatching
// on Core's concrete type (§4.4).
func (e *Engine) Eval(env *adt.Env, c adt.Core) (adt.Value, *adt.Bottom) {
	switch n := c.(type) {
	case *adt.CLoc:
		saved := e.pos
		e.pos = n.Span.Start
		v, err := e.Eval(env, n.X)
		e.pos = saved
		return v, err

	case *adt.CLit:
		return literalValue(n.Value), nil

	case *adt.CVar:
		t, ok := env.Lookup(n.Name)
		if !ok {
			return nil, e.errAt(n.Span, adt.VarNotFound, "variable not found: %s", n.Name)
		}
		return t.Force(e)

	case *adt.CFun:
		return &adt.VClos{Env: env, Params: n.Params, Body: n.Body}, nil

	case *adt.CApp:
		return e.apply(env, n)

	case *adt.CLet:
		return e.evalLet(env, n)

	case *adt.CBinOp:
		return e.binOp(env, n)

	case *adt.CUnyOp:
		return e.unOp(env, n)

	case *adt.CIfElse:
		cond, err := e.evalBool(env, n.Cond)
		if err != nil {
			return nil, err
		}
		if cond {
			return e.Eval(env, n.Then)
		}
		return e.Eval(env, n.Else)

	case *adt.CArr:
		elems := make([]*adt.Thunk, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = adt.NewThunk(env, el)
		}
		return adt.VArr{Elems: elems}, nil

	case *adt.CObj:
		return e.evalObjLit(env, n)

	case *adt.CLookup:
		return e.lookup(env, n)

	case *adt.CErr:
		return nil, e.raise(env, n)

	case *adt.CComp:
		return e.comp(env, n)
	}
	return nil, e.errAt(token.NoSpan, adt.RuntimeError, "unhandled core node %T", c)
}

func literalValue(l literal.Literal) adt.Value {
	switch l.Kind {
	case literal.NullKind:
		return adt.VNull{}
	case literal.BoolKind:
		return adt.VBool{B: l.Bool}
	case literal.StringKind:
		return adt.VStr{S: l.Str}
	case literal.NumberKind:
		return adt.VNum{X: l.Num}
	}
	return adt.VNull{}
}

func formatNum(d *apd.Decimal) string { return literal.FormatNumber(d) }

func (e *Engine) raise(env *adt.Env, n *adt.CErr) *adt.Bottom {
	v, err := e.Eval(env, n.Msg)
	if err != nil {
		return err
	}
	s, err2 := e.asString(n.Span, v)
	if err2 != nil {
		return err2
	}
	return e.errAt(n.Span, adt.AssertionFailed, "%s", s)
}

func (e *Engine) evalLet(env *adt.Env, n *adt.CLet) (adt.Value, *adt.Bottom) {
	frame := make(map[ast.Ident]*adt.Thunk, len(n.Binds))
	newEnv := env.Push(frame)
	for _, b := range n.Binds {
		frame[b.Name] = adt.NewThunk(newEnv, b.RHS)
	}
	return e.Eval(newEnv, n.Body)
}

func (e *Engine) evalBool(env *adt.Env, c adt.Core) (bool, *adt.Bottom) {
	v, err := e.Eval(env, c)
	if err != nil {
		return false, err
	}
	b, ok := v.(adt.VBool)
	if !ok {
		return false, e.errAt(c.Source(), adt.TypeMismatch, "expected boolean, got %s", v.Kind())
	}
	return b.B, nil
}

func (e *Engine) asString(span token.Span, v adt.Value) (string, *adt.Bottom) {
	s, ok := v.(adt.VStr)
	if !ok {
		return "", e.errAt(span, adt.TypeMismatch, "expected string, got %s", v.Kind())
	}
	return s.S, nil
}

func (e *Engine) asNum(span token.Span, v adt.Value) (*apd.Decimal, *adt.Bottom) {
	n, ok := v.(adt.VNum)
	if !ok {
		return nil, e.errAt(span, adt.TypeMismatch, "expected number, got %s", v.Kind())
	}
	return &n.X, nil
}

func (e *Engine) asArr(span token.Span, v adt.Value) (adt.VArr, *adt.Bottom) {
	a, ok := v.(adt.VArr)
	if !ok {
		return adt.VArr{}, e.errAt(span, adt.TypeMismatch, "expected array, got %s", v.Kind())
	}
	return a, nil
}

func (e *Engine) asObj(span token.Span, v adt.Value) (*adt.VObj, *adt.Bottom) {
	o, ok := v.(*adt.VObj)
	if !ok {
		return nil, e.errAt(span, adt.TypeMismatch, "expected object, got %s", v.Kind())
	}
	return o, nil
}

// ---------------------------------------------------------------------
// Objects (§3.4, §4.4.1).

func (e *Engine) evalObjLit(env *adt.Env, n *adt.CObj) (adt.Value, *adt.Bottom) {
	obj := adt.NewObj()
	for _, f := range n.Fields {
		keyVal, err := e.Eval(env, f.Key)
		if err != nil {
			return nil, err
		}
		name, err2 := e.asString(f.Key.Source(), keyVal)
		if err2 != nil {
			return nil, err2
		}
		obj.Set(name, f.Hide, adt.NewThunk(env, f.Value))
	}
	return obj, nil
}

// composeObjects implements o1 + o2: a field present in both operands
// keeps m1's position but takes m2's value and visibility; a field
// present only in m2 is appended in m2's order. Every field's thunk is
// rebound (adt.Thunk.Rebind) over a fresh frame atop its *original*
// environment: self always points at the new composite, and super
// points at m1 only for fields carried in from m2 (overriding or new)
// — an m1-only field keeps whatever super binding it already had.
func composeObjects(m1, m2 *adt.VObj) *adt.VObj {
	composite := adt.NewObj()
	m1Frame := map[ast.Ident]*adt.Thunk{ast.Self: adt.Done(composite)}
	m2Frame := map[ast.Ident]*adt.Thunk{ast.Self: adt.Done(composite), ast.Super: adt.Done(m1)}

	for _, name := range m1.Order {
		if f2, ok := m2.Fields[name]; ok {
			composite.Set(name, f2.Vis, f2.Val.Rebind(m2Frame))
			continue
		}
		f1 := m1.Fields[name]
		composite.Set(name, f1.Vis, f1.Val.Rebind(m1Frame))
	}
	for _, name := range m2.Order {
		if _, ok := m1.Fields[name]; ok {
			continue
		}
		f2 := m2.Fields[name]
		composite.Set(name, f2.Vis, f2.Val.Rebind(m2Frame))
	}
	return composite
}

func (e *Engine) lookup(env *adt.Env, n *adt.CLookup) (adt.Value, *adt.Bottom) {
	cv, err := e.Eval(env, n.Container)
	if err != nil {
		return nil, err
	}
	kv, err := e.Eval(env, n.Key)
	if err != nil {
		return nil, err
	}
	switch c := cv.(type) {
	case *adt.VObj:
		name, err := e.asString(n.Span, kv)
		if err != nil {
			return nil, err
		}
		f, ok := c.Fields[name]
		if !ok {
			return nil, e.errAt(n.Span, adt.NoSuchKey, "object has no field named %q", name)
		}
		v, err2 := f.Val.Force(e)
		if err2 != nil {
			return nil, err2
		}
		return v, nil

	case adt.VArr:
		idx, err := e.asNum(n.Span, kv)
		if err != nil {
			return nil, err
		}
		i, ferr := intIndex(idx)
		if ferr != nil {
			return nil, e.errAt(n.Span, adt.InvalidIndex, "array index must be an integer")
		}
		if i < 0 || i >= len(c.Elems) {
			return nil, e.errAt(n.Span, adt.IndexOutOfBounds, "array index %d out of bounds [0,%d)", i, len(c.Elems))
		}
		return c.Elems[i].Force(e)

	case adt.VStr:
		idx, err := e.asNum(n.Span, kv)
		if err != nil {
			return nil, err
		}
		i, ferr := intIndex(idx)
		runes := []rune(c.S)
		if ferr != nil || i < 0 || i >= len(runes) {
			return nil, e.errAt(n.Span, adt.IndexOutOfBounds, "string index out of bounds")
		}
		return adt.VStr{S: string(runes[i])}, nil

	default:
		return nil, e.errAt(n.Span, adt.InvalidIndex, "cannot index into %s", cv.Kind())
	}
}

func intIndex(d *apd.Decimal) (int, error) {
	var r apd.Decimal
	cond, err := numCtx.RoundToIntegralExact(&r, d)
	if err != nil {
		return 0, err
	}
	if _, err := cond.GoError(apd.Inexact); err != nil {
		return 0, err
	}
	i, err := r.Int64()
	if err != nil {
		return 0, err
	}
	return int(i), nil
}

// ---------------------------------------------------------------------
// Comprehensions (§4.2, §4.4).

func (e *Engine) comp(env *adt.Env, n *adt.CComp) (adt.Value, *adt.Bottom) {
	srcVal, err := e.Eval(env, n.Source)
	if err != nil {
		return nil, err
	}
	arr, err := e.asArr(n.Span, srcVal)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case adt.CompArr:
		var out []*adt.Thunk
		for _, elemThunk := range arr.Elems {
			iterEnv := env.Bind1(n.Var, elemThunk)
			if n.IfCond != nil {
				keep, err := e.evalBool(iterEnv, n.IfCond)
				if err != nil {
					return nil, err
				}
				if !keep {
					continue
				}
			}
			bodyVal, err := e.Eval(iterEnv, n.Body)
			if err != nil {
				return nil, err
			}
			sub, err2 := e.asArr(n.Span, bodyVal)
			if err2 != nil {
				return nil, err2
			}
			out = append(out, sub.Elems...)
		}
		return adt.VArr{Elems: out}, nil

	case adt.CompObj:
		obj := adt.NewObj()
		for _, tupleThunk := range arr.Elems {
			iterEnv := env.Bind1(n.Var, tupleThunk)
			keyVal, err := e.Eval(iterEnv, n.Field.Key)
			if err != nil {
				return nil, err
			}
			name, err2 := e.asString(n.Span, keyVal)
			if err2 != nil {
				return nil, err2
			}
			obj.Set(name, n.Field.Hide, adt.NewThunk(iterEnv, n.Field.Value))
		}
		return obj, nil
	}
	return nil, e.errAt(n.Span, adt.RuntimeError, "bad comprehension kind")
}

// ---------------------------------------------------------------------
// Function application (§4.4's argument-binding rule).

func (e *Engine) apply(env *adt.Env, n *adt.CApp) (adt.Value, *adt.Bottom) {
	fnVal, err := e.Eval(env, n.Fun)
	if err != nil {
		return nil, err
	}
	switch fn := fnVal.(type) {
	case *adt.VClos:
		return e.applyClos(env, n, fn)
	case *adt.VPrim:
		return e.applyPrim(env, n, fn)
	default:
		return nil, e.errAt(n.Span, adt.TypeMismatch, "%s is not callable", fnVal.Kind())
	}
}

// Apply calls fn with args bound positionally, already-built thunks
// rather than unevaluated CApp argument expressions. This is what
// pkg/std's higher-order builtins (map, filter, foldl, sort, ...) use
// through adt.CallContext to invoke a Jsonnet-level callback without
// needing a CApp node of their own to hang the call off of.
func (e *Engine) Apply(fn adt.Value, args []*adt.Thunk) (adt.Value, *adt.Bottom) {
	switch f := fn.(type) {
	case *adt.VClos:
		if len(args) > len(f.Params) {
			return nil, e.Errf(adt.TooManyArgs, "too many arguments")
		}
		frame := make(map[ast.Ident]*adt.Thunk, len(f.Params))
		newEnv := f.Env.Push(frame)
		for i, p := range f.Params {
			if i < len(args) {
				frame[p.Name] = args[i]
				continue
			}
			if p.Default == nil {
				return nil, e.Errf(adt.ParamNotBound, "missing argument for parameter %s", p.Name)
			}
			frame[p.Name] = adt.NewThunk(newEnv, p.Default)
		}
		e.bt = append(adt.Backtrace{{Name: f.Name, Span: token.Span{}}}, e.bt...)
		v, err := e.Eval(newEnv, f.Body)
		e.bt = e.bt[1:]
		return v, err
	case *adt.VPrim:
		b := f.B
		if len(args) != len(b.Params) {
			return nil, e.Errf(adt.ParamNotBound, "%s expects %d arguments, got %d", b.Name, len(b.Params), len(args))
		}
		for i, p := range b.Params {
			if p.Kind == adt.AnyKind {
				continue
			}
			v, err := args[i].Force(e)
			if err != nil {
				return nil, err
			}
			if v.Kind() != p.Kind {
				return nil, e.Errf(adt.TypeMismatch, "%s: argument %s must be %s, got %s", b.Name, p.Name, p.Kind, v.Kind())
			}
		}
		return b.Fn(e, args)
	default:
		return nil, e.Errf(adt.TypeMismatch, "%s is not callable", fn.Kind())
	}
}

// applyClos binds n.Args to fn.Params into a single recursive frame (so
// parameter defaults may reference sibling parameters, matching CFun's
// doc comment): named arguments bind their parameters, and positional
// ones fill the remaining parameters left to right, skipping any named
// in the call (a name given twice is a BadParam error). It then
// evaluates fn.Body in the callee's captured environment extended with
// that frame.
func (e *Engine) applyClos(callerEnv *adt.Env, n *adt.CApp, fn *adt.VClos) (adt.Value, *adt.Bottom) {
	paramIndex := make(map[ast.Ident]int, len(fn.Params))
	for i, p := range fn.Params {
		paramIndex[p.Name] = i
	}

	frame := make(map[ast.Ident]*adt.Thunk, len(fn.Params))
	newEnv := fn.Env.Push(frame)

	mkThunk := func(val adt.Core) *adt.Thunk {
		if n.Args.Strictness == adt.Strict {
			v, err := e.Eval(callerEnv, val)
			if err != nil {
				return adt.FailedThunk(err)
			}
			return adt.Done(v)
		}
		return adt.NewThunk(callerEnv, val)
	}

	named := make(map[ast.Ident]bool, len(n.Args.Items))
	for _, a := range n.Args.Items {
		if a.Name != "" {
			named[a.Name] = true
		}
	}
	pos := 0
	for _, a := range n.Args.Items {
		if a.Name == "" {
			for pos < len(fn.Params) && named[fn.Params[pos].Name] {
				pos++
			}
			if pos >= len(fn.Params) {
				return nil, e.errAt(n.Span, adt.TooManyArgs, "too many arguments")
			}
			frame[fn.Params[pos].Name] = mkThunk(a.Value)
			pos++
			continue
		}
		if _, ok := paramIndex[a.Name]; !ok {
			return nil, e.errAt(n.Span, adt.BadParam, "function has no parameter %s", a.Name)
		}
		if _, bound := frame[a.Name]; bound {
			return nil, e.errAt(n.Span, adt.BadParam, "parameter %s bound multiple times", a.Name)
		}
		frame[a.Name] = mkThunk(a.Value)
	}

	for _, p := range fn.Params {
		if _, ok := frame[p.Name]; ok {
			continue
		}
		if p.Default == nil {
			return nil, e.errAt(n.Span, adt.ParamNotBound, "missing argument for parameter %s", p.Name)
		}
		frame[p.Name] = adt.NewThunk(newEnv, p.Default)
	}

	e.bt = append(adt.Backtrace{{Name: fn.Name, Span: n.Span}}, e.bt...)
	v, err := e.Eval(newEnv, fn.Body)
	e.bt = e.bt[1:]
	return v, err
}

func (e *Engine) applyPrim(callerEnv *adt.Env, n *adt.CApp, fn *adt.VPrim) (adt.Value, *adt.Bottom) {
	b := fn.B
	bound := make([]*adt.Thunk, len(b.Params))
	supplied := make([]bool, len(b.Params))
	paramIndex := make(map[string]int, len(b.Params))
	for i, p := range b.Params {
		paramIndex[p.Name] = i
	}

	pos := 0
	for _, a := range n.Args.Items {
		idx := pos
		if a.Name != "" {
			var ok bool
			idx, ok = paramIndex[string(a.Name)]
			if !ok {
				return nil, e.errAt(n.Span, adt.BadParam, "%s has no parameter %s", b.Name, a.Name)
			}
		} else {
			if pos >= len(b.Params) {
				return nil, e.errAt(n.Span, adt.TooManyArgs, "too many arguments to %s", b.Name)
			}
			pos++
		}
		v, err := e.Eval(callerEnv, a.Value)
		if err != nil {
			return nil, err
		}
		if want := b.Params[idx].Kind; want != adt.AnyKind && v.Kind() != want {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "%s: argument %s must be %s, got %s",
				b.Name, b.Params[idx].Name, want, v.Kind())
		}
		bound[idx] = adt.Done(v)
		supplied[idx] = true
	}
	for i, ok := range supplied {
		if !ok {
			return nil, e.errAt(n.Span, adt.ParamNotBound, "%s: missing argument %s", b.Name, b.Params[i].Name)
		}
	}

	saved := e.pos
	e.pos = n.Span.Start
	v, err := b.Fn(e, bound)
	e.pos = saved
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ---------------------------------------------------------------------
// Operators (§3.3, §4.4).

func (e *Engine) unOp(env *adt.Env, n *adt.CUnyOp) (adt.Value, *adt.Bottom) {
	v, err := e.Eval(env, n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.LNot:
		b, ok := v.(adt.VBool)
		if !ok {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "! requires boolean, got %s", v.Kind())
		}
		return adt.VBool{B: !b.B}, nil

	case ast.Minus:
		num, ok := v.(adt.VNum)
		if !ok {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "unary - requires number, got %s", v.Kind())
		}
		var r apd.Decimal
		numCtx.Neg(&r, &num.X)
		return adt.VNum{X: r}, nil

	case ast.Plus:
		if _, ok := v.(adt.VNum); !ok {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "unary + requires number, got %s", v.Kind())
		}
		return v, nil

	case ast.Compl:
		num, ok := v.(adt.VNum)
		if !ok {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "~ requires number, got %s", v.Kind())
		}
		i, ferr := intIndex(&num.X)
		if ferr != nil {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "~ requires an integral number")
		}
		var res big.Int
		res.Not(big.NewInt(int64(i)))
		return numFromInt64(res.Int64()), nil

	case ast.Err:
		return nil, e.raise(env, &adt.CErr{Span: n.Span, Msg: n.X})
	}
	return nil, e.errAt(n.Span, adt.RuntimeError, "unsupported unary operator %s", n.Op)
}

func numFromInt64(i int64) adt.Value {
	var d apd.Decimal
	d.SetInt64(i)
	return adt.VNum{X: d}
}

func (e *Engine) binOp(env *adt.Env, n *adt.CBinOp) (adt.Value, *adt.Bottom) {
	// && and || short-circuit and so must not evaluate Right eagerly.
	switch n.Op {
	case ast.LAnd:
		l, err := e.evalBool(env, n.Left)
		if err != nil {
			return nil, err
		}
		if !l {
			return adt.VBool{B: false}, nil
		}
		r, err := e.evalBool(env, n.Right)
		if err != nil {
			return nil, err
		}
		return adt.VBool{B: r}, nil

	case ast.LOr:
		l, err := e.evalBool(env, n.Left)
		if err != nil {
			return nil, err
		}
		if l {
			return adt.VBool{B: true}, nil
		}
		r, err := e.evalBool(env, n.Right)
		if err != nil {
			return nil, err
		}
		return adt.VBool{B: r}, nil
	}

	lv, err := e.Eval(env, n.Left)
	if err != nil {
		return nil, err
	}
	rv, err := e.Eval(env, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.Eq:
		eq, err := e.deepEqual(n.Span, lv, rv)
		if err != nil {
			return nil, err
		}
		return adt.VBool{B: eq}, nil
	case ast.Ne:
		eq, err := e.deepEqual(n.Span, lv, rv)
		if err != nil {
			return nil, err
		}
		return adt.VBool{B: !eq}, nil
	case ast.In:
		obj, err := e.asObj(n.Span, rv)
		if err != nil {
			return nil, err
		}
		name, err2 := e.asString(n.Span, lv)
		if err2 != nil {
			return nil, err2
		}
		_, ok := obj.Fields[name]
		return adt.VBool{B: ok}, nil
	}

	switch l := lv.(type) {
	case adt.VNum:
		r, ok := rv.(adt.VNum)
		if !ok {
			return nil, e.errAt(n.Span, adt.TypeMismatch, "cannot %s number and %s", n.Op, rv.Kind())
		}
		return e.numOp(n.Span, n.Op, &l.X, &r.X)

	case adt.VStr:
		switch n.Op {
		case ast.Add:
			return adt.VStr{S: l.S + mustToStringForConcat(rv)}, nil
		case ast.Lt, ast.Le, ast.Gt, ast.Ge:
			r, ok := rv.(adt.VStr)
			if !ok {
				return nil, e.errAt(n.Span, adt.TypeMismatch, "cannot compare string and %s", rv.Kind())
			}
			return adt.VBool{B: compareOp(n.Op, stringCompare(l.S, r.S))}, nil
		}
		return nil, e.errAt(n.Span, adt.TypeMismatch, "unsupported string operator %s", n.Op)

	case adt.VArr:
		switch n.Op {
		case ast.Add:
			r, ok := rv.(adt.VArr)
			if !ok {
				return nil, e.errAt(n.Span, adt.TypeMismatch, "cannot concatenate array and %s", rv.Kind())
			}
			out := make([]*adt.Thunk, 0, len(l.Elems)+len(r.Elems))
			out = append(out, l.Elems...)
			out = append(out, r.Elems...)
			return adt.VArr{Elems: out}, nil
		case ast.Lt, ast.Le, ast.Gt, ast.Ge:
			r, ok := rv.(adt.VArr)
			if !ok {
				return nil, e.errAt(n.Span, adt.TypeMismatch, "cannot compare array and %s", rv.Kind())
			}
			c, err := e.arrCompare(n.Span, l, r)
			if err != nil {
				return nil, err
			}
			return adt.VBool{B: compareOp(n.Op, c)}, nil
		}
		return nil, e.errAt(n.Span, adt.TypeMismatch, "unsupported array operator %s", n.Op)

	case *adt.VObj:
		if n.Op == ast.Add {
			r, ok := rv.(*adt.VObj)
			if !ok {
				return nil, e.errAt(n.Span, adt.TypeMismatch, "cannot add object and %s", rv.Kind())
			}
			return composeObjects(l, r), nil
		}
		return nil, e.errAt(n.Span, adt.TypeMismatch, "unsupported object operator %s", n.Op)

	case adt.VBool:
		return nil, e.errAt(n.Span, adt.TypeMismatch, "unsupported boolean operator %s", n.Op)
	}
	return nil, e.errAt(n.Span, adt.TypeMismatch, "unsupported operator %s on %s", n.Op, lv.Kind())
}

// mustToStringForConcat renders any value as a string for "x" + y
// (Jsonnet coerces the non-string side of a string concatenation via
// std.toString); a full rendering lives in pkg/std, so primitives are
// handled inline here and anything richer is left to that package
// via the evaluator-independent literal.FormatNumber helper.
func mustToStringForConcat(v adt.Value) string {
	switch x := v.(type) {
	case adt.VStr:
		return x.S
	case adt.VNum:
		return formatNum(&x.X)
	case adt.VBool:
		if x.B {
			return "true"
		}
		return "false"
	case adt.VNull:
		return "null"
	}
	return ""
}

func compareOp(op ast.BinOp, c int) bool {
	switch op {
	case ast.Lt:
		return c < 0
	case ast.Le:
		return c <= 0
	case ast.Gt:
		return c > 0
	case ast.Ge:
		return c >= 0
	}
	return false
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (e *Engine) arrCompare(span token.Span, a, b adt.VArr) (int, *adt.Bottom) {
	for i := 0; i < len(a.Elems) && i < len(b.Elems); i++ {
		av, err := a.Elems[i].Force(e)
		if err != nil {
			return 0, err
		}
		bv, err := b.Elems[i].Force(e)
		if err != nil {
			return 0, err
		}
		c, err2 := e.valueCompare(span, av, bv)
		if err2 != nil {
			return 0, err2
		}
		if c != 0 {
			return c, nil
		}
	}
	return len(a.Elems) - len(b.Elems), nil
}

func (e *Engine) valueCompare(span token.Span, a, b adt.Value) (int, *adt.Bottom) {
	an, aok := a.(adt.VNum)
	bn, bok := b.(adt.VNum)
	if aok && bok {
		return apdCmp(&an.X, &bn.X), nil
	}
	as, aok2 := a.(adt.VStr)
	bs, bok2 := b.(adt.VStr)
	if aok2 && bok2 {
		return stringCompare(as.S, bs.S), nil
	}
	return 0, e.errAt(span, adt.TypeMismatch, "cannot compare %s and %s", a.Kind(), b.Kind())
}

func apdCmp(a, b *apd.Decimal) int { return a.Cmp(b) }

func (e *Engine) numOp(span token.Span, op ast.BinOp, l, r *apd.Decimal) (adt.Value, *adt.Bottom) {
	var d apd.Decimal
	switch op {
	case ast.Add:
		numCtx.Add(&d, l, r)
		return adt.VNum{X: d}, nil
	case ast.Sub:
		numCtx.Sub(&d, l, r)
		return adt.VNum{X: d}, nil
	case ast.Mul:
		numCtx.Mul(&d, l, r)
		return adt.VNum{X: d}, nil
	case ast.Div:
		if r.IsZero() {
			return nil, e.errAt(span, adt.DivByZero, "division by zero")
		}
		numCtx.Quo(&d, l, r)
		return adt.VNum{X: d}, nil
	case ast.Mod:
		if r.IsZero() {
			return nil, e.errAt(span, adt.DivByZero, "division by zero")
		}
		numCtx.Rem(&d, l, r)
		return adt.VNum{X: d}, nil
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return adt.VBool{B: compareOp(op, l.Cmp(r))}, nil
	case ast.BitAnd, ast.BitOr, ast.BitXor, ast.ShiftL, ast.ShiftR:
		li, lerr := intIndex(l)
		ri, rerr := intIndex(r)
		if lerr != nil || rerr != nil {
			return nil, e.errAt(span, adt.TypeMismatch, "bitwise operator requires integral numbers")
		}
		bl, br := big.NewInt(int64(li)), big.NewInt(int64(ri))
		var res big.Int
		switch op {
		case ast.BitAnd:
			res.And(bl, br)
		case ast.BitOr:
			res.Or(bl, br)
		case ast.BitXor:
			res.Xor(bl, br)
		case ast.ShiftL:
			res.Lsh(bl, uint(ri))
		case ast.ShiftR:
			res.Rsh(bl, uint(ri))
		}
		return numFromInt64(res.Int64()), nil
	}
	return nil, e.errAt(span, adt.TypeMismatch, "unsupported numeric operator %s", op)
}

// Equal implements adt.CallContext's Equal, letting std.equals and
// std.assertEqual share == 's own deepEqual rather than reimplement it.
func (e *Engine) Equal(a, b *adt.Thunk) (bool, *adt.Bottom) {
	av, err := a.Force(e)
	if err != nil {
		return false, err
	}
	bv, err := b.Force(e)
	if err != nil {
		return false, err
	}
	return e.deepEqual(token.Span{}, av, bv)
}

// deepEqual implements == (§4.6's std.primitiveEquals/std.equals
// semantics): structural equality, forcing array elements and
// visible/forced object fields as needed. Hidden fields do not
// participate (§4.4), matching manifestation's own visibility filter.
// A function compared with a non-function is simply unequal; comparing
// two functions is a TypeMismatch error.
func (e *Engine) deepEqual(span token.Span, a, b adt.Value) (bool, *adt.Bottom) {
	if a.Kind() != b.Kind() {
		return false, nil
	}
	switch av := a.(type) {
	case adt.VNull:
		return true, nil
	case adt.VBool:
		return av.B == b.(adt.VBool).B, nil
	case adt.VNum:
		return av.X.Cmp(&b.(adt.VNum).X) == 0, nil
	case adt.VStr:
		return av.S == b.(adt.VStr).S, nil
	case adt.VArr:
		bv := b.(adt.VArr)
		if len(av.Elems) != len(bv.Elems) {
			return false, nil
		}
		for i := range av.Elems {
			x, err := av.Elems[i].Force(e)
			if err != nil {
				return false, err
			}
			y, err := bv.Elems[i].Force(e)
			if err != nil {
				return false, err
			}
			eq, err2 := e.deepEqual(span, x, y)
			if err2 != nil {
				return false, err2
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	case *adt.VObj:
		bv := b.(*adt.VObj)
		if visibleFieldCount(av) != visibleFieldCount(bv) {
			return false, nil
		}
		for name, f := range av.Fields {
			if f.Vis == ast.Hidden {
				continue
			}
			g, ok := bv.Fields[name]
			if !ok || g.Vis == ast.Hidden {
				return false, nil
			}
			x, err := f.Val.Force(e)
			if err != nil {
				return false, err
			}
			y, err := g.Val.Force(e)
			if err != nil {
				return false, err
			}
			eq, err2 := e.deepEqual(span, x, y)
			if err2 != nil {
				return false, err2
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, e.errAt(span, adt.TypeMismatch, "cannot compare values of type %s", a.Kind())
	}
}

// visibleFieldCount counts an object's non-Hidden fields, the set ==
// actually compares (§4.4).
func visibleFieldCount(o *adt.VObj) int {
	n := 0
	for _, f := range o.Fields {
		if f.Vis != ast.Hidden {
			n++
		}
	}
	return n
}
