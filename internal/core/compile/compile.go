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

// Package compile is the desugarer (§4.2): it lowers the surface AST
// (cue/ast) into the core calculus (internal/core/adt), resolving
// self/$ into ordinary recursive-let bindings and folding
// comprehensions, slices and asserts into primitives the evaluator
// already knows. It mirrors the shape of the teacher's own compiler —
// a small struct accumulating errors.Error as it walks the tree — but
// the resolution strategy itself is new: the teacher resolves
// references to static graph paths (upCount + Feature), whereas this
// desugarer leaves names as CVar and lets the evaluator's chained Env
// (internal/core/adt's composite.go) do the resolving at run time, so
// there is no scope-stack/upCount bookkeeping to port.
package compile

import (
	"fmt"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/cue/token"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

// compiler accumulates desugar-time errors the way the teacher's
// compiler accumulates compilerError values via errf/errs; the only
// such error is a surface expression type it does not support.
type compiler struct {
	errs errors.Error

	// depth counts enclosing EObj nodes; depth == 0 at the point an
	// EObj is compiled means it is the outermost object, which is the
	// one that binds "$" (§3.8.3 — $ is fixed at the outermost
	// object's self and does not shift across nested object literals).
	depth int
}

// File desugars a parsed program into a Core tree, plus an error for
// each unsupported surface expression type it met. A non-nil
// Core is still returned on error so the static checker and caller can
// report multiple problems in one pass (mirroring the teacher's
// Files, which "may return a completed parse even if it has errors").
func File(f *ast.File) (adt.Core, errors.Error) {
	c := &compiler{}
	root := c.expr(f.Root)
	return root, c.errs
}

func (c *compiler) errf(n ast.Node, format string, args ...interface{}) adt.Core {
	c.errs = errors.Append(c.errs, errors.Newf(n.Pos(), format, args...))
	return &adt.CErr{
		Span: span(n),
		Msg:  &adt.CLit{Span: span(n), Value: literal.String(fmt.Sprintf(format, args...))},
	}
}

func span(n ast.Node) token.Span {
	return token.NewSpan(n.Pos(), n.End())
}

// stdCall builds a Strict call to a std builtin, used to desugar
// ESlice into std.slice (§4.2).
func stdCall(at ast.Node, name string, args ...adt.Core) adt.Core {
	sp := span(at)
	items := make([]adt.Arg, len(args))
	for i, a := range args {
		items[i] = adt.Arg{Value: a}
	}
	return &adt.CApp{
		Span: sp,
		Fun: &adt.CLookup{
			Span:      sp,
			Container: &adt.CVar{Span: sp, Name: "std"},
			Key:       &adt.CLit{Span: sp, Value: literal.String(name)},
		},
		Args: adt.Args{Items: items, Strictness: adt.Strict},
	}
}

func litNull(at ast.Node) adt.Core {
	return &adt.CLit{Span: span(at), Value: literal.Null()}
}

func litString(at ast.Node, s string) adt.Core {
	return &adt.CLit{Span: span(at), Value: literal.String(s)}
}

func litNumInt(at ast.Node, n int64) adt.Core {
	lit, err := literal.Number(fmt.Sprintf("%d", n))
	if err != nil {
		lit = literal.Null()
	}
	return &adt.CLit{Span: span(at), Value: lit}
}

func (c *compiler) expr(e ast.Expr) adt.Core {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.ELit:
		return &adt.CLit{Span: span(n), Value: n.Value}

	case *ast.EIdent:
		return &adt.CVar{Span: span(n), Name: n.Name}

	case *ast.EFun:
		return &adt.CFun{Span: span(n), Params: c.params(n.Params), Body: c.expr(n.Body)}

	case *ast.EApply:
		return &adt.CApp{Span: span(n), Fun: c.expr(n.Fn), Args: c.args(n.Args)}

	case *ast.ELocal:
		if len(n.Binds) == 0 {
			return c.expr(n.Body)
		}
		return &adt.CLet{Span: span(n), Binds: c.binds(n.Binds), Body: c.expr(n.Body)}

	case *ast.EBinOp:
		return &adt.CBinOp{Span: span(n), Op: n.Op, Left: c.expr(n.Left), Right: c.expr(n.Right)}

	case *ast.EUnyOp:
		return &adt.CUnyOp{Span: span(n), Op: n.Op, X: c.expr(n.Expr)}

	case *ast.EIfElse:
		return &adt.CIfElse{Span: span(n), Cond: c.expr(n.Cond), Then: c.expr(n.Then), Else: c.expr(n.Else)}

	case *ast.EIf:
		return &adt.CIfElse{Span: span(n), Cond: c.expr(n.Cond), Then: c.expr(n.Then), Else: litNull(n)}

	case *ast.EArr:
		elems := make([]adt.Core, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = c.expr(el)
		}
		return &adt.CArr{Span: span(n), Elems: elems}

	case *ast.EObj:
		return c.object(n)

	case *ast.ELookup:
		return &adt.CLookup{Span: span(n), Container: c.expr(n.Target), Key: litString(n, string(n.Field))}

	case *ast.EIndex:
		return &adt.CLookup{Span: span(n), Container: c.expr(n.Target), Key: c.expr(n.Index)}

	case *ast.EErr:
		return &adt.CErr{Span: span(n), Msg: c.expr(n.Expr)}

	case *ast.EAssert:
		msg := n.Msg
		var msgCore adt.Core
		if msg != nil {
			msgCore = c.expr(msg)
		} else {
			msgCore = litString(n, "assertion failed")
		}
		return &adt.CIfElse{
			Span: span(n),
			Cond: c.expr(n.Cond),
			Then: c.expr(n.Rest),
			Else: &adt.CErr{Span: span(n), Msg: msgCore},
		}

	case *ast.ESlice:
		start := n.Start
		end := n.End
		step := n.Step
		var startC, endC, stepC adt.Core = litNull(n), litNull(n), litNull(n)
		if start != nil {
			startC = c.expr(start)
		}
		if end != nil {
			endC = c.expr(end)
		}
		if step != nil {
			stepC = c.expr(step)
		}
		return stdCall(n, "slice", c.expr(n.Target), startC, endC, stepC)

	case *ast.EArrComp:
		return c.arrComp(n.Comp, func() adt.Core { return c.expr(n.Body) }, n)

	case *ast.EObjComp:
		return c.objComp(n)

	default:
		return c.errf(e, "unsupported expression type %T", e)
	}
}

func (c *compiler) params(ps ast.Params) []adt.Param {
	out := make([]adt.Param, len(ps))
	for i, p := range ps {
		out[i] = adt.Param{Name: p.Name, Default: c.expr(p.Default)}
	}
	return out
}

func (c *compiler) args(as ast.Arguments) adt.Args {
	items := make([]adt.Arg, len(as))
	for i, a := range as {
		items[i] = adt.Arg{Name: a.Name, Value: c.expr(a.Value)}
	}
	return adt.Args{Items: items, Strictness: adt.Lazy}
}

func (c *compiler) binds(bs []ast.Bind) []adt.Bind {
	out := make([]adt.Bind, len(bs))
	for i, b := range bs {
		out[i] = adt.Bind{Name: b.Name, RHS: c.expr(b.Value)}
	}
	return out
}

// object desugars an EObj into `let self = <CObj> in self` (and, at
// the outermost nesting level, also binds "$" to the same self thunk)
// — see adt.CObj's doc comment for why no further special-casing is
// needed: ordinary recursive-let lookup gives every field access to
// self, the other fields, and the object's own locals.
//
// Asserts are folded into every field's value as a guard chain rather
// than forced once up front (Open Question, resolved in DESIGN.md):
// since asserts must be side-effect free, re-checking them on each
// field's first force is observably identical to checking them once,
// at the cost of redundant (but cheap) re-evaluation.
func (c *compiler) object(n *ast.EObj) adt.Core {
	c.depth++
	defer func() { c.depth-- }()
	outermost := c.depth == 1

	assertCores := make([]struct{ cond, msg adt.Core }, len(n.Asserts))
	for i, a := range n.Asserts {
		var msg adt.Core
		if a.Msg != nil {
			msg = c.expr(a.Msg)
		} else {
			msg = litString(n, "assertion failed")
		}
		assertCores[i] = struct{ cond, msg adt.Core }{c.expr(a.Cond), msg}
	}
	guard := func(value adt.Core) adt.Core {
		for i := len(assertCores) - 1; i >= 0; i-- {
			a := assertCores[i]
			value = &adt.CIfElse{Span: span(n), Cond: a.cond, Then: value, Else: &adt.CErr{Span: span(n), Msg: a.msg}}
		}
		return value
	}

	fields := make([]adt.Field, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = adt.Field{Key: c.expr(f.Key), Value: guard(c.expr(f.Value)), Hide: f.Hide}
	}

	obj := &adt.CObj{Span: span(n), Fields: fields}

	binds := make([]adt.Bind, 0, len(n.Locals)+2)
	binds = append(binds, adt.Bind{Name: ast.Self, RHS: obj})
	binds = append(binds, c.binds(n.Locals)...)
	if outermost {
		binds = append(binds, adt.Bind{Name: ast.Dollar, RHS: &adt.CVar{Span: span(n), Name: ast.Self}})
	}

	return &adt.CLet{Span: span(n), Binds: binds, Body: &adt.CVar{Span: span(n), Name: ast.Self}}
}

// arrComp right-folds a `for`/`if` clause chain into nested CComp
// nodes (§4.2): the last clause wraps a singleton array holding the
// comprehension body, and each clause before it wraps the result of
// the next.
func (c *compiler) arrComp(comp ast.Comp, body func() adt.Core, at ast.Node) adt.Core {
	return c.arrCompAt(comp, 0, body, at)
}

func (c *compiler) arrCompAt(comp ast.Comp, i int, body func() adt.Core, at ast.Node) adt.Core {
	if i == len(comp) {
		return &adt.CArr{Span: span(at), Elems: []adt.Core{body()}}
	}
	cl := comp[i]
	inner := c.arrCompAt(comp, i+1, body, at)
	var ifCond adt.Core
	for _, spec := range cl.Conds {
		cond := c.expr(spec.Cond)
		if ifCond == nil {
			ifCond = cond
		} else {
			ifCond = &adt.CBinOp{Span: span(at), Op: ast.LAnd, Left: ifCond, Right: cond}
		}
	}
	return &adt.CComp{
		Span:   span(at),
		Kind:   adt.CompArr,
		Var:    cl.Var,
		Source: c.expr(cl.Source),
		IfCond: ifCond,
		Body:   inner,
	}
}

// objComp desugars `{ [k]: v for ... }` by first building the array
// comprehension that produces [key, value] tuples (reusing arrCompAt
// verbatim), then wrapping it in one CompObj-kind CComp that iterates
// the tuples and reads a field's key/value back out of each ($arr[0],
// $arr[1]) — see adt.CComp's doc comment.
func (c *compiler) objComp(n *ast.EObjComp) adt.Core {
	tupleBody := func() adt.Core {
		key := c.expr(n.Field.Key)
		val := c.expr(n.Field.Value)
		if len(n.Locals) > 0 {
			key = &adt.CLet{Span: span(n), Binds: c.binds(n.Locals), Body: key}
			val = &adt.CLet{Span: span(n), Binds: c.binds(n.Locals), Body: val}
		}
		return &adt.CArr{Span: span(n), Elems: []adt.Core{key, val}}
	}
	arrOfTuples := c.arrCompAt(n.Comp, 0, tupleBody, n)

	const tupleVar ast.Ident = "$arr"
	return &adt.CComp{
		Span:   span(n),
		Kind:   adt.CompObj,
		Var:    tupleVar,
		Source: arrOfTuples,
		Field: adt.Field{
			Key:   &adt.CLookup{Span: span(n), Container: &adt.CVar{Span: span(n), Name: tupleVar}, Key: litNumInt(n, 0)},
			Value: &adt.CLookup{Span: span(n), Container: &adt.CVar{Span: span(n), Name: tupleVar}, Key: litNumInt(n, 1)},
			Hide:  n.Field.Hide,
		},
	}
}
