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

// Package adt is the core calculus (§3.1): a small call-by-need
// expression language with recursive let, first-class objects with
// hidden/visible/forced fields, comprehensions, primitive ops, and
// source-span annotations. The desugarer (internal/core/compile)
// produces Core trees; the evaluator (internal/core/eval) consumes
// them; the manifester (internal/core/export) converts the resulting
// value graph to JSON.
//
// Names are α-equivalent: every operation here must be capture-avoiding.
// This package never renames a bound variable; instead environments
// (Env, see composite.go) are chained frames keyed by ast.Ident, so
// shadowing falls out of ordinary lookup order rather than requiring
// a substitution pass.
package adt

import (
	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/cue/token"
)

// Core is implemented by every core-calculus node.
type Core interface {
	Source() token.Span
}

// CLoc wraps any Core node with a source span inherited from some
// ancestor surface node (invariant §3.8.1). The evaluator pushes
// Span on the backtrace before evaluating X and pops it on return
// (§4.4's CLoc bullet).
type CLoc struct {
	Span token.Span
	X    Core
}

func (c *CLoc) Source() token.Span { return c.Span }

// Loc wraps x in a CLoc at span. A nil x (used by a few desugar rules
// for "no expression here") passes through unchanged.
func Loc(span token.Span, x Core) Core {
	if x == nil {
		return nil
	}
	return &CLoc{Span: span, X: x}
}

// Unwrap strips any number of surrounding CLoc wrappers, returning the
// innermost node and the outermost span seen (token.NoSpan if x was
// never wrapped).
func Unwrap(x Core) (Core, token.Span) {
	span := token.NoSpan
	for {
		l, ok := x.(*CLoc)
		if !ok {
			return x, span
		}
		if !span.IsValid() {
			span = l.Span
		}
		x = l.X
	}
}

// CLit is a literal (§3.2): null, bool, string, or number.
type CLit struct {
	Span  token.Span
	Value literal.Literal
}

func (c *CLit) Source() token.Span { return c.Span }

// CVar is a variable reference, resolved against the evaluation Env.
type CVar struct {
	Span token.Span
	Name ast.Ident
}

func (c *CVar) Source() token.Span { return c.Span }

// Param is one function parameter; Default is nil for a required
// parameter. All parameters in a CFun may mention each other and
// themselves (mutual recursion), matching Env's recursive-binding
// semantics.
type Param struct {
	Name    ast.Ident
	Default Core // nil if required
}

// CFun is a recursive function literal.
type CFun struct {
	Span   token.Span
	Params []Param
	Body   Core
}

func (c *CFun) Source() token.Span { return c.Span }

// Strictness controls whether CApp forces its arguments before
// invocation (Strict, used for primitive/native calls expecting weak-
// head values) or passes them as thunks (Lazy, the default for
// ordinary function application).
type Strictness int

const (
	Lazy Strictness = iota
	Strict
)

// Arg is one call argument: positional (Name == "") or named.
type Arg struct {
	Name  ast.Ident // empty for positional
	Value Core
}

// Args is a call's full argument list plus its strictness.
type Args struct {
	Items      []Arg
	Strictness Strictness
}

// CApp is function application.
type CApp struct {
	Span token.Span
	Fun  Core
	Args Args
}

func (c *CApp) Source() token.Span { return c.Span }

// Bind is one binding of a recursive let; all names are visible in
// every RHS and in Body.
type Bind struct {
	Name ast.Ident
	RHS  Core
}

// CLet is a non-empty recursive let.
type CLet struct {
	Span  token.Span
	Binds []Bind
	Body  Core
}

func (c *CLet) Source() token.Span { return c.Span }

// CBinOp is a primitive binary operation.
type CBinOp struct {
	Span        token.Span
	Op          ast.BinOp
	Left, Right Core
}

func (c *CBinOp) Source() token.Span { return c.Span }

// CUnyOp is a primitive unary operation.
type CUnyOp struct {
	Span token.Span
	Op   ast.UnaryOp
	X    Core
}

func (c *CUnyOp) Source() token.Span { return c.Span }

// CIfElse is a conditional; the desugarer always supplies both
// branches (EIf without an else gets CLit Null, §4.2).
type CIfElse struct {
	Span             token.Span
	Cond, Then, Else Core
}

func (c *CIfElse) Source() token.Span { return c.Span }

// CArr is an array literal; each element becomes a thunk when
// evaluated.
type CArr struct {
	Span  token.Span
	Elems []Core
}

func (c *CArr) Source() token.Span { return c.Span }

// Field is one member of a CObj.
type Field struct {
	Key   Core // evaluates to a string
	Value Core
	Hide  ast.Visibility
}

// CObj is an object literal. Fields close over the environment in
// which the CObj itself is evaluated — which, thanks to how the
// desugarer lowers EObj into a CLet binding "self" recursively to this
// very CObj (§4.2), already contains the correct self/$ bindings. No
// special-casing is needed here: ordinary recursive-let semantics give
// late-bound self for free (see internal/core/eval's composition code
// for how "+" re-derives it for composite objects).
type CObj struct {
	Span   token.Span
	Fields []Field
}

func (c *CObj) Source() token.Span { return c.Span }

// CLookup is polymorphic container access: object field, array index,
// string indexing, or (via the std.slice primitive the desugarer
// inserts for ESlice) slicing.
type CLookup struct {
	Span      token.Span
	Container Core
	Key       Core
}

func (c *CLookup) Source() token.Span { return c.Span }

// CErr raises a runtime error with a message expression.
type CErr struct {
	Span token.Span
	Msg  Core
}

func (c *CErr) Source() token.Span { return c.Span }

// CompKind discriminates the two comprehension shapes.
type CompKind int

const (
	CompArr CompKind = iota
	CompObj
)

// CComp is a comprehension (§4.2's fold of EArrComp/EObjComp). For
// CompArr, Var is bound to each element of Source in turn, IfCond (if
// non-nil) filters, and Body must itself evaluate to an array whose
// elements are concatenated — this is how the desugarer's right-fold
// over nested for-clauses is expressed at the Core level: each nested
// CComp's Body is either the next comprehension or a singleton CArr.
// For CompObj, Var is "$arr", bound in turn to each tuple of the array
// the wrapped array comprehension (Source) produces, and Field computes
// one field's (key, value) from it.
type CComp struct {
	Span   token.Span
	Kind   CompKind
	Var    ast.Ident
	Source Core
	IfCond Core // nil if no filter (CompArr only)
	Body   Core // CompArr only
	Field  Field
}

func (c *CComp) Source() token.Span { return c.Span }
