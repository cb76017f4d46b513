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

// Package ast defines the surface AST: the annotated expression tree
// the parser (out of scope) produces and the desugarer (internal/core/
// compile) consumes. Every node carries a source span so later stages
// never need to re-derive one.
//
// self, super and $ are not dedicated node kinds here: they are
// ordinary identifiers (EIdent{Name: "self"}, ...). The desugarer binds
// self and $ when it lowers EObj; super is bound by the evaluator when
// it composes two objects with +. That keeps the surface grammar to
// exactly the variants §4.1 names.
package ast

import (
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/cue/token"
)

// Well-known identifiers bound implicitly around object bodies (self
// and $ by the desugarer, super by the evaluator's object composition).
// Source text may also reference these as plain identifiers.
const (
	Self  Ident = "self"
	Super Ident = "super"
	Dollar Ident = "$"
)

// Ident names a variable, parameter, or field binding.
type Ident string

// Node is implemented by every surface tree node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// Expr is implemented by every surface expression.
type Expr interface {
	Node
	exprNode()
}

type exprBase struct {
	Span token.Span
}

func (b exprBase) Pos() token.Pos { return b.Span.Start }
func (b exprBase) End() token.Pos { return b.Span.End }
func (exprBase) exprNode()        {}

func NewBase(span token.Span) exprBase { return exprBase{Span: span} }

// ---------------------------------------------------------------------
// Shared vocabulary (§2 item 1): operators, visibility, argument lists,
// comprehension specs, assertion records. Defined once, used by both
// the surface tree below and the core calculus (internal/core/adt),
// which imports this package for exactly these types.

// BinOp enumerates Jsonnet's binary operators (§3.3).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	BitAnd
	BitOr
	BitXor
	ShiftL
	ShiftR
	LAnd
	LOr
	In
	Lookup
)

var binOpNames = map[BinOp]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%",
	Lt: "<", Le: "<=", Gt: ">", Ge: ">=", Eq: "==", Ne: "!=",
	BitAnd: "&", BitOr: "|", BitXor: "^", ShiftL: "<<", ShiftR: ">>",
	LAnd: "&&", LOr: "||", In: "in", Lookup: "[]",
}

func (op BinOp) String() string {
	if s, ok := binOpNames[op]; ok {
		return s
	}
	return "<bad binop>"
}

// UnaryOp enumerates Jsonnet's unary operators (§3.3). Err mirrors the
// EErr/CErr node for completeness; the evaluator treats CUnyOp(Err, x)
// identically to CErr(x) (see internal/core/eval).
type UnaryOp int

const (
	Compl UnaryOp = iota
	LNot
	Plus
	Minus
	Err
)

var unaryOpNames = map[UnaryOp]string{
	Compl: "~", LNot: "!", Plus: "+", Minus: "-", Err: "error",
}

func (op UnaryOp) String() string {
	if s, ok := unaryOpNames[op]; ok {
		return s
	}
	return "<bad unop>"
}

// Visibility is the per-field tag controlling manifested output (§3.4).
type Visibility int

const (
	Visible Visibility = iota
	Hidden
	Forced
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Forced:
		return "forced"
	}
	return "unknown"
}

// Argument is one element of a call's argument list: either positional
// (Name == "") or named.
type Argument struct {
	Name  Ident // empty for positional
	Value Expr
}

type Arguments []Argument

// Param is one function parameter, with an optional default.
type Param struct {
	Name    Ident
	Default Expr // nil if required
}

type Params []Param

// IfSpec is a comprehension filter clause.
type IfSpec struct {
	Cond Expr
}

// CompClause is one `for x in e [if c]*` clause of a comprehension.
// A Comp is an ordered, non-empty list of clauses; the first is
// outermost and varies slowest: internal/core/compile folds right over
// this list, nesting each later clause inside the one before it, so
// `[[x, y] for x in xs for y in ys]` yields x0y0, x0y1, ..., x1y0, ...
type CompClause struct {
	Var    Ident
	Source Expr
	Conds  []IfSpec
}

type Comp []CompClause

// Assert is an object-level `assert cond [: msg];` declaration.
type Assert struct {
	Cond Expr
	Msg  Expr // nil if no message given
}

// Bind is one `local name = expr;` binding, shared by ELocal and the
// local declarations nested inside EObj/EObjComp.
type Bind struct {
	Name  Ident
	Value Expr
}

// Field is one object member `key: value`, `key:: value` (hidden) or
// `key::: value` (forced). Key is itself an expression so that
// computed keys `[e]: v` and plain names share one shape; the desugarer
// lowers Key like any other expression and does no folding of its own.
type Field struct {
	Key   Expr
	Value Expr
	Hide  Visibility
}

// ObjCompField is the single field of an object comprehension
// `{ [k]: v for ... }`.
type ObjCompField struct {
	Key   Expr
	Value Expr
	Hide  Visibility
}

// ---------------------------------------------------------------------
// Expression nodes (ExprF variants, §4.1).

type ELit struct {
	exprBase
	Value literal.Literal
}

type EIdent struct {
	exprBase
	Name Ident
}

type EFun struct {
	exprBase
	Params Params
	Body   Expr
}

type EApply struct {
	exprBase
	Fn   Expr
	Args Arguments
}

type ELocal struct {
	exprBase
	Binds []Bind
	Body  Expr
}

type EBinOp struct {
	exprBase
	Op          BinOp
	Left, Right Expr
}

type EUnyOp struct {
	exprBase
	Op   UnaryOp
	Expr Expr
}

// EIfElse is `if c then t else e`.
type EIfElse struct {
	exprBase
	Cond, Then, Else Expr
}

// EIf is `if c then t` with no else branch; the desugarer supplies
// `CLit Null` for the missing branch (§4.2).
type EIf struct {
	exprBase
	Cond, Then Expr
}

type EArr struct {
	exprBase
	Elements []Expr
}

type EObj struct {
	exprBase
	Fields  []Field
	Locals  []Bind
	Asserts []Assert
}

// ELookup is dotted field access `e.f`.
type ELookup struct {
	exprBase
	Target Expr
	Field  Ident
}

// EIndex is computed index/lookup `e[e]`.
type EIndex struct {
	exprBase
	Target Expr
	Index  Expr
}

type EErr struct {
	exprBase
	Expr Expr
}

// EAssert is a standalone `assert cond [: msg]; rest` expression (not
// an object-level assert, which lives in EObj.Asserts).
type EAssert struct {
	exprBase
	Cond, Msg, Rest Expr
}

type ESlice struct {
	exprBase
	Target           Expr
	Start, End, Step Expr // any may be nil
}

type EArrComp struct {
	exprBase
	Body Expr
	Comp Comp
}

type EObjComp struct {
	exprBase
	Field  ObjCompField
	Comp   Comp
	Locals []Bind
}

// IsValidIdent reports whether s could appear as a plain (unquoted)
// Jsonnet identifier.
func IsValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
