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

package compile_test

import (
	"testing"

	"github.com/cockroachdb/apd/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/compile"
)

// cmpCore ignores token.Span fields throughout: the desugarer copies
// positions straight from the surface AST, which these hand-built test
// trees don't carry in any meaningful way. Literal numbers are compared
// field by field, since an apd.Decimal's big.Int coefficient has
// unexported fields cmp cannot walk.
var cmpCore = cmp.Options{
	cmp.Comparer(func(a, b apd.Decimal) bool {
		return a.Form == b.Form && a.Negative == b.Negative &&
			a.Exponent == b.Exponent && a.Coeff.Cmp(&b.Coeff) == 0
	}),
	cmpopts.IgnoreFields(adt.CLit{}, "Span"),
	cmpopts.IgnoreFields(adt.CVar{}, "Span"),
	cmpopts.IgnoreFields(adt.CFun{}, "Span"),
	cmpopts.IgnoreFields(adt.CApp{}, "Span"),
	cmpopts.IgnoreFields(adt.CLet{}, "Span"),
	cmpopts.IgnoreFields(adt.CBinOp{}, "Span"),
	cmpopts.IgnoreFields(adt.CIfElse{}, "Span"),
	cmpopts.IgnoreFields(adt.CArr{}, "Span"),
	cmpopts.IgnoreFields(adt.CObj{}, "Span"),
	cmpopts.IgnoreFields(adt.CLookup{}, "Span"),
	cmpopts.IgnoreFields(adt.CErr{}, "Span"),
	cmpopts.IgnoreFields(adt.CComp{}, "Span"),
}

func num(s string) ast.Expr {
	lit, err := literal.Number(s)
	if err != nil {
		panic(err)
	}
	return &ast.ELit{Value: lit}
}

func numCore(s string) *adt.CLit {
	lit, err := literal.Number(s)
	if err != nil {
		panic(err)
	}
	return &adt.CLit{Value: lit}
}

func TestDesugarLiteralsAndIdents(t *testing.T) {
	root := &ast.EBinOp{Op: ast.Add, Left: num("1"), Right: &ast.EIdent{Name: "x"}}
	got, errs := compile.File(&ast.File{Root: root})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := &adt.CBinOp{Op: ast.Add, Left: numCore("1"), Right: &adt.CVar{Name: "x"}}
	if diff := cmp.Diff(want, got, cmpCore); diff != "" {
		t.Errorf("File() mismatch (-want +got):\n%s", diff)
	}
}

// An object literal desugars to `let self = <CObj> in self`, binding
// "$" too when it's the outermost object (§3.8.3 / §4.2).
func TestDesugarObjectBindsSelfAndDollar(t *testing.T) {
	root := &ast.EObj{Fields: []ast.Field{
		{Key: &ast.ELit{Value: literal.String("a")}, Value: num("1"), Hide: ast.Visible},
	}}
	got, errs := compile.File(&ast.File{Root: root})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	let, ok := got.(*adt.CLet)
	if !ok {
		t.Fatalf("got %T, want *adt.CLet", got)
	}
	if len(let.Binds) != 2 {
		t.Fatalf("got %d binds, want 2 (self, $)", len(let.Binds))
	}
	if let.Binds[0].Name != ast.Self || let.Binds[1].Name != ast.Dollar {
		t.Errorf("binds = %v, %v; want self, $", let.Binds[0].Name, let.Binds[1].Name)
	}
	body, ok := let.Body.(*adt.CVar)
	if !ok || body.Name != ast.Self {
		t.Errorf("let body = %#v, want CVar{self}", let.Body)
	}
}

// A nested object doesn't re-bind "$": only the outermost one does.
func TestDesugarNestedObjectDoesNotRebindDollar(t *testing.T) {
	inner := &ast.EObj{Fields: []ast.Field{
		{Key: &ast.ELit{Value: literal.String("b")}, Value: num("2"), Hide: ast.Visible},
	}}
	outer := &ast.EObj{Fields: []ast.Field{
		{Key: &ast.ELit{Value: literal.String("a")}, Value: inner, Hide: ast.Visible},
	}}
	got, errs := compile.File(&ast.File{Root: outer})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	outerLet := got.(*adt.CLet)
	outerObj := outerLet.Binds[0].RHS.(*adt.CObj)
	innerLet := outerObj.Fields[0].Value.(*adt.CLet)
	if len(innerLet.Binds) != 1 {
		t.Errorf("inner object got %d binds, want 1 (self only, no $)", len(innerLet.Binds))
	}
}

// An `e[a:b:c]` slice desugars to a Strict call to std.slice (§4.2),
// since slicing has no primitive core-calculus form of its own.
func TestDesugarSliceCallsStdSlice(t *testing.T) {
	root := &ast.ESlice{Target: &ast.EIdent{Name: "xs"}, Start: num("1"), End: num("3")}
	got, errs := compile.File(&ast.File{Root: root})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	app, ok := got.(*adt.CApp)
	if !ok {
		t.Fatalf("got %T, want *adt.CApp", got)
	}
	if app.Args.Strictness != adt.Strict {
		t.Errorf("slice call strictness = %v, want Strict", app.Args.Strictness)
	}
	lookup, ok := app.Fun.(*adt.CLookup)
	if !ok {
		t.Fatalf("app.Fun = %T, want *adt.CLookup", app.Fun)
	}
	key := lookup.Key.(*adt.CLit)
	if key.Value.Str != "slice" {
		t.Errorf("lookup key = %v, want %q", key.Value, "slice")
	}
}

// [x for x in xs if cond] right-folds into one CComp wrapping a
// one-element CArr body (§4.2).
func TestDesugarArrayComprehension(t *testing.T) {
	root := &ast.EArrComp{
		Body: &ast.EIdent{Name: "x"},
		Comp: ast.Comp{{
			Var:    "x",
			Source: &ast.EIdent{Name: "xs"},
			Conds:  []ast.IfSpec{{Cond: &ast.EIdent{Name: "cond"}}},
		}},
	}
	got, errs := compile.File(&ast.File{Root: root})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	comp, ok := got.(*adt.CComp)
	if !ok {
		t.Fatalf("got %T, want *adt.CComp", got)
	}
	if comp.Kind != adt.CompArr {
		t.Errorf("comp.Kind = %v, want CompArr", comp.Kind)
	}
	if comp.Var != "x" {
		t.Errorf("comp.Var = %v, want x", comp.Var)
	}
	body, ok := comp.Body.(*adt.CArr)
	if !ok || len(body.Elems) != 1 {
		t.Fatalf("comp.Body = %#v, want one-element CArr", comp.Body)
	}
}

// An `error e` expression is ordinary desugarable syntax: it lowers to
// a CErr raised only at evaluation time, so File reports no desugar
// error for it.
func TestDesugarErrorExprIsNotADesugarError(t *testing.T) {
	bad := &ast.EErr{Expr: &ast.EIdent{Name: "boom"}}
	root := &ast.EArr{Elements: []ast.Expr{num("1"), bad}}
	_, errs := compile.File(&ast.File{Root: root})
	if errs != nil {
		t.Fatalf("unexpected errors from a structurally valid tree: %v", errs)
	}
}
