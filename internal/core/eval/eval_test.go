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

// Tests exercise the desugar→check→eval→manifest pipeline directly,
// building surface ASTs by hand: the parser is out of scope for this
// module (spec §0), so there is no source text to feed a lexer here.
package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/compile"
	"github.com/jsonnet-go/jsonnet/internal/core/eval"
	"github.com/jsonnet-go/jsonnet/internal/core/export"
	"github.com/jsonnet-go/jsonnet/pkg/std"
)

func num(s string) ast.Expr {
	lit, err := literal.Number(s)
	if err != nil {
		panic(err)
	}
	return &ast.ELit{Value: lit}
}

func str(s string) ast.Expr { return &ast.ELit{Value: literal.String(s)} }
func boolean(b bool) ast.Expr { return &ast.ELit{Value: literal.Bool(b)} }
func ident(name string) ast.Expr { return &ast.EIdent{Name: ast.Ident(name)} }

// run desugars, checks and evaluates root with std bound as env₀'s
// sole entry, then manifests the result to plain Go data.
func run(t *testing.T, root ast.Expr) (interface{}, error) {
	t.Helper()
	f := &ast.File{Filename: "test", Root: root}
	core, errs := compile.File(f)
	require.Nil(t, errs)
	if errs := compile.Check(core); errs != nil {
		return nil, errs
	}
	e := eval.New()
	env := adt.RootEnv().Bind1(ast.Ident("std"), adt.Done(std.Value()))
	v, bot := e.Eval(env, core)
	if bot != nil {
		return nil, bot.ToError()
	}
	data, bot2 := export.Manifest(e.Force, v)
	if bot2 != nil {
		return nil, bot2.ToError()
	}
	return data, nil
}

func TestArithmetic(t *testing.T) {
	// 2 + 3 * 4
	root := &ast.EBinOp{
		Op:   ast.Add,
		Left: num("2"),
		Right: &ast.EBinOp{
			Op:    ast.Mul,
			Left:  num("3"),
			Right: num("4"),
		},
	}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, export.Number("14"), got)
}

func TestDivByZero(t *testing.T) {
	root := &ast.EBinOp{Op: ast.Div, Left: num("1"), Right: num("0")}
	_, err := run(t, root)
	require.Error(t, err)
}

func TestIfElse(t *testing.T) {
	root := &ast.EIfElse{Cond: boolean(true), Then: str("yes"), Else: str("no")}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, "yes", got)
}

func TestArrayComprehension(t *testing.T) {
	// [x*2 for x in [1,2,3] if x>1]
	root := &ast.EArrComp{
		Body: &ast.EBinOp{Op: ast.Mul, Left: ident("x"), Right: num("2")},
		Comp: ast.Comp{{
			Var:    "x",
			Source: &ast.EArr{Elements: []ast.Expr{num("1"), num("2"), num("3")}},
			Conds:  []ast.IfSpec{{Cond: &ast.EBinOp{Op: ast.Gt, Left: ident("x"), Right: num("1")}}},
		}},
	}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, []interface{}{export.Number("4"), export.Number("6")}, got)
}

func TestObjectSelfAndHidden(t *testing.T) {
	// { a: 1, b:: self.a + 1 } manifests to {"a": 1}
	root := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: &ast.EBinOp{Op: ast.Add, Left: &ast.ELookup{Target: ident("self"), Field: "a"}, Right: num("1")}, Hide: ast.Hidden},
	}}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"a": export.Number("1")}, got)
}

func TestObjectComposition(t *testing.T) {
	// {a: 1, b: 2} + {b: 3, c: 4} == {a:1, b:3, c:4}
	left := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: num("2"), Hide: ast.Visible},
	}}
	right := &ast.EObj{Fields: []ast.Field{
		{Key: str("b"), Value: num("3"), Hide: ast.Visible},
		{Key: str("c"), Value: num("4"), Hide: ast.Visible},
	}}
	root := &ast.EBinOp{Op: ast.Add, Left: left, Right: right}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"a": export.Number("1"), "b": export.Number("3"), "c": export.Number("4"),
	}, got)
}

func TestObjectCompositionLateBoundSelf(t *testing.T) {
	// {a: 1, b: self.a} + {a: 2} => b sees the composite's a, i.e. 2.
	left := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: &ast.ELookup{Target: ident("self"), Field: "a"}, Hide: ast.Visible},
	}}
	right := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("2"), Hide: ast.Visible},
	}}
	root := &ast.EBinOp{Op: ast.Add, Left: left, Right: right}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"a": export.Number("2"), "b": export.Number("2"),
	}, got)
}

func TestLazinessSkipsUnusedError(t *testing.T) {
	// { a: 1, b: 1/0 } requesting only .a never forces b.
	obj := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: &ast.EBinOp{Op: ast.Div, Left: num("1"), Right: num("0")}, Hide: ast.Visible},
	}}
	root := &ast.ELookup{Target: obj, Field: "a"}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, export.Number("1"), got)
}

func TestEqualityIgnoresHiddenFields(t *testing.T) {
	// {a:1, b::2} == {a:1} is true: hidden fields do not participate
	// in ==, the same visibility filter manifestation applies (§4.4).
	left := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: num("2"), Hide: ast.Hidden},
	}}
	right := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
	}}
	root := &ast.EBinOp{Op: ast.Eq, Left: left, Right: right}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, true, got)
}

func TestLocalRecursion(t *testing.T) {
	// local fact(n) = if n <= 1 then 1 else n * fact(n-1); fact(5)
	fact := ast.Ident("fact")
	n := ast.Ident("n")
	body := &ast.EIfElse{
		Cond: &ast.EBinOp{Op: ast.Le, Left: &ast.EIdent{Name: n}, Right: num("1")},
		Then: num("1"),
		Else: &ast.EBinOp{
			Op:   ast.Mul,
			Left: &ast.EIdent{Name: n},
			Right: &ast.EApply{
				Fn:   &ast.EIdent{Name: fact},
				Args: ast.Arguments{{Value: &ast.EBinOp{Op: ast.Sub, Left: &ast.EIdent{Name: n}, Right: num("1")}}},
			},
		},
	}
	root := &ast.ELocal{
		Binds: []ast.Bind{{Name: fact, Value: &ast.EFun{Params: ast.Params{{Name: n}}, Body: body}}},
		Body:  &ast.EApply{Fn: &ast.EIdent{Name: fact}, Args: ast.Arguments{{Value: num("5")}}},
	}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, export.Number("120"), got)
}

func TestStdArithmetic(t *testing.T) {
	// std.abs(-3) == 3
	root := &ast.EApply{
		Fn:   &ast.ELookup{Target: ident("std"), Field: "abs"},
		Args: ast.Arguments{{Value: &ast.EUnyOp{Op: ast.Minus, Expr: num("3")}}},
	}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, export.Number("3"), got)
}

func TestStdMap(t *testing.T) {
	// std.map(function(x) x*2, [1,2,3])
	double := &ast.EFun{
		Params: ast.Params{{Name: "x"}},
		Body:   &ast.EBinOp{Op: ast.Mul, Left: ident("x"), Right: num("2")},
	}
	root := &ast.EApply{
		Fn: &ast.ELookup{Target: ident("std"), Field: "map"},
		Args: ast.Arguments{
			{Value: double},
			{Value: &ast.EArr{Elements: []ast.Expr{num("1"), num("2"), num("3")}}},
		},
	}
	got, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, []interface{}{export.Number("2"), export.Number("4"), export.Number("6")}, got)
}

func TestDuplicateParamRejectedByChecker(t *testing.T) {
	root := &ast.EFun{
		Params: ast.Params{{Name: "x"}, {Name: "x"}},
		Body:   ident("x"),
	}
	_, err := run(t, root)
	require.Error(t, err)
}

func TestDeterministicManifest(t *testing.T) {
	root := &ast.EObj{Fields: []ast.Field{
		{Key: str("z"), Value: num("1"), Hide: ast.Visible},
		{Key: str("a"), Value: num("2"), Hide: ast.Visible},
		{Key: str("m"), Value: num("3"), Hide: ast.Visible},
	}}
	for i := 0; i < 5; i++ {
		got, err := run(t, root)
		require.NoError(t, err)
		require.Equal(t, map[string]interface{}{
			"z": export.Number("1"), "a": export.Number("2"), "m": export.Number("3"),
		}, got)
	}
}
