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

// Tests drive std builtins through the same desugar→check→eval→
// manifest pipeline a real program would, rather than calling Go
// functions directly, since a builtin's contract is how it behaves as
// a std.foo(...) call (§4.6).
package std_test

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

func arr(elems ...ast.Expr) ast.Expr { return &ast.EArr{Elements: elems} }

func stdCall(name string, args ...ast.Expr) ast.Expr {
	items := make(ast.Arguments, len(args))
	for i, a := range args {
		items[i] = ast.Argument{Value: a}
	}
	return &ast.EApply{
		Fn:   &ast.ELookup{Target: &ast.EIdent{Name: "std"}, Field: ast.Ident(name)},
		Args: items,
	}
}

func run(t *testing.T, root ast.Expr) interface{} {
	t.Helper()
	f := &ast.File{Filename: "test", Root: root}
	core, errs := compile.File(f)
	require.Nil(t, errs)
	require.NoError(t, compile.Check(core))
	e := eval.New()
	env := adt.RootEnv().Bind1(ast.Ident("std"), adt.Done(std.Value()))
	v, bot := e.Eval(env, core)
	require.Nil(t, bot)
	data, bot2 := export.Manifest(e.Force, v)
	require.Nil(t, bot2)
	return data
}

func TestPredicates(t *testing.T) {
	require.Equal(t, true, run(t, stdCall("isString", str("x"))))
	require.Equal(t, false, run(t, stdCall("isString", num("1"))))
	require.Equal(t, "string", run(t, stdCall("type", str("x"))))
	require.Equal(t, true, run(t, stdCall("equals", arr(num("1"), num("2")), arr(num("1"), num("2")))))
}

func TestArith(t *testing.T) {
	require.Equal(t, export.Number("3"), run(t, stdCall("abs", &ast.EUnyOp{Op: ast.Minus, Expr: num("3")})))
	require.Equal(t, export.Number("5"), run(t, stdCall("max", num("2"), num("5"))))
	require.Equal(t, export.Number("2"), run(t, stdCall("min", num("2"), num("5"))))
	require.Equal(t, export.Number("8"), run(t, stdCall("pow", num("2"), num("3"))))
}

func TestArrayOps(t *testing.T) {
	xs := arr(num("1"), num("2"), num("3"))
	require.Equal(t, export.Number("3"), run(t, stdCall("length", xs)))
	require.Equal(t, true, run(t, stdCall("member", xs, num("2"))))
	require.Equal(t, []interface{}{export.Number("3"), export.Number("2"), export.Number("1")}, run(t, stdCall("reverse", xs)))
}

func TestArrayMapFilterFold(t *testing.T) {
	double := &ast.EFun{Params: ast.Params{{Name: "x"}}, Body: &ast.EBinOp{Op: ast.Mul, Left: &ast.EIdent{Name: "x"}, Right: num("2")}}
	xs := arr(num("1"), num("2"), num("3"))
	require.Equal(t,
		[]interface{}{export.Number("2"), export.Number("4"), export.Number("6")},
		run(t, stdCall("map", double, xs)))

	even := &ast.EFun{Params: ast.Params{{Name: "x"}}, Body: &ast.EBinOp{
		Op: ast.Eq, Left: &ast.EBinOp{Op: ast.Mod, Left: &ast.EIdent{Name: "x"}, Right: num("2")}, Right: num("0"),
	}}
	require.Equal(t, []interface{}{export.Number("2")}, run(t, stdCall("filter", even, xs)))

	add := &ast.EFun{Params: ast.Params{{Name: "acc"}, {Name: "x"}}, Body: &ast.EBinOp{Op: ast.Add, Left: &ast.EIdent{Name: "acc"}, Right: &ast.EIdent{Name: "x"}}}
	require.Equal(t, export.Number("6"), run(t, stdCall("foldl", add, xs, num("0"))))
}

func TestStringOps(t *testing.T) {
	require.Equal(t, true, run(t, stdCall("startsWith", str("hello"), str("he"))))
	require.Equal(t, true, run(t, stdCall("endsWith", str("hello"), str("lo"))))
	require.Equal(t, []interface{}{"a", "b", "c"}, run(t, stdCall("split", str("a,b,c"), str(","))))
	require.Equal(t, "a,b,c", run(t, stdCall("join", str(","), arr(str("a"), str("b"), str("c")))))
	require.Equal(t, export.Number("104"), run(t, stdCall("codepoint", str("h"))))
}

func TestObjectOps(t *testing.T) {
	obj := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: num("2"), Hide: ast.Hidden},
	}}
	require.Equal(t, []interface{}{"a"}, run(t, stdCall("objectFields", obj)))
	require.Equal(t, []interface{}{"a", "b"}, run(t, stdCall("objectFieldsAll", obj)))
	require.Equal(t, true, run(t, stdCall("objectHas", obj, str("a"))))
	require.Equal(t, false, run(t, stdCall("objectHas", obj, str("b"))))
	require.Equal(t, true, run(t, stdCall("objectHasEx", obj, str("b"), &ast.ELit{Value: literal.Bool(true)})))
}

func TestMergePatchDeletesNullFields(t *testing.T) {
	target := &ast.EObj{Fields: []ast.Field{
		{Key: str("a"), Value: num("1"), Hide: ast.Visible},
		{Key: str("b"), Value: num("2"), Hide: ast.Visible},
	}}
	patch := &ast.EObj{Fields: []ast.Field{
		{Key: str("b"), Value: &ast.ELit{Value: literal.Null()}, Hide: ast.Visible},
		{Key: str("c"), Value: num("3"), Hide: ast.Visible},
	}}
	got := run(t, stdCall("mergePatch", target, patch))
	require.Equal(t, map[string]interface{}{"a": export.Number("1"), "c": export.Number("3")}, got)
}

func TestManifestJsonEx(t *testing.T) {
	obj := &ast.EObj{Fields: []ast.Field{{Key: str("a"), Value: num("1"), Hide: ast.Visible}}}
	got := run(t, stdCall("manifestJsonEx", obj, str("  ")))
	require.Equal(t, "{\n  \"a\": 1\n}", got)
}
