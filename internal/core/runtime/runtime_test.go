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

package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/internal/core/runtime"
	"github.com/jsonnet-go/jsonnet/pkg/std"
)

func num(s string) ast.Expr {
	lit, err := literal.Number(s)
	if err != nil {
		panic(err)
	}
	return &ast.ELit{Value: lit}
}

func TestEvaluateEndToEnd(t *testing.T) {
	root := &ast.EObj{Fields: []ast.Field{
		{Key: &ast.ELit{Value: literal.String("sum")}, Value: &ast.EBinOp{Op: ast.Add, Left: num("1"), Right: num("2")}, Hide: ast.Visible},
	}}
	out, err := runtime.Evaluate(std.Value(), &ast.File{Filename: "test", Root: root})
	require.NoError(t, err)
	require.JSONEq(t, `{"sum": 3}`, string(out))
}

func TestEvaluatePropagatesCheckErrors(t *testing.T) {
	root := &ast.EFun{
		Params: ast.Params{{Name: "x"}, {Name: "x"}},
		Body:   &ast.EIdent{Name: "x"},
	}
	_, err := runtime.Evaluate(std.Value(), &ast.File{Filename: "test", Root: root})
	require.Error(t, err)
}

func TestEvaluatePropagatesRuntimeErrors(t *testing.T) {
	root := &ast.EBinOp{Op: ast.Div, Left: num("1"), Right: num("0")}
	_, err := runtime.Evaluate(std.Value(), &ast.File{Filename: "test", Root: root})
	require.Error(t, err)
}

func TestNewRuntimeMethodForm(t *testing.T) {
	r := runtime.New()
	root := num("42")
	out, err := r.Evaluate(std.Value(), &ast.File{Filename: "test", Root: root})
	require.NoError(t, err)
	require.JSONEq(t, `42`, string(out))
}
