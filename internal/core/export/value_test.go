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

package export_test

import (
	"testing"

	"github.com/cockroachdb/apd/v2"
	"github.com/stretchr/testify/require"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/eval"
	"github.com/jsonnet-go/jsonnet/internal/core/export"
)

func num(s string) adt.VNum {
	var d apd.Decimal
	_, _, err := d.SetString(s)
	if err != nil {
		panic(err)
	}
	return adt.VNum{X: d}
}

func TestManifestHidesHiddenFields(t *testing.T) {
	e := eval.New()

	obj := adt.NewObj()
	obj.Set("a", ast.Visible, adt.Done(adt.VNum{X: num("1").X}))
	obj.Set("secret", ast.Hidden, adt.Done(adt.VStr{S: "shh"}))
	obj.Set("z", ast.Forced, adt.Done(adt.VBool{B: true}))

	got, err := export.Manifest(e.Force, obj)
	require.Nil(t, err)

	m, ok := got.(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, m, "a")
	require.Contains(t, m, "z")
	require.NotContains(t, m, "secret")
}

func TestManifestArray(t *testing.T) {
	e := eval.New()
	arr := adt.VArr{Elems: []*adt.Thunk{
		adt.Done(num("1")),
		adt.Done(adt.VStr{S: "two"}),
		adt.Done(adt.VNull{}),
	}}

	got, err := export.Manifest(e.Force, arr)
	require.Nil(t, err)
	require.Equal(t, []interface{}{export.Number("1"), "two", nil}, got)
}

func TestManifestFunctionIsError(t *testing.T) {
	e := eval.New()
	fn := &adt.VClos{}

	_, err := export.Manifest(e.Force, fn)
	require.NotNil(t, err)
	require.Equal(t, adt.ManifestError, err.Code)
}
