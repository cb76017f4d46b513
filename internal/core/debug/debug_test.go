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

package debug_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/debug"
)

func TestNodeStringRendersCoreTree(t *testing.T) {
	lit, err := literal.Number("1")
	require.NoError(t, err)
	core := &adt.CBinOp{
		Op:    ast.Add,
		Left:  &adt.CLit{Value: lit},
		Right: &adt.CVar{Name: "x"},
	}
	got := debug.NodeString(core, nil)
	require.Contains(t, got, "1")
	require.Contains(t, got, "x")
}
