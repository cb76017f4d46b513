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

	"github.com/stretchr/testify/require"

	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/compile"
)

func TestCheckRejectsDuplicateParams(t *testing.T) {
	core := &adt.CFun{
		Params: []adt.Param{{Name: "x"}, {Name: "x"}},
		Body:   &adt.CVar{Name: "x"},
	}
	err := compile.Check(core)
	require.Error(t, err)
}

func TestCheckRejectsDuplicateBindings(t *testing.T) {
	core := &adt.CLet{
		Binds: []adt.Bind{
			{Name: "a", RHS: &adt.CLit{}},
			{Name: "a", RHS: &adt.CLit{}},
		},
		Body: &adt.CVar{Name: "a"},
	}
	err := compile.Check(core)
	require.Error(t, err)
}

func TestCheckRejectsPositionalAfterNamed(t *testing.T) {
	core := &adt.CApp{
		Fun: &adt.CVar{Name: "f"},
		Args: adt.Args{Items: []adt.Arg{
			{Name: "a", Value: &adt.CLit{}},
			{Value: &adt.CLit{}},
		}},
	}
	err := compile.Check(core)
	require.Error(t, err)
}

func TestCheckAcceptsWellFormedTree(t *testing.T) {
	core := &adt.CLet{
		Binds: []adt.Bind{{Name: "a", RHS: &adt.CLit{}}},
		Body: &adt.CApp{
			Fun:  &adt.CVar{Name: "f"},
			Args: adt.Args{Items: []adt.Arg{{Value: &adt.CVar{Name: "a"}}, {Name: "b", Value: &adt.CVar{Name: "a"}}}},
		},
	}
	require.NoError(t, compile.Check(core))
}

// Violations nested inside a function body or default expression are
// still found, since Check walks every reachable subtree (§4.3).
func TestCheckWalksNestedFunctionBodies(t *testing.T) {
	core := &adt.CFun{
		Params: []adt.Param{{Name: "x"}},
		Body: &adt.CFun{
			Params: []adt.Param{{Name: "y"}, {Name: "y"}},
			Body:   &adt.CVar{Name: "y"},
		},
	}
	require.Error(t, compile.Check(core))
}

// Check reports at most one error per program (§4.3): the first
// violation encountered in pre-order, even when the tree holds more.
func TestCheckReportsOnlyFirstViolation(t *testing.T) {
	core := &adt.CArr{Elems: []adt.Core{
		&adt.CFun{Params: []adt.Param{{Name: "x"}, {Name: "x"}}, Body: &adt.CVar{Name: "x"}},
		&adt.CLet{
			Binds: []adt.Bind{{Name: "a", RHS: &adt.CLit{}}, {Name: "a", RHS: &adt.CLit{}}},
			Body:  &adt.CVar{Name: "a"},
		},
	}}
	err := compile.Check(core)
	require.Error(t, err)
	require.Len(t, errors.Errors(err), 1)

	cerr, ok := err.(*adt.CheckError)
	require.True(t, ok)
	require.Equal(t, adt.DuplicateParam, cerr.Code)
}
