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

// Package std is the standard library (§4.6): a VObj of hidden
// builtins pre-bound in the initial environment, built from the same
// Builtin{Name, Params, Func} table shape pkg/math and pkg/list use,
// now backed by this module's own adt.Value rather than a cue.Value.
package std

import (
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

func boolFn(name string, pred func(v adt.Value) bool) *internal.Builtin {
	return &internal.Builtin{
		Name:   name,
		Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}},
		Func: func(c *internal.CallCtxt) {
			v := c.Thunk(0)
			val, err := c.Force(v)
			if err != nil {
				c.Err = err
				return
			}
			c.Ret = adt.VBool{B: pred(val)}
		},
	}
}

func init() {
	predicates = []*internal.Builtin{
		boolFn("isString", func(v adt.Value) bool { return v.Kind() == adt.StringKind }),
		boolFn("isBoolean", func(v adt.Value) bool { return v.Kind() == adt.BoolKind }),
		boolFn("isNumber", func(v adt.Value) bool { return v.Kind() == adt.NumKind }),
		boolFn("isObject", func(v adt.Value) bool { return v.Kind() == adt.ObjectKind }),
		boolFn("isArray", func(v adt.Value) bool { return v.Kind() == adt.ArrayKind }),
		boolFn("isFunction", func(v adt.Value) bool { return v.Kind() == adt.FuncKind }),
		{
			Name:   "type",
			Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				c.Ret = adt.VStr{S: v.Kind().String()}
			},
		},
		{
			Name:   "equals",
			Params: []internal.Param{{Name: "a", Kind: adt.AnyKind}, {Name: "b", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				eq, err := c.Equal(c.Thunk(0), c.Thunk(1))
				if err != nil {
					c.Err = err
					return
				}
				c.Ret = adt.VBool{B: eq}
			},
		},
		{
			Name:   "assertEqual",
			Params: []internal.Param{{Name: "a", Kind: adt.AnyKind}, {Name: "b", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				eq, err := c.Equal(c.Thunk(0), c.Thunk(1))
				if err != nil {
					c.Err = err
					return
				}
				if !eq {
					c.Err = c.Errf("assertEqual failed: arguments are not equal")
					return
				}
				c.Ret = adt.VBool{B: true}
			},
		},
	}
}

var predicates []*internal.Builtin
