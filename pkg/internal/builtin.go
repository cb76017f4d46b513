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

package internal

import "github.com/jsonnet-go/jsonnet/internal/core/adt"

// Param documents one builtin parameter, mirroring adt.BuiltinParam.
type Param struct {
	Name string
	Kind adt.Kind
}

// Builtin is one standard-library primitive before being lowered to an
// adt.Builtin: Func receives a *CallCtxt and reports its result via
// c.Ret/c.Err, exactly as the teacher's pkg/internal.Builtin does,
// rather than returning (Value, *Bottom) directly — this keeps
// argument decoding (c.Int(0), c.String(1), ...) colocated with the
// primitive's own logic instead of being hand-unpacked at every call
// site in ToADT.
type Builtin struct {
	Name   string
	Params []Param
	Func   func(c *CallCtxt)
}

// ToADT lowers b to the adt.Builtin the evaluator actually calls,
// wiring CallCtxt construction and the c.Ret/c.Err result convention
// into the adt.CallContext-shaped closure adt.VPrim expects.
func (b *Builtin) ToADT() *adt.Builtin {
	params := make([]adt.BuiltinParam, len(b.Params))
	for i, p := range b.Params {
		params[i] = adt.BuiltinParam{Name: p.Name, Kind: p.Kind}
	}
	return &adt.Builtin{
		Name:   b.Name,
		Params: params,
		Fn: func(ctx adt.CallContext, args []*adt.Thunk) (adt.Value, *adt.Bottom) {
			c := newCallCtxt(ctx, b.Name, args)
			b.Func(c)
			if c.Err != nil {
				if bot, ok := c.Err.(*adt.Bottom); ok {
					return nil, bot
				}
				return nil, ctx.Errf(adt.StdError, "%v", c.Err)
			}
			if c.Ret == nil {
				return nil, ctx.Errf(adt.StdError, "%s produced no result", b.Name)
			}
			return c.Ret, nil
		},
	}
}

// Package is a named group of builtins, mirroring the teacher's
// pkg/internal.Package (built by hand here rather than by
// go:generate, since there is no Go-reflection source to generate
// from).
type Package struct {
	Native []*Builtin
}

var registry = map[string]*Package{}

// Register records pkg under importPath, mirroring the teacher's
// pkg/internal.Register / pkg/native.Register split. internal/core/
// runtime does not read the registry: the "std" object bound into env₀
// (§6) is built by pkg/std's Value and passed in by the caller.
func Register(importPath string, pkg *Package) {
	registry[importPath] = pkg
}

// Packages returns the full registry.
func Packages() map[string]*Package {
	return registry
}
