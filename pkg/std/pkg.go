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

package std

import (
	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

func init() {
	internal.Register("std", pkg())
}

// pkg assembles every category's builtin table into one Package,
// mirroring pkg/math and pkg/list's own "one file per concern, one
// init() registering the lot" layout.
func pkg() *internal.Package {
	p := &internal.Package{}
	p.Native = append(p.Native, predicates...)
	p.Native = append(p.Native, arith...)
	p.Native = append(p.Native, str...)
	p.Native = append(p.Native, array...)
	p.Native = append(p.Native, object...)
	p.Native = append(p.Native, manifest...)
	return p
}

// Value builds the "std" VObj bound into env₀ (§6): one hidden field
// per registered builtin, so `std.foo` resolves through ordinary
// object-field lookup like any other field access.
func Value() *adt.VObj {
	o := adt.NewObj()
	for _, b := range pkg().Native {
		o.Set(b.Name, ast.Hidden, adt.Done(&adt.VPrim{B: b.ToADT()}))
	}
	return o
}
