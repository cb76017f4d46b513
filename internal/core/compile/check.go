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

package compile

import (
	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

// Check runs the static checker (§4.3) over a desugared Core tree,
// rejecting programs that could never evaluate correctly regardless
// of runtime values: duplicate parameter names, duplicate bindings in
// one recursive let, and positional arguments following named ones.
// It walks the tree pre-order and reports at most one error — the
// first violation encountered — matching §4.3's contract exactly;
// everything stops as soon as chk.errs is set.
func Check(c adt.Core) errors.Error {
	var chk checker
	chk.walk(c)
	return chk.errs
}

type checker struct {
	errs errors.Error
}

// found reports whether a violation has already been reported, so
// every walk/check step can bail out immediately instead of looking
// for more.
func (c *checker) found() bool { return c.errs != nil }

func (c *checker) report(e *adt.CheckError) {
	if c.errs == nil {
		c.errs = e
	}
}

func (c *checker) walk(n adt.Core) {
	if n == nil || c.found() {
		return
	}
	switch x := n.(type) {
	case *adt.CLoc:
		c.walk(x.X)

	case *adt.CLit:
		// no subtrees

	case *adt.CVar:
		// no subtrees

	case *adt.CFun:
		c.checkParams(x.Params)
		for _, p := range x.Params {
			if c.found() {
				return
			}
			c.walk(p.Default)
		}
		c.walk(x.Body)

	case *adt.CApp:
		c.walk(x.Fun)
		if c.found() {
			return
		}
		c.checkArgOrder(x.Args)
		for _, a := range x.Args.Items {
			if c.found() {
				return
			}
			c.walk(a.Value)
		}

	case *adt.CLet:
		c.checkBinds(x.Binds)
		for _, b := range x.Binds {
			if c.found() {
				return
			}
			c.walk(b.RHS)
		}
		c.walk(x.Body)

	case *adt.CBinOp:
		c.walk(x.Left)
		c.walk(x.Right)

	case *adt.CUnyOp:
		c.walk(x.X)

	case *adt.CIfElse:
		c.walk(x.Cond)
		if c.found() {
			return
		}
		c.walk(x.Then)
		if c.found() {
			return
		}
		c.walk(x.Else)

	case *adt.CArr:
		for _, e := range x.Elems {
			if c.found() {
				return
			}
			c.walk(e)
		}

	case *adt.CObj:
		for _, f := range x.Fields {
			if c.found() {
				return
			}
			c.walk(f.Key)
			if c.found() {
				return
			}
			c.walk(f.Value)
		}

	case *adt.CLookup:
		c.walk(x.Container)
		if c.found() {
			return
		}
		c.walk(x.Key)

	case *adt.CErr:
		c.walk(x.Msg)

	case *adt.CComp:
		c.walk(x.Source)
		if c.found() {
			return
		}
		c.walk(x.IfCond)
		if c.found() {
			return
		}
		c.walk(x.Body)
		if c.found() {
			return
		}
		c.walk(x.Field.Key)
		if c.found() {
			return
		}
		c.walk(x.Field.Value)
	}
}

// checkParams rejects a CFun with two parameters of the same name:
// both could never be bound independently, so every call would be
// ambiguous about which default applies. Stops at the first duplicate.
func (c *checker) checkParams(params []adt.Param) {
	seen := map[string]bool{}
	for _, p := range params {
		name := string(p.Name)
		if seen[name] {
			c.report(&adt.CheckError{Code: adt.DuplicateParam, Name: name})
			return
		}
		seen[name] = true
	}
}

// checkBinds rejects a CLet with two bindings of the same name, for
// the same reason as checkParams: our Env frame is a single map per
// CLet, so a duplicate name would silently shadow one binding with no
// way for the source program to have intended that. Stops at the
// first duplicate.
func (c *checker) checkBinds(binds []adt.Bind) {
	seen := map[string]bool{}
	for _, b := range binds {
		name := string(b.Name)
		if seen[name] {
			c.report(&adt.CheckError{Code: adt.DuplicateBinding, Name: name})
			return
		}
		seen[name] = true
	}
}

// checkArgOrder rejects a positional argument following a named one,
// since argument binding (§4.4's CApp rule) binds named arguments by
// name and fills the remaining parameters with the positional ones
// left-to-right, which reads ambiguously once named arguments appear
// earlier in the list. Stops at the first offending argument.
func (c *checker) checkArgOrder(args adt.Args) {
	seenNamed := false
	for _, a := range args.Items {
		if a.Name == "" {
			if seenNamed {
				c.report(&adt.CheckError{Code: adt.PosAfterNamedParam})
				return
			}
			continue
		}
		seenNamed = true
	}
}
