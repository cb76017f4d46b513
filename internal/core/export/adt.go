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

// Package export is the manifester (§4.5): it forces a Value graph
// into plain Go data (map[string]interface{}, []interface{}, string,
// bool, nil, Number) suitable for encoding/json or gopkg.in/yaml.v3,
// applying the visibility filter and the lexicographic key sort along
// the way.
package export

import (
	"sort"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/cue/token"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

// Number is a manifested number, kept in its final decimal-rendered
// string form (via literal.FormatNumber) rather than collapsed to
// float64, so JSON and YAML encoders reproduce exactly the
// exact-integer-vs-scientific-notation rule §4.7 specifies — both
// encoding/json and yaml.v3 emit it unquoted through the MarshalJSON
// and MarshalYAML methods in number.go.
type Number string

// Force is the capability Manifest needs from its caller: force a
// thunk to a Value. It is the evaluator's own Engine.Force, passed in
// rather than constructed here so export never imports eval — the
// caller (internal/core/runtime) already holds the Engine that
// produced v.
type Force func(*adt.Thunk) (adt.Value, *adt.Bottom)

// Manifest forces v completely and converts it to plain Go data
// (§4.5, §6's JSON output contract).
func Manifest(force Force, v adt.Value) (interface{}, *adt.Bottom) {
	switch x := v.(type) {
	case adt.VNull:
		return nil, nil
	case adt.VBool:
		return x.B, nil
	case adt.VStr:
		return x.S, nil
	case adt.VNum:
		return Number(literal.FormatNumber(&x.X)), nil
	case adt.VArr:
		out := make([]interface{}, len(x.Elems))
		for i, t := range x.Elems {
			ev, err := force(t)
			if err != nil {
				return nil, err
			}
			mv, err2 := Manifest(force, ev)
			if err2 != nil {
				return nil, err2
			}
			out[i] = mv
		}
		return out, nil
	case *adt.VObj:
		return manifestObj(force, x)
	case *adt.VClos, *adt.VPrim:
		return nil, adt.Errf(token.NoPos, adt.ManifestError, "cannot manifest a function value")
	}
	return nil, adt.Errf(token.NoPos, adt.ManifestError, "cannot manifest value of kind %s", v.Kind())
}

// manifestObj applies the §3.4 visibility filter (Hidden fields are
// dropped; Visible and Forced fields are kept) and the §4.5
// lexicographic key sort. The result is a Go map, which carries no key
// order: the sort fixes the order in which fields are forced (and so
// which error is reported first), and the JSON/YAML encoders order map
// keys themselves.
func manifestObj(force Force, o *adt.VObj) (interface{}, *adt.Bottom) {
	names := make([]string, 0, len(o.Fields))
	for name, f := range o.Fields {
		if f.Vis == ast.Hidden {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		f := o.Fields[name]
		v, err := force(f.Val)
		if err != nil {
			return nil, err
		}
		mv, err2 := Manifest(force, v)
		if err2 != nil {
			return nil, err2
		}
		out[name] = mv
	}
	return out, nil
}

// ToError renders a manifestation Bottom as a cue/errors.Error,
// reusing Bottom's own ToError so a manifestation error renders exactly
// as an evaluation error does: the formatted message alone, with no
// banner and no rendered backtrace.
func ToError(b *adt.Bottom) errors.Error {
	return b.ToError()
}
