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
	"sort"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

func fieldNames(o *adt.VObj, includeHidden bool) []string {
	names := make([]string, 0, len(o.Fields))
	for name, f := range o.Fields {
		if !includeHidden && f.Vis == ast.Hidden {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	object = []*internal.Builtin{
		{
			Name:   "objectFields",
			Params: []internal.Param{{Name: "o", Kind: adt.ObjectKind}},
			Func: func(c *internal.CallCtxt) {
				o := c.Obj(0)
				if !c.Do() {
					return
				}
				c.Ret = stringArr(fieldNames(o, false))
			},
		},
		{
			Name:   "objectFieldsAll",
			Params: []internal.Param{{Name: "o", Kind: adt.ObjectKind}},
			Func: func(c *internal.CallCtxt) {
				o := c.Obj(0)
				if !c.Do() {
					return
				}
				c.Ret = stringArr(fieldNames(o, true))
			},
		},
		{
			Name:   "objectHas",
			Params: []internal.Param{{Name: "o", Kind: adt.ObjectKind}, {Name: "f", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				o := c.Obj(0)
				name := c.String(1)
				if !c.Do() {
					return
				}
				f, ok := o.Fields[name]
				c.Ret = adt.VBool{B: ok && f.Vis != ast.Hidden}
			},
		},
		{
			Name:   "objectHasEx",
			Params: []internal.Param{{Name: "o", Kind: adt.ObjectKind}, {Name: "f", Kind: adt.StringKind}, {Name: "hidden", Kind: adt.BoolKind}},
			Func: func(c *internal.CallCtxt) {
				o := c.Obj(0)
				name := c.String(1)
				hidden := c.Bool(2)
				if !c.Do() {
					return
				}
				f, ok := o.Fields[name]
				c.Ret = adt.VBool{B: ok && (hidden || f.Vis != ast.Hidden)}
			},
		},
		{
			Name:   "objectHasAll",
			Params: []internal.Param{{Name: "o", Kind: adt.ObjectKind}, {Name: "f", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				o := c.Obj(0)
				name := c.String(1)
				if !c.Do() {
					return
				}
				_, ok := o.Fields[name]
				c.Ret = adt.VBool{B: ok}
			},
		},
		{
			Name:   "mergePatch",
			Params: []internal.Param{{Name: "target", Kind: adt.AnyKind}, {Name: "patch", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				target, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				patch, err := c.Force(c.Thunk(1))
				if err != nil {
					c.Err = err
					return
				}
				v, merr := mergePatch(c.Force, target, patch)
				if merr != nil {
					c.Err = merr
					return
				}
				c.Ret = v
			},
		},
	}
}

var object []*internal.Builtin

func stringArr(ss []string) adt.VArr {
	elems := make([]*adt.Thunk, len(ss))
	for i, s := range ss {
		elems[i] = adt.Done(adt.VStr{S: s})
	}
	return adt.VArr{Elems: elems}
}

// mergePatch implements the RFC 7386 merge used by std.mergePatch:
// patch fields with value null delete the corresponding target field;
// patch fields that are themselves objects recurse; everything else
// in patch overwrites target verbatim. This is expressed directly
// over VObj rather than routed through the evaluator's own object
// composition (+), since RFC 7386's null-deletes-key rule has no
// equivalent in §4.4.1's object composition.
func mergePatch(force func(*adt.Thunk) (adt.Value, *adt.Bottom), target, patch adt.Value) (adt.Value, *adt.Bottom) {
	po, ok := patch.(*adt.VObj)
	if !ok {
		return patch, nil
	}
	to, ok := target.(*adt.VObj)
	if !ok {
		to = adt.NewObj()
	}
	out := adt.NewObj()
	for _, name := range to.Order {
		f := to.Fields[name]
		if _, overridden := po.Fields[name]; overridden {
			continue
		}
		out.Set(name, f.Vis, f.Val)
	}
	for _, name := range po.Order {
		pf := po.Fields[name]
		pv, err := force(pf.Val)
		if err != nil {
			return nil, err
		}
		if _, isNull := pv.(adt.VNull); isNull {
			continue
		}
		if tf, ok := to.Fields[name]; ok {
			tv, err2 := force(tf.Val)
			if err2 != nil {
				return nil, err2
			}
			merged, err3 := mergePatch(force, tv, pv)
			if err3 != nil {
				return nil, err3
			}
			out.Set(name, pf.Vis, adt.Done(merged))
			continue
		}
		out.Set(name, pf.Vis, adt.Done(pv))
	}
	return out, nil
}
