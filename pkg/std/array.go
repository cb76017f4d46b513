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

	"github.com/mpvl/unique"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

// compareValues orders two already-forced scalar values: numbers by
// decimal comparison, strings lexicographically. It is the ordering
// std.sort/std.uniq/the std.set family use for their default (identity)
// keyF, grounded on the same "numbers and strings are orderable,
// everything else is not" rule §4.4's compareOp uses for < and friends.
func compareValues(a, b adt.Value) int {
	switch av := a.(type) {
	case adt.VNum:
		return av.X.Cmp(&b.(adt.VNum).X)
	case adt.VStr:
		bs := b.(adt.VStr).S
		switch {
		case av.S < bs:
			return -1
		case av.S > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

// keyedSlice sorts (and, via mpvl/unique, dedups) a slice of forced
// Values by a precomputed key, implementing both sort.Interface and
// unique.Interface's extra Compare method.
type keyedSlice struct {
	vals []adt.Value // original values, reordered alongside keys
	keys []adt.Value
}

func (s *keyedSlice) Len() int      { return len(s.keys) }
func (s *keyedSlice) Swap(i, j int) { s.keys[i], s.keys[j] = s.keys[j], s.keys[i]; s.vals[i], s.vals[j] = s.vals[j], s.vals[i] }
func (s *keyedSlice) Less(i, j int) bool { return compareValues(s.keys[i], s.keys[j]) < 0 }
func (s *keyedSlice) Compare(i, j int) int {
	return compareValues(s.keys[i], s.keys[j])
}

// forceAll forces every element of arr and, if keyFn is non-nil, also
// computes each element's sort key by applying keyFn.
func forceAll(c *internal.CallCtxt, arr []*adt.Thunk, keyFn adt.Value) ([]adt.Value, []adt.Value, *adt.Bottom) {
	vals := make([]adt.Value, len(arr))
	keys := make([]adt.Value, len(arr))
	for i, t := range arr {
		v, err := c.Force(t)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = v
		if keyFn == nil {
			keys[i] = v
			continue
		}
		kv := c.Call(keyFn, t)
		if !c.Do() {
			return nil, nil, nil
		}
		keys[i] = kv
	}
	return vals, keys, nil
}

func valsToArr(vals []adt.Value) adt.VArr {
	elems := make([]*adt.Thunk, len(vals))
	for i, v := range vals {
		elems[i] = adt.Done(v)
	}
	return adt.VArr{Elems: elems}
}

func init() {
	array = []*internal.Builtin{
		{
			Name:   "length",
			Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				switch x := v.(type) {
				case adt.VStr:
					c.Ret = numVal(float64(len([]rune(x.S))))
				case adt.VArr:
					c.Ret = numVal(float64(len(x.Elems)))
				case *adt.VObj:
					n := 0
					for _, f := range x.Fields {
						if f.Vis != ast.Hidden {
							n++
						}
					}
					c.Ret = numVal(float64(n))
				default:
					c.Err = c.Errf("length: unsupported argument kind %s", v.Kind())
				}
			},
		},
		{
			Name:   "makeArray",
			Params: []internal.Param{{Name: "n", Kind: adt.NumKind}, {Name: "func", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Int(0)
				fn := c.Func(1)
				if !c.Do() {
					return
				}
				elems := make([]*adt.Thunk, n)
				for i := 0; i < n; i++ {
					v := c.Call(fn, adt.Done(numVal(float64(i))))
					if !c.Do() {
						return
					}
					elems[i] = adt.Done(v)
				}
				c.Ret = adt.VArr{Elems: elems}
			},
		},
		{
			Name:   "member",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}, {Name: "x", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				for _, t := range elems {
					eq, err := c.Equal(t, c.Thunk(1))
					if err != nil {
						c.Err = err
						return
					}
					if eq {
						c.Ret = adt.VBool{B: true}
						return
					}
				}
				c.Ret = adt.VBool{B: false}
			},
		},
		{
			Name:   "count",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}, {Name: "x", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				n := 0
				for _, t := range elems {
					eq, err := c.Equal(t, c.Thunk(1))
					if err != nil {
						c.Err = err
						return
					}
					if eq {
						n++
					}
				}
				c.Ret = numVal(float64(n))
			},
		},
		{
			Name:   "find",
			Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				var idx []*adt.Thunk
				for i, t := range elems {
					eq, err := c.Equal(t, c.Thunk(0))
					if err != nil {
						c.Err = err
						return
					}
					if eq {
						idx = append(idx, adt.Done(numVal(float64(i))))
					}
				}
				c.Ret = adt.VArr{Elems: idx}
			},
		},
		{
			Name:   "map",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				out := make([]*adt.Thunk, len(elems))
				for i, t := range elems {
					v := c.Call(fn, t)
					if !c.Do() {
						return
					}
					out[i] = adt.Done(v)
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "mapWithIndex",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				out := make([]*adt.Thunk, len(elems))
				for i, t := range elems {
					v := c.Call(fn, adt.Done(numVal(float64(i))), t)
					if !c.Do() {
						return
					}
					out[i] = adt.Done(v)
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "filterMap",
			Params: []internal.Param{{Name: "filterFunc", Kind: adt.AnyKind}, {Name: "mapFunc", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				ffn, mfn := c.Func(0), c.Func(1)
				elems := c.Arr(2)
				if !c.Do() {
					return
				}
				var out []*adt.Thunk
				for _, t := range elems {
					keep := c.Call(ffn, t)
					if !c.Do() {
						return
					}
					kb, ok := keep.(adt.VBool)
					if !ok {
						c.Err = c.Errf("filterMap: filter function must return a boolean")
						return
					}
					if !kb.B {
						continue
					}
					v := c.Call(mfn, t)
					if !c.Do() {
						return
					}
					out = append(out, adt.Done(v))
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "flatMap",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				var out []*adt.Thunk
				for _, t := range elems {
					v := c.Call(fn, t)
					if !c.Do() {
						return
					}
					sub, ok := v.(adt.VArr)
					if !ok {
						c.Err = c.Errf("flatMap: function must return an array")
						return
					}
					out = append(out, sub.Elems...)
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "filter",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				var out []*adt.Thunk
				for _, t := range elems {
					keep := c.Call(fn, t)
					if !c.Do() {
						return
					}
					kb, ok := keep.(adt.VBool)
					if !ok {
						c.Err = c.Errf("filter: function must return a boolean")
						return
					}
					if kb.B {
						out = append(out, t)
					}
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "foldl",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}, {Name: "init", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				acc := c.Thunk(2)
				for _, t := range elems {
					v := c.Call(fn, acc, t)
					if !c.Do() {
						return
					}
					acc = adt.Done(v)
				}
				av, err := c.Force(acc)
				if err != nil {
					c.Err = err
					return
				}
				c.Ret = av
			},
		},
		{
			Name:   "foldr",
			Params: []internal.Param{{Name: "func", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}, {Name: "init", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				fn := c.Func(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				acc := c.Thunk(2)
				for i := len(elems) - 1; i >= 0; i-- {
					v := c.Call(fn, elems[i], acc)
					if !c.Do() {
						return
					}
					acc = adt.Done(v)
				}
				av, err := c.Force(acc)
				if err != nil {
					c.Err = err
					return
				}
				c.Ret = av
			},
		},
		{
			Name:   "range",
			Params: []internal.Param{{Name: "from", Kind: adt.NumKind}, {Name: "to", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				from, to := c.Int(0), c.Int(1)
				if !c.Do() {
					return
				}
				var elems []*adt.Thunk
				for i := from; i <= to; i++ {
					elems = append(elems, adt.Done(numVal(float64(i))))
				}
				c.Ret = adt.VArr{Elems: elems}
			},
		},
		{
			Name:   "repeat",
			Params: []internal.Param{{Name: "what", Kind: adt.AnyKind}, {Name: "count", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				what, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				n := c.Int(1)
				if !c.Do() {
					return
				}
				switch w := what.(type) {
				case adt.VArr:
					var out []*adt.Thunk
					for i := 0; i < n; i++ {
						out = append(out, w.Elems...)
					}
					c.Ret = adt.VArr{Elems: out}
				case adt.VStr:
					s := ""
					for i := 0; i < n; i++ {
						s += w.S
					}
					c.Ret = adt.VStr{S: s}
				default:
					c.Err = c.Errf("repeat: argument must be an array or string")
				}
			},
		},
		{
			Name:   "reverse",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				out := make([]*adt.Thunk, len(elems))
				for i, t := range elems {
					out[len(elems)-1-i] = t
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "slice",
			Params: []internal.Param{{Name: "indexable", Kind: adt.AnyKind}, {Name: "start", Kind: adt.AnyKind}, {Name: "end", Kind: adt.AnyKind}, {Name: "step", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				start := optInt(c, 1, 0)
				step := optInt(c, 3, 1)
				if !c.Do() {
					return
				}
				if step <= 0 {
					step = 1
				}
				switch x := v.(type) {
				case adt.VArr:
					end := optInt(c, 2, len(x.Elems))
					if !c.Do() {
						return
					}
					if end > len(x.Elems) {
						end = len(x.Elems)
					}
					var out []*adt.Thunk
					for i := start; i < end; i += step {
						out = append(out, x.Elems[i])
					}
					c.Ret = adt.VArr{Elems: out}
				case adt.VStr:
					rs := []rune(x.S)
					end := optInt(c, 2, len(rs))
					if !c.Do() {
						return
					}
					if end > len(rs) {
						end = len(rs)
					}
					var out []rune
					for i := start; i < end; i += step {
						out = append(out, rs[i])
					}
					c.Ret = adt.VStr{S: string(out)}
				default:
					c.Err = c.Errf("slice: argument must be an array or string")
				}
			},
		},
		{
			Name:   "flattenArrays",
			Params: []internal.Param{{Name: "arrs", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				var out []*adt.Thunk
				for i, t := range elems {
					v, err := c.Force(t)
					if err != nil {
						c.Err = err
						return
					}
					sub, ok := v.(adt.VArr)
					if !ok {
						c.Err = c.Errf("flattenArrays: element %d is not an array", i)
						return
					}
					out = append(out, sub.Elems...)
				}
				c.Ret = adt.VArr{Elems: out}
			},
		},
		{
			Name:   "sort",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}, {Name: "keyF", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				keyFn := optFunc(c, 1)
				if !c.Do() {
					return
				}
				vals, keys, err := forceAll(c, elems, keyFn)
				if err != nil {
					c.Err = err
					return
				}
				if !c.Do() {
					return
				}
				s := &keyedSlice{vals: vals, keys: keys}
				sort.Stable(s)
				c.Ret = valsToArr(s.vals)
			},
		},
		{
			Name:   "uniq",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}, {Name: "keyF", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				keyFn := optFunc(c, 1)
				if !c.Do() {
					return
				}
				vals, keys, err := forceAll(c, elems, keyFn)
				if err != nil {
					c.Err = err
					return
				}
				if !c.Do() {
					return
				}
				var out []adt.Value
				for i, v := range vals {
					if i > 0 && compareValues(keys[i-1], keys[i]) == 0 {
						continue
					}
					out = append(out, v)
				}
				c.Ret = valsToArr(out)
			},
		},
		{
			Name:   "set",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}, {Name: "keyF", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				keyFn := optFunc(c, 1)
				if !c.Do() {
					return
				}
				vals, keys, err := forceAll(c, elems, keyFn)
				if err != nil {
					c.Err = err
					return
				}
				if !c.Do() {
					return
				}
				s := &keyedSlice{vals: vals, keys: keys}
				n := unique.Sort(s)
				c.Ret = valsToArr(s.vals[:n])
			},
		},
		{
			Name:   "setUnion",
			Params: []internal.Param{{Name: "a", Kind: adt.ArrayKind}, {Name: "b", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.Arr(0), c.Arr(1)
				if !c.Do() {
					return
				}
				combined := append(append([]*adt.Thunk{}, a...), b...)
				vals, keys, err := forceAll(c, combined, nil)
				if err != nil {
					c.Err = err
					return
				}
				s := &keyedSlice{vals: vals, keys: keys}
				n := unique.Sort(s)
				c.Ret = valsToArr(s.vals[:n])
			},
		},
		{
			Name:   "setInter",
			Params: []internal.Param{{Name: "a", Kind: adt.ArrayKind}, {Name: "b", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				setInterDiff(c, true)
			},
		},
		{
			Name:   "setDiff",
			Params: []internal.Param{{Name: "a", Kind: adt.ArrayKind}, {Name: "b", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				setInterDiff(c, false)
			},
		},
		{
			Name:   "setMember",
			Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				x, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				for _, t := range elems {
					v, err := c.Force(t)
					if err != nil {
						c.Err = err
						return
					}
					if v.Kind() == x.Kind() && compareValues(v, x) == 0 {
						c.Ret = adt.VBool{B: true}
						return
					}
				}
				c.Ret = adt.VBool{B: false}
			},
		},
	}
}

var array []*internal.Builtin

func optInt(c *internal.CallCtxt, i, dflt int) int {
	v, err := c.Force(c.Thunk(i))
	if err != nil {
		c.Err = err
		return dflt
	}
	if _, ok := v.(adt.VNull); ok {
		return dflt
	}
	n, ok := v.(adt.VNum)
	if !ok {
		c.Err = c.Errf("argument %d must be a number or null", i)
		return dflt
	}
	iv, _ := n.X.Int64()
	return int(iv)
}

func optFunc(c *internal.CallCtxt, i int) adt.Value {
	if i >= c.NumArgs() {
		return nil
	}
	v, err := c.Force(c.Thunk(i))
	if err != nil {
		c.Err = err
		return nil
	}
	if _, ok := v.(adt.VNull); ok {
		return nil
	}
	if v.Kind() != adt.FuncKind {
		c.Err = c.Errf("argument %d must be a function or null", i)
		return nil
	}
	return v
}

// setInterDiff implements setInter (keep=true) and setDiff (keep=false)
// by sorting+deduping each operand (via mpvl/unique) and then merging.
func setInterDiff(c *internal.CallCtxt, keep bool) {
	a, b := c.Arr(0), c.Arr(1)
	if !c.Do() {
		return
	}
	av, ak, err := forceAll(c, a, nil)
	if err != nil {
		c.Err = err
		return
	}
	bv, bk, err := forceAll(c, b, nil)
	if err != nil {
		c.Err = err
		return
	}
	sa := &keyedSlice{vals: av, keys: ak}
	na := unique.Sort(sa)
	sb := &keyedSlice{vals: bv, keys: bk}
	nb := unique.Sort(sb)

	var out []adt.Value
	i, j := 0, 0
	for i < na && j < nb {
		cmp := compareValues(sa.keys[i], sb.keys[j])
		switch {
		case cmp < 0:
			if !keep {
				out = append(out, sa.vals[i])
			}
			i++
		case cmp > 0:
			j++
		default:
			if keep {
				out = append(out, sa.vals[i])
			}
			i++
			j++
		}
	}
	if !keep {
		for ; i < na; i++ {
			out = append(out, sa.vals[i])
		}
	}
	c.Ret = valsToArr(out)
}
