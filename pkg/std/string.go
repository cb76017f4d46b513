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
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/export"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

func strFn1(name string, fn func(s string) string) *internal.Builtin {
	return &internal.Builtin{
		Name:   name,
		Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
		Func: func(c *internal.CallCtxt) {
			s := c.String(0)
			if !c.Do() {
				return
			}
			c.Ret = adt.VStr{S: fn(s)}
		},
	}
}

func init() {
	str = []*internal.Builtin{
		{
			Name:   "toString",
			Params: []internal.Param{{Name: "x", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				if s, ok := v.(adt.VStr); ok {
					c.Ret = s
					return
				}
				mv, merr := export.Manifest(c.Force, v)
				if merr != nil {
					c.Err = merr
					return
				}
				data, jerr := json.Marshal(mv)
				if jerr != nil {
					c.Err = c.Errf("toString: %v", jerr)
					return
				}
				c.Ret = adt.VStr{S: string(data)}
			},
		},
		{
			Name:   "codepoint",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				r, size := utf8.DecodeRuneInString(s)
				if size == 0 || len([]rune(s)) != 1 {
					c.Err = c.Errf("codepoint: argument must be a single-character string")
					return
				}
				c.Ret = numVal(float64(r))
			},
		},
		{
			Name:   "char",
			Params: []internal.Param{{Name: "n", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Int(0)
				if !c.Do() {
					return
				}
				c.Ret = adt.VStr{S: string(rune(n))}
			},
		},
		{
			Name: "substr",
			Params: []internal.Param{
				{Name: "str", Kind: adt.StringKind},
				{Name: "from", Kind: adt.NumKind},
				{Name: "len", Kind: adt.NumKind},
			},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				from := c.Int(1)
				ln := c.Int(2)
				if !c.Do() {
					return
				}
				rs := []rune(s)
				if from < 0 || from > len(rs) {
					c.Err = c.Errf("substr: from out of range")
					return
				}
				end := from + ln
				if end > len(rs) {
					end = len(rs)
				}
				c.Ret = adt.VStr{S: string(rs[from:end])}
			},
		},
		{
			Name:   "startsWith",
			Params: []internal.Param{{Name: "a", Kind: adt.StringKind}, {Name: "b", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				c.Ret = adt.VBool{B: strings.HasPrefix(a, b)}
			},
		},
		{
			Name:   "endsWith",
			Params: []internal.Param{{Name: "a", Kind: adt.StringKind}, {Name: "b", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				c.Ret = adt.VBool{B: strings.HasSuffix(a, b)}
			},
		},
		{
			Name:   "stripChars",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}, {Name: "chars", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s, chars := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				c.Ret = adt.VStr{S: strings.Trim(s, chars)}
			},
		},
		{
			Name:   "lstripChars",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}, {Name: "chars", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s, chars := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				c.Ret = adt.VStr{S: strings.TrimLeft(s, chars)}
			},
		},
		{
			Name:   "rstripChars",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}, {Name: "chars", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s, chars := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				c.Ret = adt.VStr{S: strings.TrimRight(s, chars)}
			},
		},
		{
			Name:   "split",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}, {Name: "sep", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s, sep := c.String(0), c.String(1)
				if !c.Do() {
					return
				}
				parts := strings.Split(s, sep)
				elems := make([]*adt.Thunk, len(parts))
				for i, p := range parts {
					elems[i] = adt.Done(adt.VStr{S: p})
				}
				c.Ret = adt.VArr{Elems: elems}
			},
		},
		{
			Name: "strReplace",
			Params: []internal.Param{
				{Name: "str", Kind: adt.StringKind},
				{Name: "from", Kind: adt.StringKind},
				{Name: "to", Kind: adt.StringKind},
			},
			Func: func(c *internal.CallCtxt) {
				s, from, to := c.String(0), c.String(1), c.String(2)
				if !c.Do() {
					return
				}
				c.Ret = adt.VStr{S: strings.ReplaceAll(s, from, to)}
			},
		},
		strFn1("asciiLower", strings.ToLower),
		strFn1("asciiUpper", strings.ToUpper),
		{
			Name:   "stringChars",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				rs := []rune(s)
				elems := make([]*adt.Thunk, len(rs))
				for i, r := range rs {
					elems[i] = adt.Done(adt.VStr{S: string(r)})
				}
				c.Ret = adt.VArr{Elems: elems}
			},
		},
		{
			Name:   "parseInt",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					c.Err = c.Errf("parseInt: %v", err)
					return
				}
				c.Ret = numVal(float64(n))
			},
		},
		{
			Name:   "parseOctal",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				n, err := strconv.ParseInt(s, 8, 64)
				if err != nil {
					c.Err = c.Errf("parseOctal: %v", err)
					return
				}
				c.Ret = numVal(float64(n))
			},
		},
		{
			Name:   "parseHex",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				n, err := strconv.ParseInt(s, 16, 64)
				if err != nil {
					c.Err = c.Errf("parseHex: %v", err)
					return
				}
				c.Ret = numVal(float64(n))
			},
		},
		{
			Name:   "encodeUTF8",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				s := c.String(0)
				if !c.Do() {
					return
				}
				enc := unicode.UTF8.NewEncoder()
				out, _, err := transform.String(enc, s)
				if err != nil {
					c.Err = c.Errf("encodeUTF8: %v", err)
					return
				}
				bytes := []byte(out)
				elems := make([]*adt.Thunk, len(bytes))
				for i, b := range bytes {
					elems[i] = adt.Done(numVal(float64(b)))
				}
				c.Ret = adt.VArr{Elems: elems}
			},
		},
		{
			Name:   "decodeUTF8",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				bytes := make([]byte, len(elems))
				for i, t := range elems {
					v, err := c.Force(t)
					if err != nil {
						c.Err = err
						return
					}
					n, ok := v.(adt.VNum)
					if !ok {
						c.Err = c.Errf("decodeUTF8: element %d is not a number", i)
						return
					}
					iv, _ := n.X.Int64()
					bytes[i] = byte(iv)
				}
				dec := unicode.UTF8.NewDecoder()
				out, _, err := transform.Bytes(dec, bytes)
				if err != nil {
					c.Err = c.Errf("decodeUTF8: %v", err)
					return
				}
				c.Ret = adt.VStr{S: string(out)}
			},
		},
		{
			Name:   "lines",
			Params: []internal.Param{{Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				elems := c.Arr(0)
				if !c.Do() {
					return
				}
				parts := make([]string, len(elems))
				for i, t := range elems {
					v, err := c.Force(t)
					if err != nil {
						c.Err = err
						return
					}
					s, ok := v.(adt.VStr)
					if !ok {
						c.Err = c.Errf("lines: element %d is not a string", i)
						return
					}
					parts[i] = s.S
				}
				c.Ret = adt.VStr{S: strings.Join(parts, "\n") + "\n"}
			},
		},
		{
			Name:   "join",
			Params: []internal.Param{{Name: "sep", Kind: adt.StringKind}, {Name: "arr", Kind: adt.ArrayKind}},
			Func: func(c *internal.CallCtxt) {
				sep := c.String(0)
				elems := c.Arr(1)
				if !c.Do() {
					return
				}
				parts := make([]string, len(elems))
				for i, t := range elems {
					v, err := c.Force(t)
					if err != nil {
						c.Err = err
						return
					}
					s, ok := v.(adt.VStr)
					if !ok {
						c.Err = c.Errf("join: element %d is not a string", i)
						return
					}
					parts[i] = s.S
				}
				c.Ret = adt.VStr{S: strings.Join(parts, sep)}
			},
		},
		{
			Name:   "format",
			Params: []internal.Param{{Name: "fmt", Kind: adt.StringKind}, {Name: "vals", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				pattern := c.String(0)
				if !c.Do() {
					return
				}
				v, err := c.Force(c.Thunk(1))
				if err != nil {
					c.Err = err
					return
				}
				args, ferr := formatArgs(c, v)
				if ferr != nil {
					c.Err = ferr
					return
				}
				c.Ret = adt.VStr{S: applyFormat(pattern, args)}
			},
		},
	}
}

var str []*internal.Builtin

// formatArgs normalizes std.format's second argument (a single value
// or an array of values) into a flat slice for %-verb substitution.
func formatArgs(c *internal.CallCtxt, v adt.Value) ([]adt.Value, *adt.Bottom) {
	if arr, ok := v.(adt.VArr); ok {
		out := make([]adt.Value, len(arr.Elems))
		for i, t := range arr.Elems {
			ev, err := c.Force(t)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	}
	return []adt.Value{v}, nil
}

// applyFormat implements the numeric/string verb subset of
// std.format/the `%` operator: %s, %d, %f, %%. Width, precision and
// the less common verbs the real stdlib supports are a non-goal here.
func applyFormat(pattern string, args []adt.Value) string {
	var b strings.Builder
	ai := 0
	next := func() adt.Value {
		if ai >= len(args) {
			return adt.VStr{S: ""}
		}
		v := args[ai]
		ai++
		return v
	}
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch != '%' || i == len(pattern)-1 {
			b.WriteByte(ch)
			continue
		}
		i++
		switch pattern[i] {
		case '%':
			b.WriteByte('%')
		case 's':
			v := next()
			if s, ok := v.(adt.VStr); ok {
				b.WriteString(s.S)
			} else if n, ok := v.(adt.VNum); ok {
				b.WriteString(n.X.Text('f'))
			} else {
				b.WriteString(v.Kind().String())
			}
		case 'd':
			v := next()
			if n, ok := v.(adt.VNum); ok {
				iv, _ := n.X.Int64()
				b.WriteString(strconv.FormatInt(iv, 10))
			}
		case 'f':
			v := next()
			if n, ok := v.(adt.VNum); ok {
				f, _ := toFloat64(&n.X)
				b.WriteString(strconv.FormatFloat(f, 'f', 6, 64))
			}
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}
