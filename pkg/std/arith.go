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
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v2"

	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

var numCtx = apd.BaseContext.WithPrecision(34)

func toFloat64(d *apd.Decimal) (float64, error) {
	return strconv.ParseFloat(d.Text('f'), 64)
}

func numVal(f float64) adt.Value {
	var d apd.Decimal
	d.SetFloat64(f)
	return adt.VNum{X: d}
}

// transcendental builds a one-argument builtin that coerces its
// decimal argument to float64, applies fn, and converts back — §4.2's
// stated rule that transcendental std functions operate on the double
// coercion of the arbitrary-precision decimal, not the decimal itself.
func transcendental(name string, fn func(float64) float64) *internal.Builtin {
	return &internal.Builtin{
		Name:   name,
		Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
		Func: func(c *internal.CallCtxt) {
			n := c.Num(0)
			if !c.Do() {
				return
			}
			f, err := toFloat64(n)
			if err != nil {
				c.Err = c.Errf("%s: %v", name, err)
				return
			}
			c.Ret = numVal(fn(f))
		},
	}
}

func init() {
	arith = []*internal.Builtin{
		transcendental("exp", math.Exp),
		transcendental("log", math.Log),
		transcendental("sqrt", math.Sqrt),
		transcendental("sin", math.Sin),
		transcendental("cos", math.Cos),
		transcendental("tan", math.Tan),
		transcendental("asin", math.Asin),
		transcendental("acos", math.Acos),
		transcendental("atan", math.Atan),
		{
			Name:   "floor",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				f, err := toFloat64(n)
				if err != nil {
					c.Err = c.Errf("floor: %v", err)
					return
				}
				c.Ret = numVal(math.Floor(f))
			},
		},
		{
			Name:   "ceil",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				f, err := toFloat64(n)
				if err != nil {
					c.Err = c.Errf("ceil: %v", err)
					return
				}
				c.Ret = numVal(math.Ceil(f))
			},
		},
		{
			Name:   "abs",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				var r apd.Decimal
				numCtx.Abs(&r, n)
				c.Ret = adt.VNum{X: r}
			},
		},
		{
			Name:   "sign",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				c.Ret = numVal(float64(n.Sign()))
			},
		},
		{
			Name:   "max",
			Params: []internal.Param{{Name: "a", Kind: adt.NumKind}, {Name: "b", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.Num(0), c.Num(1)
				if !c.Do() {
					return
				}
				if a.Cmp(b) >= 0 {
					c.Ret = adt.VNum{X: *a}
				} else {
					c.Ret = adt.VNum{X: *b}
				}
			},
		},
		{
			Name:   "min",
			Params: []internal.Param{{Name: "a", Kind: adt.NumKind}, {Name: "b", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.Num(0), c.Num(1)
				if !c.Do() {
					return
				}
				if a.Cmp(b) <= 0 {
					c.Ret = adt.VNum{X: *a}
				} else {
					c.Ret = adt.VNum{X: *b}
				}
			},
		},
		{
			Name:   "pow",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}, {Name: "n", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.Num(0), c.Num(1)
				if !c.Do() {
					return
				}
				var r apd.Decimal
				if _, err := numCtx.Pow(&r, a, b); err != nil {
					c.Err = c.Errf("pow: %v", err)
					return
				}
				c.Ret = adt.VNum{X: r}
			},
		},
		{
			Name:   "mod",
			Params: []internal.Param{{Name: "a", Kind: adt.NumKind}, {Name: "b", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				a, b := c.Num(0), c.Num(1)
				if !c.Do() {
					return
				}
				if b.Sign() == 0 {
					c.Err = c.Errf("mod: division by zero")
					return
				}
				var r apd.Decimal
				if _, err := numCtx.Rem(&r, a, b); err != nil {
					c.Err = c.Errf("mod: %v", err)
					return
				}
				c.Ret = adt.VNum{X: r}
			},
		},
		{
			Name:   "exponent",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				f, err := toFloat64(n)
				if err != nil {
					c.Err = c.Errf("exponent: %v", err)
					return
				}
				_, exp := math.Frexp(f)
				c.Ret = numVal(float64(exp))
			},
		},
		{
			Name:   "mantissa",
			Params: []internal.Param{{Name: "x", Kind: adt.NumKind}},
			Func: func(c *internal.CallCtxt) {
				n := c.Num(0)
				if !c.Do() {
					return
				}
				f, err := toFloat64(n)
				if err != nil {
					c.Err = c.Errf("mantissa: %v", err)
					return
				}
				frac, _ := math.Frexp(f)
				c.Ret = numVal(frac)
			},
		},
	}
}

var arith []*internal.Builtin
