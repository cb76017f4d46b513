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

// Package debug prints a Core tree (internal/core/adt) or a forced
// Value graph in human-readable form, for use in test failures and
// ad-hoc inspection. The result is not valid Jsonnet; it is an
// indented dump of the internal node shapes, mirroring the teacher's
// own debug package, which does the same for its Vertex graph instead
// of a Core tree.
package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/literal"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
)

// Config controls WriteNode's output. Compact suppresses indentation,
// for one-line dumps in table-driven test failure messages.
type Config struct {
	Compact bool
}

// WriteNode writes a human-readable dump of n to w.
func WriteNode(w io.Writer, n interface{}, config *Config) {
	if config == nil {
		config = &Config{}
	}
	p := &printer{w: w, compact: config.Compact}
	p.any(n)
}

// NodeString is WriteNode rendered to a string, for use directly in
// test assertions and error messages.
func NodeString(n interface{}, config *Config) string {
	b := &strings.Builder{}
	WriteNode(b, n, config)
	return b.String()
}

type printer struct {
	w       io.Writer
	indent  string
	compact bool
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) newline() {
	if p.compact {
		io.WriteString(p.w, " ")
		return
	}
	io.WriteString(p.w, "\n"+p.indent)
}

func (p *printer) nested(f func()) {
	save := p.indent
	p.indent += "  "
	f()
	p.indent = save
}

// any dumps a Core node, a Value, or any other node reachable from
// either (Field, Bind, Arg, Param): the desugarer, checker and
// evaluator stages all produce trees built from the same adt package,
// so one recursive descent covers Core trees pre- and post-evaluation
// alike.
func (p *printer) any(n interface{}) {
	switch x := n.(type) {
	case nil:
		p.printf("null")

	case *adt.CLit:
		p.printf("%s", literalString(x.Value))

	case *adt.CVar:
		p.printf("%s", x.Name)

	case *adt.CFun:
		p.printf("func(")
		p.params(x.Params)
		p.printf(") ")
		p.any(x.Body)

	case *adt.CApp:
		p.any(x.Fun)
		p.printf("(")
		for i, a := range x.Args.Items {
			if i > 0 {
				p.printf(", ")
			}
			if a.Name != "" {
				p.printf("%s=", a.Name)
			}
			p.any(a.Value)
		}
		p.printf(")")

	case *adt.CLet:
		p.printf("let")
		p.nested(func() {
			for _, b := range x.Binds {
				p.newline()
				p.printf("%s = ", b.Name)
				p.any(b.RHS)
			}
		})
		p.newline()
		p.printf("in ")
		p.any(x.Body)

	case *adt.CBinOp:
		p.printf("(")
		p.any(x.Left)
		p.printf(" %s ", x.Op)
		p.any(x.Right)
		p.printf(")")

	case *adt.CUnyOp:
		p.printf("%s", x.Op)
		p.any(x.X)

	case *adt.CIfElse:
		p.printf("if ")
		p.any(x.Cond)
		p.printf(" then ")
		p.any(x.Then)
		p.printf(" else ")
		p.any(x.Else)

	case *adt.CArr:
		p.printf("[")
		for i, e := range x.Elems {
			if i > 0 {
				p.printf(", ")
			}
			p.any(e)
		}
		p.printf("]")

	case *adt.CObj:
		p.printf("{")
		p.nested(func() {
			for _, f := range x.Fields {
				p.newline()
				p.any(f.Key)
				if f.Hide == ast.Hidden {
					p.printf(":: ")
				} else {
					p.printf(": ")
				}
				p.any(f.Value)
			}
		})
		p.newline()
		p.printf("}")

	case *adt.CLookup:
		p.any(x.Container)
		p.printf(".")
		p.any(x.Key)

	case *adt.CErr:
		p.printf("error(")
		p.any(x.Msg)
		p.printf(")")

	case *adt.CComp:
		p.printf("comp(%v, %s <- ", x.Kind, x.Var)
		p.any(x.Source)
		p.printf(") ")
		p.any(x.Body)

	case adt.VStr:
		p.printf("%q", x.S)

	case adt.VBool:
		p.printf("%v", x.B)

	case adt.VNull:
		p.printf("null")

	case adt.VNum:
		p.printf("%s", x.X.String())

	case *adt.VObj:
		p.printf("{")
		p.nested(func() {
			for _, name := range x.Order {
				p.newline()
				p.printf("%s: <thunk>", name)
			}
		})
		p.newline()
		p.printf("}")

	case adt.VArr:
		p.printf("[%d elems]", len(x.Elems))

	case *adt.VClos:
		p.printf("<closure>")

	case *adt.VPrim:
		p.printf("<builtin %s>", x.B.Name)

	case *adt.Bottom:
		p.printf("<bottom %v>", x.Code)

	default:
		p.printf("%v", x)
	}
}

func (p *printer) params(params []adt.Param) {
	for i, prm := range params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", prm.Name)
		if prm.Default != nil {
			p.printf("=")
			p.any(prm.Default)
		}
	}
}

func literalString(l literal.Literal) string {
	switch l.Kind {
	case literal.NullKind:
		return "null"
	case literal.BoolKind:
		return fmt.Sprintf("%v", l.Bool)
	case literal.StringKind:
		return literal.Quote(l.Str)
	case literal.NumberKind:
		return literal.FormatNumber(&l.Num)
	default:
		return "?"
	}
}
