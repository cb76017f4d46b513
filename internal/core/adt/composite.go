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

package adt

import (
	"github.com/cockroachdb/apd/v2"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/token"
)

// Kind discriminates the runtime Value variants (§3.5).
type Kind int

const (
	BottomKind Kind = iota
	NullKind
	BoolKind
	NumKind
	StringKind
	ArrayKind
	ObjectKind
	FuncKind

	// AnyKind is only ever used in a Builtin's declared parameter
	// kinds, never as the Kind of an actual Value; it means "accept
	// anything, let the primitive sort it out."
	AnyKind Kind = -1
)

func (k Kind) String() string {
	switch k {
	case BottomKind:
		return "error"
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	case FuncKind:
		return "function"
	case AnyKind:
		return "any"
	}
	return "unknown"
}

// Value is implemented by every value the evaluator can produce.
type Value interface {
	Kind() Kind
}

type VNull struct{}

func (VNull) Kind() Kind { return NullKind }

type VBool struct{ B bool }

func (VBool) Kind() Kind { return BoolKind }

type VNum struct{ X apd.Decimal }

func (VNum) Kind() Kind { return NumKind }

type VStr struct{ S string }

func (VStr) Kind() Kind { return StringKind }

// VArr is an array of thunks; elements are forced on demand.
type VArr struct{ Elems []*Thunk }

func (VArr) Kind() Kind { return ArrayKind }

// ObjField is one field of a VObj: its thunk plus the visibility it
// carries after any composition (§3.4).
type ObjField struct {
	Vis ast.Visibility
	Val *Thunk
}

// VObj is an object: a name-keyed map of fields plus the order names
// were first introduced in. Order is what debug dumps, composition and
// std.mergePatch iterate over; manifestation and std.objectFields both
// sort the names instead.
//
// The spec's data model (§3.5) describes this as map<Key, Thunk> with
// Key = Visible(text)|Hidden(text)|Forced(text); a field's identity is
// really its name, with visibility a property of the occupant, so we
// split Key into (map key = name, ObjField.Vis = visibility) rather
// than folding visibility into the map key itself — two entries can't
// coexist under one name regardless of differing visibility tags.
type VObj struct {
	Order  []string
	Fields map[string]ObjField
}

func (*VObj) Kind() Kind { return ObjectKind }

func NewObj() *VObj {
	return &VObj{Fields: map[string]ObjField{}}
}

// Set inserts or overwrites a field, recording first-appearance order.
func (o *VObj) Set(name string, vis ast.Visibility, val *Thunk) {
	if _, ok := o.Fields[name]; !ok {
		o.Order = append(o.Order, name)
	}
	o.Fields[name] = ObjField{Vis: vis, Val: val}
}

// VClos is a closure: a function value capturing its defining
// environment.
type VClos struct {
	Env    *Env
	Params []Param
	Body   Core
	Name   string // best-effort, for backtrace frames; "" if anonymous
}

func (*VClos) Kind() Kind { return FuncKind }

// BuiltinParam documents one standard-library parameter: its name (for
// BadParam/ParamNotBound diagnostics) and its expected kind (AnyKind
// to accept anything).
type BuiltinParam struct {
	Name string
	Kind Kind
}

// CallContext is the capability a Builtin's Fn needs from its caller:
// force an argument thunk, read the current call-site position for
// diagnostics, and build a properly-positioned Bottom. The evaluator's
// Engine implements this; pkg/std depends only on this interface,
// not on internal/core/eval, so std wiring stays acyclic (runtime
// wires std and eval together, mirroring the teacher's
// pkg/internal-registry plus internal/core/runtime split).
type CallContext interface {
	Force(t *Thunk) (Value, *Bottom)
	Pos() token.Pos
	Errf(code ErrorCode, format string, args ...interface{}) *Bottom

	// Apply calls a callable Value (closure or builtin) with args
	// bound positionally, for higher-order std builtins (map, filter,
	// foldl, sort, ...) that need to invoke a Jsonnet-level callback.
	Apply(fn Value, args []*Thunk) (Value, *Bottom)

	// Equal implements deep structural equality (§4.6's
	// std.equals/assertEqual semantics), the same rule == uses.
	Equal(a, b *Thunk) (bool, *Bottom)
}

// Builtin is one standard-library primitive (§4.6): a declared arity
// with per-argument expected kinds, and the Go function implementing
// it. TypeMismatch is raised by the evaluator before Fn ever runs if
// an argument doesn't match its declared Kind (AnyKind always passes).
type Builtin struct {
	Name   string
	Params []BuiltinParam
	Fn     func(ctx CallContext, args []*Thunk) (Value, *Bottom)
}

// VPrim wraps a Builtin as a first-class Value so it can sit in an
// object field (how std itself is bound into env₀) or be passed
// around like any other function.
type VPrim struct{ B *Builtin }

func (*VPrim) Kind() Kind { return FuncKind }

// ---------------------------------------------------------------------
// Environment and thunks (§3.5, §3.6, §3.8.2).

// Env is an immutable chained mapping name → Thunk. Extension pushes
// one new frame (a map, so a single CLet/CFun with many simultaneous
// bindings costs one frame, not one per name) in front of the parent;
// lookup walks frames outward, so the innermost binding — the most
// recently pushed one — always wins. This is exactly how self/super
// shadowing across nested objects and composition works (§3.8.3,
// §4.4.1): composing an object just pushes one more frame rebinding
// self (and, for the overriding side, super) in front of each field's
// original environment, without touching the original frames at all.
type Env struct {
	parent *Env
	vars   map[ast.Ident]*Thunk
}

// RootEnv is the empty environment env₀ starts from, before "std" is
// bound into it (§6).
func RootEnv() *Env { return &Env{} }

// Push extends e with a new frame of simultaneous bindings.
func (e *Env) Push(vars map[ast.Ident]*Thunk) *Env {
	return &Env{parent: e, vars: vars}
}

// Bind1 is Push for a single name, the common case.
func (e *Env) Bind1(name ast.Ident, t *Thunk) *Env {
	return e.Push(map[ast.Ident]*Thunk{name: t})
}

// Lookup finds the innermost binding of name, if any.
func (e *Env) Lookup(name ast.Ident) (*Thunk, bool) {
	for env := e; env != nil; env = env.parent {
		if t, ok := env.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Evaluator is the single method the evaluator exposes to Thunk so
// that forcing can live here as data-model behavior (the state machine
// of §3.8.2) while tree-walking semantics stay in internal/core/eval.
type Evaluator interface {
	Eval(env *Env, c Core) (Value, *Bottom)
}

type thunkState uint8

const (
	unforced thunkState = iota
	inProgress
	forced
	failed
)

// Thunk is a single-assignment cell holding a deferred (env, expr)
// computation, forced at most once (§3.5, §5's state diagram).
type Thunk struct {
	env   *Env
	expr  Core
	state thunkState
	value Value
	err   *Bottom
}

// NewThunk defers evaluation of expr in env.
func NewThunk(env *Env, expr Core) *Thunk {
	return &Thunk{env: env, expr: expr}
}

// Done wraps an already-computed Value as a pre-forced thunk; used for
// host-supplied constants such as Strict-forced call arguments, the
// self/super bindings of object composition, and values built by std
// builtins.
func Done(v Value) *Thunk {
	return &Thunk{state: forced, value: v}
}

// FailedThunk wraps an already-known error as a pre-failed thunk.
func FailedThunk(b *Bottom) *Thunk {
	return &Thunk{state: failed, err: b}
}

// Rebind returns a new, as-yet-unforced thunk for the same expression
// as t, evaluated in t's original environment extended with one more
// frame. This is how object composition (o1 + o2, §4.4.1) re-derives
// self/super for an inherited field without touching the field's
// original CObj or mutating t: it pushes a frame rebinding self (and,
// for fields sourced from the right-hand operand, super) in front of
// the environment the field was originally written in, and nothing
// else about the field's meaning changes.
//
// A thunk with no recorded expression (one built by Done or
// FailedThunk, e.g. a std constant) cannot reference self/super in the
// first place, so Rebind returns it unchanged.
func (t *Thunk) Rebind(frame map[ast.Ident]*Thunk) *Thunk {
	if t.expr == nil {
		return t
	}
	return NewThunk(t.env.Push(frame), t.expr)
}

// Force returns t's value, computing and caching it on first call via
// ev. A thunk observed mid-computation (state inProgress) is a fatal
// infinite-recursion error; that error is cached on the *enclosing*
// Force call that set state to inProgress in the first place, once its
// own ev.Eval returns the error bubbling up from the re-entrant call —
// this function never mutates state on the re-entrant path itself.
func (t *Thunk) Force(ev Evaluator) (Value, *Bottom) {
	switch t.state {
	case forced:
		return t.value, nil
	case failed:
		return nil, t.err
	case inProgress:
		return nil, &Bottom{Code: RuntimeError, Msg: "infinite recursion"}
	}
	t.state = inProgress
	v, err := ev.Eval(t.env, t.expr)
	if err != nil {
		t.state = failed
		t.err = err
		return nil, err
	}
	t.state = forced
	t.value = v
	return v, nil
}
