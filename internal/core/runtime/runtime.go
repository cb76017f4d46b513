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

// Package runtime is the entry point (§6): it wires the desugarer, the
// static checker, the evaluator and the manifester together and binds
// "std" into env₀, the one thing the pipeline's individual stages
// never do for themselves (each stage only knows about its own input
// and output type, not about its neighbors).
package runtime

import (
	"encoding/json"

	"github.com/jsonnet-go/jsonnet/cue/ast"
	"github.com/jsonnet-go/jsonnet/cue/errors"
	"github.com/jsonnet-go/jsonnet/cue/token"
	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/compile"
	"github.com/jsonnet-go/jsonnet/internal/core/eval"
	"github.com/jsonnet-go/jsonnet/internal/core/export"
)

// A Runtime is the evaluation entry point. Unlike the teacher's
// Runtime, which interns packages across build.Instances via a shared
// index, this module's evaluation is one pure desugar→check→eval→
// manifest pipeline with nothing to share across runs — Runtime is
// kept only so callers get the same New()-then-method shape the
// teacher exposes.
type Runtime struct{}

// New creates a new Runtime.
func New() *Runtime { return &Runtime{} }

// Evaluate runs the full pipeline (§6) against file, with std bound as
// env₀'s sole entry.
func (r *Runtime) Evaluate(std adt.Value, file *ast.File) (json.RawMessage, errors.Error) {
	return Evaluate(std, file)
}

// Evaluate is the free-function form of Runtime.Evaluate, grounded on
// the teacher's own package-level eval.Evaluate entry point.
func Evaluate(std adt.Value, file *ast.File) (json.RawMessage, errors.Error) {
	core, errs := compile.File(file)
	if errs != nil {
		return nil, errs
	}
	if errs := compile.Check(core); errs != nil {
		return nil, errs
	}

	env := adt.RootEnv().Bind1(ast.Ident("std"), adt.Done(std))
	e := eval.New()
	v, bot := e.Eval(env, core)
	if bot != nil {
		return nil, bot.ToError()
	}

	data, bot := export.Manifest(e.Force, v)
	if bot != nil {
		return nil, bot.ToError()
	}

	out, jerr := json.MarshalIndent(data, "", "  ")
	if jerr != nil {
		return nil, errors.Newf(token.NoPos, "manifest: %v", jerr)
	}
	return out, nil
}
