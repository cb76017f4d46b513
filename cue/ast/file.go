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

package ast

import "github.com/jsonnet-go/jsonnet/cue/token"

// File is the root of a parsed program: a single expression plus the
// file identity used in diagnostics (§6's error rendering prefixes
// every message with "<file>").
type File struct {
	Filename string
	Root     Expr
}

func (f *File) Pos() token.Pos {
	if f.Root == nil {
		return token.NoPos
	}
	return f.Root.Pos()
}

func (f *File) End() token.Pos {
	if f.Root == nil {
		return token.NoPos
	}
	return f.Root.End()
}
