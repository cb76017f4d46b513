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

// Package token defines source positions and the span representation
// used throughout the compilation pipeline: every surface and core node
// carries one, and the error and backtrace machinery renders them.
package token

import "fmt"

// Pos is an opaque source position, cheap to copy and compare, that
// resolves to a Position through the File it was obtained from.
type Pos struct {
	file *File
	line int
	col  int
}

// NoPos is the zero Pos; it has no associated File.
var NoPos = Pos{}

// IsValid reports whether p is associated with a File.
func (p Pos) IsValid() bool { return p.file != nil }

// Filename returns the name of the file p belongs to, or "" for NoPos.
func (p Pos) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.name
}

// Line returns the one-based line number of p.
func (p Pos) Line() int { return p.line }

// Column returns the one-based column number of p.
func (p Pos) Column() int { return p.col }

// Position expands p into a full Position, a cheap no-op given the
// representation above; File exists to mirror the teacher's indirection
// so that positions could later be compressed to file+offset pairs
// without changing call sites.
func (p Pos) Position() Position {
	return Position{Filename: p.Filename(), Line: p.line, Column: p.col}
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return p.Position().String()
}

// A File identifies the source a set of Pos values were created from.
type File struct {
	name string
}

// NewFile creates a File for the given name, used for reporting only —
// this module never reads bytes from disk, the parser (out of scope)
// does.
func NewFile(name string) *File {
	return &File{name: name}
}

// Pos returns a position at the given line and column within f.
func (f *File) Pos(line, col int) Pos {
	return Pos{file: f, line: line, col: col}
}

func (f *File) Name() string { return f.name }

// Position is the expanded, printable form of a Pos.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	s := p.Filename
	if p.Line > 0 {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// A Span is a start/end pair of positions within a single file: the
// range of source text a Core or surface node was parsed from.
type Span struct {
	Start, End Pos
}

// NoSpan is the zero Span.
var NoSpan = Span{}

func NewSpan(start, end Pos) Span { return Span{Start: start, End: end} }

func (s Span) IsValid() bool { return s.Start.IsValid() }

// String renders the span per the module's error-rendering contract:
// "<file>:<lb>:<cb>-<ce>" when start and end share a line,
// "<file>:<lb>:<cb>-<le>:<ce>" otherwise.
func (s Span) String() string {
	if !s.IsValid() {
		return "-"
	}
	if s.Start.Filename() == "" && s.Start.line == 0 {
		return "-"
	}
	file := s.Start.Filename()
	if s.Start.line == s.End.line {
		return fmt.Sprintf("%s:%d:%d-%d", file, s.Start.line, s.Start.col, s.End.col)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", file, s.Start.line, s.Start.col, s.End.line, s.End.col)
}
