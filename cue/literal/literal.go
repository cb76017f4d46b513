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

// Package literal holds the representation of Jsonnet's four literal
// kinds (§3.2) and the number-formatting rule that governs both
// std.toString and JSON manifestation (§4.7). The surface parser is out
// of scope: by the time a Literal reaches this module it is already
// structured, never raw source text, so this package has no lexing in
// it — only the arbitrary-precision decimal plumbing and the quoting
// helper debug printing needs.
package literal

import (
	"strconv"

	"github.com/cockroachdb/apd/v2"
)

// Kind discriminates the four literal forms.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	StringKind
	NumberKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case StringKind:
		return "string"
	case NumberKind:
		return "number"
	}
	return "unknown"
}

// Literal is the shared vocabulary type referenced by both the surface
// AST's ELit and the core calculus's CLit (§3.1, §3.2). Numbers are
// mantissa × 10^exp decimals (github.com/cockroachdb/apd/v2), matching
// the teacher's own adt.Num representation in internal/core/adt.
type Literal struct {
	Kind Kind
	Bool bool
	Str  string
	Num  apd.Decimal
}

func Null() Literal { return Literal{Kind: NullKind} }

func Bool(b bool) Literal { return Literal{Kind: BoolKind, Bool: b} }

func String(s string) Literal { return Literal{Kind: StringKind, Str: s} }

// Number parses a decimal literal string (as produced by the
// out-of-scope surface parser) into a Literal. It never fails on
// well-formed JSON number syntax; a parse failure indicates a bug
// upstream of this module's contract.
func Number(s string) (Literal, error) {
	var d apd.Decimal
	_, _, err := d.SetString(s)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Kind: NumberKind, Num: d}, nil
}

// NumberFromDecimal wraps an already-parsed decimal.
func NumberFromDecimal(d apd.Decimal) Literal {
	return Literal{Kind: NumberKind, Num: d}
}

// IsIntegral reports whether the decimal has no fractional part.
func IsIntegral(d *apd.Decimal) bool {
	var r apd.Decimal
	_, _ = numCtx.RoundToIntegralExact(&r, d)
	return r.Cmp(d) == 0
}

var numCtx = apd.BaseContext.WithPrecision(^uint32(0) >> 1)

// FormatNumber renders d per §4.7: an exact integer when d is integral
// and its decimal exponent is in [0, 1024], scientific notation
// otherwise.
func FormatNumber(d *apd.Decimal) string {
	if IsIntegral(d) {
		if coeffExp := decimalExponent(d); coeffExp >= 0 && coeffExp <= 1024 {
			var r apd.Decimal
			_, _ = numCtx.RoundToIntegralExact(&r, d)
			return r.Text('f')
		}
	}
	return d.Text('E')
}

// decimalExponent returns the power-of-ten exponent d's integral value
// would need if rendered as mantissa × 10^exp with a normalized
// (non-zero, not reducible) mantissa; used only to bound the exact
// vs. scientific choice in FormatNumber.
func decimalExponent(d *apd.Decimal) int {
	if d.Coeff.Sign() == 0 {
		return 0
	}
	digits := len(d.Coeff.String())
	return digits + d.Exponent - 1
}

// Quote renders s as a double-quoted Jsonnet/JSON string literal, used
// by the debug printer (internal/core/debug) to round-trip CLit string
// values; JSON manifestation itself always goes through encoding/json,
// never through this function.
func Quote(s string) string {
	return strconv.Quote(s)
}
