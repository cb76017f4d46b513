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

package export

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalJSON emits n verbatim (already valid JSON number syntax per
// literal.FormatNumber), avoiding the quoting encoding/json would
// otherwise apply to a string-kinded type.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(string(n)), nil
}

// MarshalYAML emits n as an unquoted scalar, tagged !!int or !!float
// depending on whether literal.FormatNumber rendered it as an exact
// integer or in scientific notation.
func (n Number) MarshalYAML() (interface{}, error) {
	tag := "!!int"
	if strings.ContainsAny(string(n), ".eE") {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(n)}, nil
}
