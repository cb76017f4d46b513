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
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/jsonnet-go/jsonnet/internal/core/adt"
	"github.com/jsonnet-go/jsonnet/internal/core/export"
	"github.com/jsonnet-go/jsonnet/pkg/internal"
)

func init() {
	manifest = []*internal.Builtin{
		{
			Name:   "manifestJsonEx",
			Params: []internal.Param{{Name: "value", Kind: adt.AnyKind}, {Name: "indent", Kind: adt.StringKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				indent := c.String(1)
				if !c.Do() {
					return
				}
				mv, merr := export.Manifest(c.Force, v)
				if merr != nil {
					c.Err = merr
					return
				}
				var buf bytes.Buffer
				enc := json.NewEncoder(&buf)
				enc.SetIndent("", indent)
				enc.SetEscapeHTML(false)
				if jerr := enc.Encode(mv); jerr != nil {
					c.Err = c.Errf("manifestJsonEx: %v", jerr)
					return
				}
				c.Ret = adt.VStr{S: string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))}
			},
		},
		{
			Name:   "manifestYamlDoc",
			Params: []internal.Param{{Name: "value", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				v, err := c.Force(c.Thunk(0))
				if err != nil {
					c.Err = err
					return
				}
				mv, merr := export.Manifest(c.Force, v)
				if merr != nil {
					c.Err = merr
					return
				}
				data, yerr := yaml.Marshal(mv)
				if yerr != nil {
					c.Err = c.Errf("manifestYamlDoc: %v", yerr)
					return
				}
				c.Ret = adt.VStr{S: string(data)}
			},
		},
		{
			Name:   "trace",
			Params: []internal.Param{{Name: "str", Kind: adt.StringKind}, {Name: "rest", Kind: adt.AnyKind}},
			Func: func(c *internal.CallCtxt) {
				// Force and discard the trace message; real output
				// would go to the host's stderr, which this module
				// has no side channel for.
				if _, err := c.Force(c.Thunk(0)); err != nil {
					c.Err = err
					return
				}
				v, err := c.Force(c.Thunk(1))
				if err != nil {
					c.Err = err
					return
				}
				c.Ret = v
			},
		},
	}
}

var manifest []*internal.Builtin
