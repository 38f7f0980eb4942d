// This file is part of tis - https://github.com/db47h/tis
//
// Copyright 2026 The tis Authors
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

package puzzle

import (
	"io"

	"github.com/db47h/tis/internal/tisi"
	"github.com/db47h/tis/vm"
)

// WriteResults writes one line per output stream to w, in the form:
//
//	OUT.A: 2 4 6 ok
//
// The received values are followed by "ok" if they match the expected ones,
// or by the expected values otherwise:
//
//	OUT.A: 2 5 (expected 2 4 6)
func WriteResults(w io.Writer, results []vm.Result) error {
	ew := tisi.NewErrWriter(w)
	for i := range results {
		r := &results[i]
		io.WriteString(ew, r.Name)
		io.WriteString(ew, ":")
		if len(r.Received) > 0 {
			io.WriteString(ew, " ")
			ew.WriteCells(r.Received)
		}
		if r.OK() {
			io.WriteString(ew, " ok\n")
			continue
		}
		io.WriteString(ew, " (expected")
		if len(r.Expected) > 0 {
			io.WriteString(ew, " ")
			ew.WriteCells(r.Expected)
		}
		io.WriteString(ew, ")\n")
	}
	return ew.Err
}
