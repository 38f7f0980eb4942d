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

package asm

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/db47h/tis/internal/tisi"
	"github.com/db47h/tis/vm"
)

// Program is the program of a single computing node.
type Program struct {
	Node   int              // node number, counting computing nodes only
	Code   []vm.Instruction // jump targets are not resolved
	Labels map[string]int   // label name to instruction index
}

// Error is a single assembly error.
type Error struct {
	Pos scanner.Position
	Msg string
}

// ErrAsm is the error type returned by Assemble. It holds up to 10 errors.
type ErrAsm []Error

func (e ErrAsm) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Pos.String())
		b.WriteString(": ")
		b.WriteString(err.Msg)
	}
	return b.String()
}

// Assemble parses the node programs read from the supplied io.Reader and
// returns them sorted by node number.
//
// Then name parameter is used only in error messages to name the source of the
// error. If the io.Reader is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value.
func Assemble(name string, r io.Reader) ([]Program, error) {
	p := newParser()
	return p.Parse(name, r)
}

// Disassemble writes a listing of the given program to the specified
// io.Writer, one instruction per line, with label definitions on their own
// line.
func Disassemble(p Program, w io.Writer) error {
	ew, _ := w.(*tisi.ErrWriter)
	if ew == nil {
		ew = tisi.NewErrWriter(w)
	}
	at := make(map[int][]string)
	for n, a := range p.Labels {
		at[a] = append(at[a], n)
	}
	labels := func(a int) {
		names := at[a]
		sort.Strings(names)
		for _, n := range names {
			io.WriteString(ew, n)
			io.WriteString(ew, ":\n")
		}
	}
	for pc, ins := range p.Code {
		labels(pc)
		io.WriteString(ew, ins.String())
		ew.Write([]byte{'\n'})
	}
	labels(len(p.Code))
	return ew.Err
}

// DisassembleAll writes a listing of all programs in save file format: each
// program is preceded by its @node header.
func DisassembleAll(progs []Program, w io.Writer) error {
	ew := tisi.NewErrWriter(w)
	for i, p := range progs {
		if i > 0 {
			ew.Write([]byte{'\n'})
		}
		io.WriteString(ew, "@"+strconv.Itoa(p.Node)+"\n")
		if err := Disassemble(p, ew); err != nil {
			return err
		}
	}
	return ew.Err
}
