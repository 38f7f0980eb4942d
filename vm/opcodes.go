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

package vm

import (
	"strconv"
	"strings"
)

// Opcode is an instruction mnemonic.
type Opcode uint8

// Instruction set.
const (
	OpNop Opcode = iota
	OpMov
	OpSwp
	OpSav
	OpAdd
	OpSub
	OpNeg
	OpJmp
	OpJez
	OpJnz
	OpJgz
	OpJlz
	OpJro
)

var opcodes = [...]string{
	"NOP",
	"MOV",
	"SWP",
	"SAV",
	"ADD",
	"SUB",
	"NEG",
	"JMP",
	"JEZ",
	"JNZ",
	"JGZ",
	"JLZ",
	"JRO",
}

var opcodeIndex = make(map[string]Opcode)

func init() {
	for i, v := range opcodes {
		opcodeIndex[v] = Opcode(i)
	}
}

// OpcodeByName returns the opcode for the given upper case mnemonic.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodeIndex[name]
	return op, ok
}

func (op Opcode) String() string {
	if int(op) < len(opcodes) {
		return opcodes[op]
	}
	return "Opcode(" + strconv.Itoa(int(op)) + ")"
}

// IsJump reports whether op takes a label argument.
func (op Opcode) IsJump() bool {
	return op >= OpJmp && op <= OpJlz
}

// Operands returns the number of Location operands op expects. Jumps to
// labels take none, their target is held in Instruction.Label.
func (op Opcode) Operands() int {
	switch op {
	case OpMov:
		return 2
	case OpAdd, OpSub, OpJro:
		return 1
	}
	return 0
}

// Instruction is a single decoded instruction.
//
// Src is used by MOV, ADD, SUB and JRO. Dst is only used by MOV. Jumps name
// their destination in Label, which is resolved to Target when the program is
// loaded into a Grid.
type Instruction struct {
	Op     Opcode
	Src    Location
	Dst    Location
	Label  string
	Target int
}

func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Op.String())
	switch {
	case i.Op.IsJump():
		b.WriteByte(' ')
		if i.Label != "" {
			b.WriteString(i.Label)
		} else {
			b.WriteString(strconv.Itoa(i.Target))
		}
	case i.Op == OpMov:
		b.WriteByte(' ')
		b.WriteString(i.Src.String())
		b.WriteString(", ")
		b.WriteString(i.Dst.String())
	case i.Op.Operands() == 1:
		b.WriteByte(' ')
		b.WriteString(i.Src.String())
	}
	return b.String()
}
