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

// Package asm provides utility functions to assemble and disassemble node
// programs.
//
// Source files use the save file format of the TIS-100:
//
//	@0
//	START:
//	  MOV UP, ACC   # read a value
//	  JEZ START
//	  MOV ACC, DOWN
//
//	@1
//	  ...
//
// Each "@N" header starts the program of the N-th computing node, counting in
// row major order and skipping storage and disabled nodes. Code before the
// first header belongs to node 0.
//
// Supported mnemonics:
//
//	opcode	operands	description
//	------	--------	-----------------------------------------------------
//	NOP			no-op
//	MOV	src, dst	read src and write it to dst
//	SWP			swap ACC and BAK
//	SAV			copy ACC to BAK
//	ADD	src		add src to ACC
//	SUB	src		subtract src from ACC
//	NEG			negate ACC
//	JMP	label		jump to label
//	JEZ	label		jump to label if ACC == 0
//	JNZ	label		jump to label if ACC != 0
//	JGZ	label		jump to label if ACC > 0
//	JLZ	label		jump to label if ACC < 0
//	JRO	src		jump by src instructions, relative to the current one
//
// Operands are one of the ports UP, DOWN, LEFT, RIGHT, ANY, LAST, ACC, NIL, or
// a decimal integer. A constant cannot be the destination of a MOV. Operands
// may be separated with commas.
//
// Labels are defined by a name followed by a colon and refer to the next
// instruction. They can share a line with the instruction. Mnemonics, ports
// and labels are case insensitive.
//
// Comments start with '#' and run to the end of the line. A '!' in front of an
// instruction (a breakpoint in the original game) is ignored.
package asm
