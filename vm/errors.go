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
	"fmt"

	"github.com/pkg/errors"
)

// Load errors. They are returned wrapped with context by New and Load, use
// errors.Cause to test for them.
var (
	ErrBadLayout       = errors.New("layout must have 12 tiles")
	ErrUnknownTile     = errors.New("unknown tile type")
	ErrUnknownStream   = errors.New("unknown stream type")
	ErrBadColumn       = errors.New("stream column out of range")
	ErrDuplicateStream = errors.New("duplicate stream")
	ErrBadPosition     = errors.New("node position out of range")
	ErrNotCompute      = errors.New("not a computing node")
	ErrReloaded        = errors.New("program already loaded")
	ErrUndefinedLabel  = errors.New("undefined label")
	ErrBadOpcode       = errors.New("bad opcode")
	ErrBadOperand      = errors.New("bad operand")
)

// Execution faults. A faulting node parks forever on the faulting
// instruction, see ExecError.
var (
	ErrNoNeighbor       = errors.New("no neighbor")
	ErrDisabledNeighbor = errors.New("neighbor is disabled")
	ErrNotWritable      = errors.New("neighbor does not accept writes")
	ErrNotReadable      = errors.New("neighbor never yields values")
)

// Errors returned by Step and Run.
var (
	ErrOverflow  = errors.New("tick counter overflow")
	ErrTickLimit = errors.New("tick limit reached")
	ErrMismatch  = errors.New("output mismatch")
)

// ExecError describes an execution fault of a computing node.
type ExecError struct {
	Pos         int // node position
	PC          int
	Instruction Instruction
	Tick        uint64 // tick of the first occurrence
	Err         error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("node %d, pc %d (%v), tick %d: %v", e.Pos, e.PC, e.Instruction, e.Tick, e.Err)
}

// Cause returns the underlying fault for errors.Cause.
func (e *ExecError) Cause() error { return e.Err }

// Unwrap supports errors.Is from the standard library.
func (e *ExecError) Unwrap() error { return e.Err }
