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

import "slices"

// StreamKind is the type of an answer stream. The values match the constants
// used in puzzle definitions.
type StreamKind int

// Stream kinds. Image streams are accepted but not simulated.
const (
	StreamInput StreamKind = iota + 1
	StreamOutput
	StreamImage
)

func (k StreamKind) String() string {
	switch k {
	case StreamInput:
		return "input"
	case StreamOutput:
		return "output"
	case StreamImage:
		return "image"
	}
	return "unknown"
}

// StreamSpec describes an answer stream of a puzzle.
type StreamSpec struct {
	Kind   StreamKind
	Name   string
	Column int
	Values []Cell
}

// Stream is an answer stream bound to a grid column. An input stream sits
// above the top row and feeds its values, in order, to the node below it. An
// output stream sits below the bottom row and records every value the node
// above writes to it.
type Stream struct {
	Kind     StreamKind
	Name     string
	Column   int
	values   []Cell
	cursor   int
	received []Cell
}

func newStream(spec StreamSpec) *Stream {
	return &Stream{
		Kind:   spec.Kind,
		Name:   spec.Name,
		Column: spec.Column,
		values: slices.Clone(spec.Values),
	}
}

// Pos returns the virtual position of the stream: the row above the grid for
// inputs, the row below for outputs.
func (s *Stream) Pos() int {
	if s.Kind == StreamInput {
		return s.Column - Columns
	}
	return Size + s.Column
}

// Values returns the reference values of the stream.
func (s *Stream) Values() []Cell { return s.values }

// Received returns the values written to an output stream so far.
func (s *Stream) Received() []Cell { return s.received }

// Delivered returns how many values an input stream has handed out.
func (s *Stream) Delivered() int { return s.cursor }

// Satisfied reports whether an output stream received exactly its reference
// values.
func (s *Stream) Satisfied() bool {
	return slices.Equal(s.received, s.values)
}

// Diverged reports whether an output stream can no longer be satisfied: it
// received a value that differs from the reference at the same index, or more
// values than expected.
func (s *Stream) Diverged() bool {
	if len(s.received) > len(s.values) {
		return true
	}
	return !slices.Equal(s.received, s.values[:len(s.received)])
}

func (*Stream) update(*Grid, uint64) {}

// take hands out the next input value. Values are never offered twice.
func (s *Stream) take(from Port, _ uint64) (Cell, bool) {
	if s.Kind != StreamInput || from != Down || s.cursor >= len(s.values) {
		return 0, false
	}
	v := s.values[s.cursor]
	s.cursor++
	return v, true
}

// offer appends a value to an output stream. Writes to an output stream are
// consumed immediately.
func (s *Stream) offer(from Port, v Cell) bool {
	if s.Kind != StreamOutput || from != Up {
		return false
	}
	s.received = append(s.received, v)
	return true
}
