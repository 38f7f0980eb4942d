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
	"github.com/pkg/errors"
)

// Grid geometry.
const (
	Rows    = 3
	Columns = 4
	Size    = Rows * Columns
)

// Tile is the type of a grid tile. The values match the constants used in
// puzzle definitions.
type Tile int

// Tile types.
const (
	TileCompute Tile = iota + 4
	TileStorage
	TileDisabled
)

func (t Tile) String() string {
	switch t {
	case TileCompute:
		return "compute"
	case TileStorage:
		return "storage"
	case TileDisabled:
		return "disabled"
	}
	return "unknown"
}

// Puzzle describes the grid layout and the answer streams of a puzzle.
type Puzzle struct {
	Name        string
	Description []string
	Layout      []Tile // Size tiles, row major
	Streams     []StreamSpec
}

// Grid is a 3x4 grid of nodes with its answer streams.
type Grid struct {
	nodes    [Size]node
	streams  []*Stream
	inputs   [Columns]*Stream
	outputs  [Columns]*Stream
	tick     uint64
	maxTicks uint64
	stop     bool
	trace    func(tick uint64, g *Grid)
	reported [Size]bool
}

// Option interface
type Option func(*Grid) error

// MaxTicks sets the number of ticks after which Run gives up with
// ErrTickLimit. Zero, the default, means no limit.
func MaxTicks(n uint64) Option {
	return func(g *Grid) error {
		g.maxTicks = n
		return nil
	}
}

// StopOnMismatch makes Run return ErrMismatch as soon as an output stream
// receives a wrong value.
func StopOnMismatch(stop bool) Option {
	return func(g *Grid) error {
		g.stop = stop
		return nil
	}
}

// Trace sets a function called after every tick.
func Trace(fn func(tick uint64, g *Grid)) Option {
	return func(g *Grid) error {
		g.trace = fn
		return nil
	}
}

// SetOptions sets the provided options.
func (g *Grid) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return err
		}
	}
	return nil
}

// New creates a grid for the given puzzle. Computing nodes start with no
// program, see Load.
//
// Options will be set by calling SetOptions.
func New(p Puzzle, opts ...Option) (*Grid, error) {
	if len(p.Layout) != Size {
		return nil, errors.Wrapf(ErrBadLayout, "got %d", len(p.Layout))
	}
	g := new(Grid)
	for i, t := range p.Layout {
		switch t {
		case TileCompute:
			g.nodes[i] = newCompute(i)
		case TileStorage:
			g.nodes[i] = &Storage{pos: i}
		case TileDisabled:
			g.nodes[i] = &Disabled{pos: i}
		default:
			return nil, errors.Wrapf(ErrUnknownTile, "tile %d: %d", i, int(t))
		}
	}
	for _, spec := range p.Streams {
		if spec.Column < 0 || spec.Column >= Columns {
			return nil, errors.Wrapf(ErrBadColumn, "stream %s: %d", spec.Name, spec.Column)
		}
		s := newStream(spec)
		switch spec.Kind {
		case StreamInput:
			if g.inputs[s.Column] != nil {
				return nil, errors.Wrapf(ErrDuplicateStream, "input %s on column %d", s.Name, s.Column)
			}
			g.inputs[s.Column] = s
		case StreamOutput:
			if g.outputs[s.Column] != nil {
				return nil, errors.Wrapf(ErrDuplicateStream, "output %s on column %d", s.Name, s.Column)
			}
			g.outputs[s.Column] = s
		case StreamImage:
		default:
			return nil, errors.Wrapf(ErrUnknownStream, "stream %s: %d", spec.Name, int(spec.Kind))
		}
		g.streams = append(g.streams, s)
	}
	if err := g.SetOptions(opts...); err != nil {
		return nil, err
	}
	return g, nil
}

// Load attaches a program to the computing node at pos. Jump labels are
// resolved against labels, which maps label names to instruction indices. A
// label may point one past the last instruction, in which case it resolves to
// the first instruction.
//
// A program can be loaded only once per node. code is copied.
func (g *Grid) Load(pos int, code []Instruction, labels map[string]int) error {
	if pos < 0 || pos >= Size {
		return errors.Wrapf(ErrBadPosition, "load %d", pos)
	}
	c, ok := g.nodes[pos].(*Compute)
	if !ok {
		return errors.Wrapf(ErrNotCompute, "load %d", pos)
	}
	if c.loaded {
		return errors.Wrapf(ErrReloaded, "load %d", pos)
	}
	prog, err := link(code, labels)
	if err != nil {
		return errors.Wrapf(err, "load %d", pos)
	}
	c.code = prog
	c.loaded = true
	return nil
}

func link(code []Instruction, labels map[string]int) ([]Instruction, error) {
	prog := make([]Instruction, len(code))
	copy(prog, code)
	for i := range prog {
		ins := &prog[i]
		if ins.Op > OpJro {
			return nil, errors.Wrapf(ErrBadOpcode, "instruction %d: %v", i, ins.Op)
		}
		switch ins.Op.Operands() {
		case 2:
			if err := checkOperand(ins.Dst, true); err != nil {
				return nil, errors.Wrapf(err, "instruction %d: %v", i, ins)
			}
			fallthrough
		case 1:
			if err := checkOperand(ins.Src, false); err != nil {
				return nil, errors.Wrapf(err, "instruction %d: %v", i, ins)
			}
		}
		if !ins.Op.IsJump() {
			continue
		}
		target, ok := labels[ins.Label]
		if !ok || target < 0 || target > len(prog) {
			return nil, errors.Wrapf(ErrUndefinedLabel, "instruction %d: %s", i, ins.Label)
		}
		if target == len(prog) {
			target = 0
		}
		ins.Target = target
	}
	return prog, nil
}

func checkOperand(l Location, dst bool) error {
	if l.Port > Const || (dst && l.Port == Const) {
		return ErrBadOperand
	}
	return nil
}

// neighbor returns the node or stream next to pos in direction d, or nil.
func (g *Grid) neighbor(pos int, d Port) node {
	switch d {
	case Up:
		if pos < Columns {
			if s := g.inputs[pos]; s != nil {
				return s
			}
			return nil
		}
		return g.nodes[pos-Columns]
	case Down:
		if pos >= Size-Columns {
			if s := g.outputs[pos-(Size-Columns)]; s != nil {
				return s
			}
			return nil
		}
		return g.nodes[pos+Columns]
	case Left:
		if pos%Columns == 0 {
			return nil
		}
		return g.nodes[pos-1]
	case Right:
		if pos%Columns == Columns-1 {
			return nil
		}
		return g.nodes[pos+1]
	}
	return nil
}

// Tile returns the type of the tile at pos. Positions outside the grid are
// reported as TileDisabled.
func (g *Grid) Tile(pos int) Tile {
	if pos < 0 || pos >= Size {
		return TileDisabled
	}
	switch g.nodes[pos].(type) {
	case *Compute:
		return TileCompute
	case *Storage:
		return TileStorage
	}
	return TileDisabled
}

// Compute returns the computing node at pos.
func (g *Grid) Compute(pos int) (*Compute, bool) {
	if pos < 0 || pos >= Size {
		return nil, false
	}
	c, ok := g.nodes[pos].(*Compute)
	return c, ok
}

// Storage returns the storage node at pos.
func (g *Grid) Storage(pos int) (*Storage, bool) {
	if pos < 0 || pos >= Size {
		return nil, false
	}
	s, ok := g.nodes[pos].(*Storage)
	return s, ok
}

// ComputeNodes returns the positions of all computing nodes in row major
// order. Program listings number nodes in this order.
func (g *Grid) ComputeNodes() []int {
	var r []int
	for i, n := range g.nodes {
		if _, ok := n.(*Compute); ok {
			r = append(r, i)
		}
	}
	return r
}

// Streams returns the answer streams in puzzle order.
func (g *Grid) Streams() []*Stream {
	return g.streams
}

// Ticks returns the number of ticks simulated so far.
func (g *Grid) Ticks() uint64 {
	return g.tick
}

// Faults returns the execution faults of all computing nodes in position
// order.
func (g *Grid) Faults() []error {
	var r []error
	for _, n := range g.nodes {
		if c, ok := n.(*Compute); ok && c.fault != nil {
			r = append(r, c.fault)
		}
	}
	return r
}
