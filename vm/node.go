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

// node is implemented by every kind of grid tile and by answer streams.
type node interface {
	// Pos returns the node position in the grid.
	Pos() int
	// update gives the node its turn during tick now.
	update(g *Grid, now uint64)
	// take consumes a value offered by the node on its side facing from.
	take(from Port, now uint64) (Cell, bool)
}

// outbox is the single pending write of a computing node. A directional write
// sets one bit in dirs, a write to Any sets all four. Consumption clears the
// whole mask, which retracts the remaining copies of an Any write.
//
// tick holds the tick the value was deposited in until it is consumed, then
// the tick it was consumed in.
type outbox struct {
	value Cell
	dirs  uint8
	tick  uint64
	by    Port // direction the value left through
}

func (o *outbox) empty() bool {
	return o.dirs == 0
}

func (o *outbox) put(v Cell, dirs uint8, now uint64) {
	o.value, o.dirs, o.tick = v, dirs, now
}

// take hands out the pending value to a reader on side d. A value is never
// visible during the tick it was written in.
func (o *outbox) take(d Port, now uint64) (Cell, bool) {
	if o.dirs&d.mask() == 0 || o.tick >= now {
		return 0, false
	}
	o.dirs = 0
	o.tick = now
	o.by = d
	return o.value, true
}

// Compute is a computing node.
type Compute struct {
	pos     int
	acc     Cell
	bak     Cell
	code    []Instruction
	loaded  bool
	pc      int
	last    Port
	out     outbox
	writing bool // the instruction at pc has a write in flight
	fault   *ExecError
}

func newCompute(pos int) *Compute {
	return &Compute{pos: pos, last: Nil}
}

// Pos returns the node position.
func (c *Compute) Pos() int { return c.pos }

// ACC returns the accumulator.
func (c *Compute) ACC() Cell { return c.acc }

// BAK returns the backup register.
func (c *Compute) BAK() Cell { return c.bak }

// PC returns the index of the current instruction.
func (c *Compute) PC() int { return c.pc }

// Last returns the direction most recently resolved by a read or write on
// Any, or Nil if there was none.
func (c *Compute) Last() Port { return c.last }

// Code returns the loaded program. It must not be modified.
func (c *Compute) Code() []Instruction { return c.code }

// Pending returns the value waiting in the outbox, if any.
func (c *Compute) Pending() (Cell, bool) {
	return c.out.value, !c.out.empty()
}

// Fault returns the first execution fault of the node or nil.
func (c *Compute) Fault() error {
	if c.fault == nil {
		return nil
	}
	return c.fault
}

func (c *Compute) take(from Port, now uint64) (Cell, bool) {
	return c.out.take(from, now)
}

func (c *Compute) update(g *Grid, now uint64) {
	if !c.out.empty() {
		return
	}
	if c.writing {
		// the consumer's turn in this tick may have come before ours, so only
		// retire on the tick following consumption.
		if c.out.tick >= now {
			return
		}
		c.writing = false
		if c.code[c.pc].Dst.Port == Any {
			c.last = c.out.by
		}
		c.advance()
	}
	if len(c.code) == 0 {
		return
	}
	c.exec(g, now)
}

func (c *Compute) advance() {
	c.pc++
	if c.pc >= len(c.code) {
		c.pc = 0
	}
}

func (c *Compute) exec(g *Grid, now uint64) {
	ins := &c.code[c.pc]
	switch ins.Op {
	case OpNop:
		c.advance()
	case OpMov:
		v, ok := c.fetch(g, ins.Src, now)
		if !ok {
			return
		}
		if c.store(g, ins.Dst, v, now) {
			c.advance()
		} else {
			c.writing = true
		}
	case OpSwp:
		c.acc, c.bak = c.bak, c.acc
		c.advance()
	case OpSav:
		c.bak = c.acc
		c.advance()
	case OpAdd:
		v, ok := c.fetch(g, ins.Src, now)
		if !ok {
			return
		}
		c.acc += v
		c.advance()
	case OpSub:
		v, ok := c.fetch(g, ins.Src, now)
		if !ok {
			return
		}
		c.acc -= v
		c.advance()
	case OpNeg:
		c.acc = -c.acc
		c.advance()
	case OpJmp:
		c.pc = ins.Target
	case OpJez:
		c.jumpIf(ins, c.acc == 0)
	case OpJnz:
		c.jumpIf(ins, c.acc != 0)
	case OpJgz:
		c.jumpIf(ins, c.acc > 0)
	case OpJlz:
		c.jumpIf(ins, c.acc < 0)
	case OpJro:
		v, ok := c.fetch(g, ins.Src, now)
		if !ok {
			return
		}
		c.pc = min(max(c.pc+int(v), 0), len(c.code)-1)
	}
}

func (c *Compute) jumpIf(ins *Instruction, cond bool) {
	if cond {
		c.pc = ins.Target
	} else {
		c.advance()
	}
}

// fetch resolves a read operand.
func (c *Compute) fetch(g *Grid, l Location, now uint64) (Cell, bool) {
	switch l.Port {
	case Acc:
		return c.acc, true
	case Nil:
		return 0, true
	case Const:
		return l.Value, true
	case Any:
		for _, d := range Directions {
			n := g.neighbor(c.pos, d)
			if n == nil {
				continue
			}
			if v, ok := n.take(d.Opposite(), now); ok {
				c.last = d
				return v, true
			}
		}
		return 0, false
	case Last:
		if c.last == Nil {
			return 0, true
		}
		return c.fetchFrom(g, c.last, now)
	}
	return c.fetchFrom(g, l.Port, now)
}

func (c *Compute) fetchFrom(g *Grid, d Port, now uint64) (Cell, bool) {
	switch n := g.neighbor(c.pos, d).(type) {
	case nil:
		c.setFault(ErrNoNeighbor, now)
	case *Disabled:
		c.setFault(ErrDisabledNeighbor, now)
	case *Stream:
		if n.Kind != StreamInput {
			c.setFault(ErrNotReadable, now)
			break
		}
		return n.take(d.Opposite(), now)
	default:
		return n.take(d.Opposite(), now)
	}
	return 0, false
}

// store resolves a write operand. It reports whether the write completed, if
// not the value is left in the outbox.
func (c *Compute) store(g *Grid, l Location, v Cell, now uint64) bool {
	switch l.Port {
	case Acc:
		c.acc = v
		return true
	case Nil:
		return true
	case Any:
		for _, d := range Directions {
			if s, ok := g.neighbor(c.pos, d).(*Stream); ok && s.offer(d.Opposite(), v) {
				c.last = d
				return true
			}
		}
		c.out.put(v, allDirections, now)
		return false
	case Last:
		if c.last == Nil {
			return true
		}
		return c.storeTo(g, c.last, v, now)
	}
	return c.storeTo(g, l.Port, v, now)
}

func (c *Compute) storeTo(g *Grid, d Port, v Cell, now uint64) bool {
	switch n := g.neighbor(c.pos, d).(type) {
	case nil:
		c.setFault(ErrNoNeighbor, now)
	case *Disabled:
		c.setFault(ErrDisabledNeighbor, now)
	case *Stream:
		if n.offer(d.Opposite(), v) {
			return true
		}
		c.setFault(ErrNotWritable, now)
	}
	c.out.put(v, d.mask(), now)
	return false
}

func (c *Compute) setFault(err error, now uint64) {
	if c.fault != nil {
		return
	}
	c.fault = &ExecError{Pos: c.pos, PC: c.pc, Instruction: c.code[c.pc], Tick: now, Err: err}
}

type stackCell struct {
	v    Cell
	tick uint64
}

// Storage is a storage node. It never runs code: every tick it pulls the
// values its computing neighbors are writing towards it and pushes them on a
// stack. Any neighbor reading from it pops the top of the stack.
type Storage struct {
	pos   int
	stack []stackCell
}

// Pos returns the node position.
func (s *Storage) Pos() int { return s.pos }

// Stack returns the stored values, bottom first.
func (s *Storage) Stack() []Cell {
	r := make([]Cell, len(s.stack))
	for i := range s.stack {
		r[i] = s.stack[i].v
	}
	return r
}

func (s *Storage) update(g *Grid, now uint64) {
	for _, d := range Directions {
		c, ok := g.neighbor(s.pos, d).(*Compute)
		if !ok {
			continue
		}
		if v, ok := c.take(d.Opposite(), now); ok {
			s.stack = append(s.stack, stackCell{v, now})
		}
	}
}

// take pops the topmost value pushed in an earlier tick. Values pushed during
// tick now sit above it and are left in place.
func (s *Storage) take(_ Port, now uint64) (Cell, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].tick < now {
			v := s.stack[i].v
			s.stack = slices.Delete(s.stack, i, i+1)
			return v, true
		}
	}
	return 0, false
}

// Disabled is a broken node. It does nothing and never yields a value.
type Disabled struct {
	pos int
}

// Pos returns the node position.
func (d *Disabled) Pos() int { return d.pos }

func (*Disabled) update(*Grid, uint64) {}

func (*Disabled) take(Port, uint64) (Cell, bool) { return 0, false }
