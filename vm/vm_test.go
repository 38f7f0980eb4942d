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

package vm_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/db47h/tis/internal/testutil"
	"github.com/db47h/tis/vm"
)

type C []vm.Cell

func newGrid(t *testing.T, compute, storage []int, streams []vm.StreamSpec, opts ...vm.Option) *vm.Grid {
	g, err := vm.New(vm.Puzzle{
		Layout:  testutil.Layout(compute, storage),
		Streams: streams,
	}, opts...)
	require.NoError(t, err)
	return g
}

func step(t *testing.T, g *vm.Grid, n int) {
	for i := 0; i < n; i++ {
		require.NoError(t, g.Step())
	}
}

func compute(t *testing.T, g *vm.Grid, pos int) *vm.Compute {
	c, ok := g.Compute(pos)
	require.True(t, ok)
	return c
}

func TestCore(t *testing.T) {
	var tests = [...]struct {
		name  string
		code  string
		ticks int
		acc   vm.Cell
		bak   vm.Cell
		pc    int
	}{
		{"nop", "NOP\nNOP", 1, 0, 0, 1},
		{"mov", "MOV 12, ACC\nNOP", 1, 12, 0, 1},
		{"mov nil", "MOV 12, ACC\nMOV NIL, ACC\nNOP", 2, 0, 0, 2},
		{"mov discard", "MOV 12, NIL\nNOP", 1, 0, 0, 1},
		{"swp", "MOV 3, ACC\nSWP\nNOP", 2, 0, 3, 2},
		{"sav", "MOV 3, ACC\nSAV\nNOP", 2, 3, 3, 2},
		{"add", "ADD 5\nADD -7\nNOP", 2, -2, 0, 2},
		{"sub", "SUB 5\nSUB -7\nNOP", 2, 2, 0, 2},
		{"neg", "MOV 4, ACC\nNEG\nNOP", 2, -4, 0, 2},
		{"jmp", "JMP L\nADD 1\nL: ADD 2", 2, 2, 0, 0},
		{"jez", "JEZ L\nADD 1\nL: ADD 2\nNOP", 2, 2, 0, 3},
		{"jez not taken", "ADD 1\nJEZ L\nADD 1\nL: NOP", 3, 2, 0, 3},
		{"jnz", "ADD 1\nJNZ L\nADD 1\nL: NOP", 2, 1, 0, 3},
		{"jgz", "ADD 1\nJGZ L\nADD 1\nL: NOP", 2, 1, 0, 3},
		{"jlz", "SUB 1\nJLZ L\nADD 1\nL: NOP", 2, -1, 0, 3},
		{"jlz not taken", "JLZ L\nNOP\nL: NOP", 1, 0, 0, 1},
		{"jro", "JRO 2\nADD 1\nADD 2\nNOP", 2, 2, 0, 3},
		{"jro acc", "MOV -1, ACC\nJRO ACC\nNOP", 2, -1, 0, 0},
		{"jro clamp high", "JRO 10\nNOP\nNOP", 1, 0, 0, 2},
		{"jro clamp low", "NOP\nJRO -10\nNOP", 2, 0, 0, 0},
		{"wrap", "ADD 1\nADD 1", 3, 3, 0, 1},
		{"label at end", "ADD 1\nJMP END\nEND:", 2, 1, 0, 0},
		{"last unset", "MOV 6, LAST\nMOV LAST, ACC\nNOP", 2, 0, 0, 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := newGrid(t, []int{5}, nil, nil)
			testutil.Load(t, g, 5, test.code)
			step(t, g, test.ticks)
			c := compute(t, g, 5)
			require.Equal(t, test.acc, c.ACC(), "ACC")
			require.Equal(t, test.bak, c.BAK(), "BAK")
			require.Equal(t, test.pc, c.PC(), "PC")
			require.NoError(t, c.Fault())
		})
	}
}

// a value written during a tick can only be read on the next one, whatever
// the relative positions of reader and writer.
func TestWriteVisibility(t *testing.T) {
	for _, tc := range []struct {
		name           string
		writer, reader int
		out, in        string
	}{
		{"left to right", 5, 6, "RIGHT", "LEFT"},
		{"right to left", 6, 5, "LEFT", "RIGHT"},
		{"top to bottom", 1, 5, "DOWN", "UP"},
		{"bottom to top", 5, 1, "UP", "DOWN"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newGrid(t, []int{tc.writer, tc.reader}, nil, nil)
			testutil.Load(t, g, tc.writer, "MOV 42, "+tc.out+"\nH: JMP H")
			testutil.Load(t, g, tc.reader, "MOV "+tc.in+", ACC\nH: JMP H")
			w, r := compute(t, g, tc.writer), compute(t, g, tc.reader)

			step(t, g, 1)
			v, ok := w.Pending()
			require.True(t, ok)
			require.Equal(t, vm.Cell(42), v)
			require.Equal(t, 0, w.PC())
			require.Equal(t, vm.Cell(0), r.ACC())
			require.Equal(t, 0, r.PC())

			step(t, g, 1)
			require.Equal(t, vm.Cell(42), r.ACC())
			require.Equal(t, 1, r.PC())
			_, ok = w.Pending()
			require.False(t, ok)
			// the writer retires on the tick after consumption.
			require.Equal(t, 0, w.PC())

			step(t, g, 1)
			require.Equal(t, 1, w.PC())
		})
	}
}

func TestPCFrozenWhileWriting(t *testing.T) {
	g := newGrid(t, []int{4, 5}, nil, nil)
	testutil.Load(t, g, 4, "MOV 1, RIGHT\nMOV 2, RIGHT\nMOV 3, RIGHT")
	// slow reader: one read every 4 ticks
	testutil.Load(t, g, 5, "NOP\nNOP\nNOP\nADD LEFT")
	w := compute(t, g, 4)
	for i := 0; i < 200; i++ {
		_, pending := w.Pending()
		pc := w.PC()
		step(t, g, 1)
		if pending {
			require.Equal(t, pc, w.PC(), "tick %d", g.Ticks())
		}
	}
	require.Greater(t, compute(t, g, 5).ACC(), vm.Cell(0))
}

func TestAnyWriteDeliveredOnce(t *testing.T) {
	g := newGrid(t, []int{1, 4, 5, 6, 9}, nil, nil)
	testutil.Load(t, g, 5, "MOV 7, ANY\nH: JMP H")
	testutil.Load(t, g, 1, "MOV DOWN, ACC\nH: JMP H")
	testutil.Load(t, g, 4, "MOV RIGHT, ACC\nH: JMP H")
	testutil.Load(t, g, 6, "MOV LEFT, ACC\nH: JMP H")
	testutil.Load(t, g, 9, "MOV UP, ACC\nH: JMP H")
	step(t, g, 20)

	got := 0
	for _, p := range []int{1, 4, 6, 9} {
		if compute(t, g, p).ACC() == 7 {
			got++
		}
	}
	require.Equal(t, 1, got)
	// node 1 is visited first
	require.Equal(t, vm.Cell(7), compute(t, g, 1).ACC())
	w := compute(t, g, 5)
	require.Equal(t, vm.Up, w.Last())
	require.Equal(t, 1, w.PC())
}

func TestAnyRead(t *testing.T) {
	g := newGrid(t, []int{4, 5, 6}, nil, nil)
	testutil.Load(t, g, 4, "MOV 1, RIGHT\nH: JMP H")
	testutil.Load(t, g, 6, "MOV 2, LEFT\nH: JMP H")
	testutil.Load(t, g, 5, "MOV ANY, ACC\nSWP\nMOV ANY, ACC\nMOV LAST, NIL")
	step(t, g, 5)
	c := compute(t, g, 5)
	// LEFT comes before RIGHT
	require.Equal(t, vm.Cell(1), c.BAK())
	require.Equal(t, vm.Cell(2), c.ACC())
	require.Equal(t, vm.Right, c.Last())
}

func TestLast(t *testing.T) {
	g := newGrid(t, []int{4, 5}, nil, nil)
	testutil.Load(t, g, 4, "MOV 1, RIGHT\nMOV 2, RIGHT\nH: JMP H")
	testutil.Load(t, g, 5, "ADD ANY\nADD LAST\nH: JMP H")
	step(t, g, 10)
	c := compute(t, g, 5)
	require.Equal(t, vm.Cell(3), c.ACC())
	require.Equal(t, vm.Left, c.Last())
}

func TestStorage(t *testing.T) {
	g := newGrid(t, []int{4, 6}, []int{5}, nil)
	testutil.Load(t, g, 4, "MOV 1, RIGHT\nMOV 2, RIGHT\nMOV 3, RIGHT\nH: JMP H")
	step(t, g, 10)
	s, ok := g.Storage(5)
	require.True(t, ok)
	require.Equal(t, C{1, 2, 3}, C(s.Stack()))
	require.Equal(t, 3, compute(t, g, 4).PC())
}

func TestStorageReadDelay(t *testing.T) {
	g := newGrid(t, []int{4, 6}, []int{5}, nil)
	testutil.Load(t, g, 4, "MOV 9, RIGHT\nH: JMP H")
	testutil.Load(t, g, 6, "MOV LEFT, ACC\nH: JMP H")
	r := compute(t, g, 6)
	// tick 0: deposit, tick 1: pulled by storage, tick 2: visible to reader.
	step(t, g, 2)
	require.Equal(t, 0, r.PC())
	step(t, g, 1)
	require.Equal(t, vm.Cell(9), r.ACC())
	s, _ := g.Storage(5)
	require.Empty(t, s.Stack())
}

// A reader gets the value stored before the current tick whether it is
// updated before or after the storage node pulls a new one.
func TestStorageReadOrder(t *testing.T) {
	for _, tc := range []struct {
		name           string
		writer, reader int
		to, from       string
	}{
		{"reader after storage", 4, 6, "RIGHT", "LEFT"},
		{"reader before storage", 6, 4, "LEFT", "RIGHT"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newGrid(t, []int{4, 6}, []int{5}, nil)
			testutil.Load(t, g, tc.writer, "MOV 1, "+tc.to+"\nMOV 2, "+tc.to+"\nH: JMP H")
			// the read happens in tick 3, when 1 is stored and 2 gets pulled.
			testutil.Load(t, g, tc.reader, "NOP\nNOP\nNOP\nMOV "+tc.from+", ACC\nH: JMP H")
			step(t, g, 4)
			r := compute(t, g, tc.reader)
			require.Equal(t, vm.Cell(1), r.ACC())
			require.Equal(t, 4, r.PC())
			s, _ := g.Storage(5)
			require.Equal(t, C{2}, C(s.Stack()))
		})
	}
}

// A storage node relays values between two computing nodes.
// Values come back from the same end they were pushed to.
func TestStorageRelay(t *testing.T) {
	g := newGrid(t, []int{8, 10}, []int{9}, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 2, Values: C{2, 1}},
	}, vm.MaxTicks(200))
	testutil.Load(t, g, 8, "MOV 1, RIGHT\nMOV 2, RIGHT\nH: JMP H")
	testutil.Load(t, g, 10, `
		MOV 10, ACC
	W:	SUB 1
		JGZ W
		MOV LEFT, DOWN
		MOV LEFT, DOWN
	H:	JMP H`)
	require.NoError(t, g.Run(testutil.Context(t)))
	require.True(t, g.Complete())
	require.Equal(t, C{2, 1}, C(g.Results()[0].Received))
	s, _ := g.Storage(9)
	require.Empty(t, s.Stack())
}

// Values flow from an input stream to an output stream.
func TestPassThrough(t *testing.T) {
	g := newGrid(t, []int{0, 4, 8}, nil, []vm.StreamSpec{
		{Kind: vm.StreamInput, Name: "IN", Column: 0, Values: C{3, 7}},
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0, Values: C{3, 7}},
	}, vm.MaxTicks(100))
	testutil.Load(t, g, 0, "MOV UP, DOWN")
	testutil.Load(t, g, 4, "MOV UP, DOWN")
	testutil.Load(t, g, 8, "MOV UP, ACC\nMOV ACC, DOWN")
	require.False(t, g.Complete())
	require.NoError(t, g.Run(testutil.Context(t)))
	require.Less(t, g.Ticks(), uint64(100))
	rs := g.Results()
	require.Len(t, rs, 1)
	require.Equal(t, "OUT", rs[0].Name)
	require.Equal(t, C{3, 7}, C(rs[0].Received))
	require.True(t, rs[0].OK())
	require.Equal(t, 2, g.Streams()[0].Delivered())
}

// Writing towards a disabled node stalls forever.
func TestWriteToDisabled(t *testing.T) {
	g := newGrid(t, []int{0}, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0, Values: C{10}},
	}, vm.MaxTicks(50))
	testutil.Load(t, g, 0, "MOV 5, ACC\nSAV\nADD ACC\nMOV ACC, DOWN")
	err := g.Run(testutil.Context(t))
	require.Equal(t, vm.ErrTickLimit, errors.Cause(err))
	require.Equal(t, uint64(50), g.Ticks())

	c := compute(t, g, 0)
	v, ok := c.Pending()
	require.True(t, ok)
	require.Equal(t, vm.Cell(10), v)
	require.Equal(t, 3, c.PC())
	require.Equal(t, vm.ErrDisabledNeighbor, errors.Cause(c.Fault()))
	var ee *vm.ExecError
	require.ErrorAs(t, c.Fault(), &ee)
	require.Equal(t, 0, ee.Pos)
	require.Equal(t, 3, ee.PC)
	require.Equal(t, uint64(3), ee.Tick)
	require.Len(t, g.Faults(), 1)

	step(t, g, 10)
	require.Equal(t, uint64(60), g.Ticks())
	require.False(t, g.Complete())
}

// JRO -1 on a single instruction spins in place.
func TestJROSpin(t *testing.T) {
	g := newGrid(t, []int{0}, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 1, Values: C{1}},
	}, vm.MaxTicks(1000))
	testutil.Load(t, g, 0, "JRO -1")
	err := g.Run(testutil.Context(t))
	require.Equal(t, vm.ErrTickLimit, errors.Cause(err))
	c := compute(t, g, 0)
	require.Equal(t, 0, c.PC())
	require.Equal(t, vm.Cell(0), c.ACC())
	require.Equal(t, vm.Cell(0), c.BAK())
	require.NoError(t, c.Fault())
}

func TestReadFaults(t *testing.T) {
	g := newGrid(t, []int{0, 4}, nil, nil)
	testutil.Load(t, g, 0, "MOV LEFT, ACC")
	testutil.Load(t, g, 4, "MOV DOWN, ACC")
	step(t, g, 5)
	require.Equal(t, vm.ErrNoNeighbor, errors.Cause(compute(t, g, 0).Fault()))
	require.Equal(t, vm.ErrDisabledNeighbor, errors.Cause(compute(t, g, 4).Fault()))
	require.Len(t, g.Faults(), 2)
}

func TestWriteToInput(t *testing.T) {
	g := newGrid(t, []int{2}, nil, []vm.StreamSpec{
		{Kind: vm.StreamInput, Name: "IN", Column: 2, Values: C{1}},
	})
	testutil.Load(t, g, 2, "MOV 1, UP")
	step(t, g, 2)
	require.Equal(t, vm.ErrNotWritable, errors.Cause(compute(t, g, 2).Fault()))
	require.Equal(t, 0, g.Streams()[0].Delivered())
}

func TestReadFromOutput(t *testing.T) {
	g := newGrid(t, []int{9}, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 1, Values: C{1}},
	})
	testutil.Load(t, g, 9, "MOV DOWN, ACC")
	step(t, g, 3)
	c := compute(t, g, 9)
	require.Equal(t, 0, c.PC())
	require.Equal(t, vm.ErrNotReadable, errors.Cause(c.Fault()))
	require.Empty(t, g.Results()[0].Received)
}

func TestInputExhausted(t *testing.T) {
	g := newGrid(t, []int{1}, nil, []vm.StreamSpec{
		{Kind: vm.StreamInput, Name: "IN", Column: 1, Values: C{4, 5}},
	})
	testutil.Load(t, g, 1, "ADD UP")
	step(t, g, 10)
	c := compute(t, g, 1)
	require.Equal(t, vm.Cell(9), c.ACC())
	require.Equal(t, 0, c.PC())
	require.NoError(t, c.Fault())
}

// The grid completes once outputs match, even with input left over.
func TestCompleteIgnoresInput(t *testing.T) {
	g := newGrid(t, []int{3, 7, 11}, nil, []vm.StreamSpec{
		{Kind: vm.StreamInput, Name: "IN", Column: 3, Values: C{1, 2, 3, 4}},
		{Kind: vm.StreamOutput, Name: "OUT", Column: 3, Values: C{2}},
	}, vm.MaxTicks(100))
	testutil.Load(t, g, 3, "MOV UP, ACC\nADD 1\nMOV ACC, DOWN")
	testutil.Load(t, g, 7, "MOV UP, DOWN")
	testutil.Load(t, g, 11, "MOV UP, DOWN")
	require.NoError(t, g.Run(testutil.Context(t)))
	require.Less(t, g.Streams()[0].Delivered(), 4)
}

func TestStopOnMismatch(t *testing.T) {
	g := newGrid(t, []int{8}, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0, Values: C{1, 2}},
	}, vm.MaxTicks(100), vm.StopOnMismatch(true))
	testutil.Load(t, g, 8, "MOV 1, DOWN\nMOV 3, DOWN")
	err := g.Run(testutil.Context(t))
	require.Equal(t, vm.ErrMismatch, errors.Cause(err))
	require.Equal(t, C{1, 3}, C(g.Results()[0].Received))
	require.False(t, g.Results()[0].OK())
}

func TestRunCancelled(t *testing.T) {
	g := newGrid(t, []int{0}, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0, Values: C{1}},
	})
	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()
	err := g.Run(ctx)
	require.Equal(t, context.Canceled, errors.Cause(err))
}

func TestTrace(t *testing.T) {
	var ticks []uint64
	g := newGrid(t, []int{0}, nil, nil, vm.Trace(func(tick uint64, _ *vm.Grid) {
		ticks = append(ticks, tick)
	}))
	step(t, g, 3)
	require.Equal(t, []uint64{1, 2, 3}, ticks)
}

func TestEmptyProgram(t *testing.T) {
	g := newGrid(t, []int{0, 1}, nil, nil)
	testutil.Load(t, g, 1, "MOV 1, LEFT")
	step(t, g, 10)
	c, _ := g.Compute(0)
	require.Empty(t, c.Code())
	require.Equal(t, 0, c.PC())
	v, ok := compute(t, g, 1).Pending()
	require.True(t, ok)
	require.Equal(t, vm.Cell(1), v)
}

func TestNotCompleteBeforeStart(t *testing.T) {
	g := newGrid(t, nil, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0, Values: C{1}},
		{Kind: vm.StreamImage, Name: "IMG", Column: 1},
	})
	require.False(t, g.Complete())
	require.Equal(t, uint64(0), g.Ticks())

	g = newGrid(t, nil, nil, []vm.StreamSpec{
		{Kind: vm.StreamOutput, Name: "OUT", Column: 0},
	})
	require.True(t, g.Complete())
}
