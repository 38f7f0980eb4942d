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

// Package puzzle loads puzzle definitions written in Lua and reports puzzle
// results.
//
// A puzzle script defines the functions get_layout and get_streams, and
// optionally get_name and get_description:
//
//	function get_name()
//		return "SIGNAL AMPLIFIER"
//	end
//
//	function get_layout()
//		return {
//			TILE_COMPUTE, TILE_COMPUTE, TILE_COMPUTE, TILE_DAMAGED,
//			TILE_MEMORY,  TILE_COMPUTE, TILE_COMPUTE, TILE_COMPUTE,
//			TILE_COMPUTE, TILE_COMPUTE, TILE_COMPUTE, TILE_COMPUTE,
//		}
//	end
//
//	function get_streams()
//		input = {}
//		output = {}
//		for i = 1,39 do
//			input[i] = math.random(-120, 120)
//			output[i] = input[i] * 2
//		end
//		return {
//			{ STREAM_INPUT, "IN.A", 1, input },
//			{ STREAM_OUTPUT, "OUT.A", 2, output },
//		}
//	end
//
// The globals STREAM_INPUT, STREAM_OUTPUT, STREAM_IMAGE, TILE_COMPUTE,
// TILE_MEMORY and TILE_DAMAGED are defined before the script runs.
package puzzle

import (
	"context"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/db47h/tis/vm"
)

var globals = []struct {
	name string
	v    int
}{
	{"STREAM_INPUT", int(vm.StreamInput)},
	{"STREAM_OUTPUT", int(vm.StreamOutput)},
	{"STREAM_IMAGE", int(vm.StreamImage)},
	{"TILE_COMPUTE", int(vm.TileCompute)},
	{"TILE_MEMORY", int(vm.TileStorage)},
	{"TILE_DAMAGED", int(vm.TileDisabled)},
}

// Load runs the puzzle script read from r and returns the puzzle it
// describes. The name is used in error messages. The script's math.random
// is seeded with seed, so that a given seed always yields the same streams.
//
// The script is interrupted if ctx is cancelled.
func Load(ctx context.Context, name string, r io.Reader, seed int64) (vm.Puzzle, error) {
	var p vm.Puzzle

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	for _, g := range globals {
		L.SetGlobal(g.name, lua.LNumber(g.v))
	}
	installRandom(L, seed)

	fn, err := L.Load(r, name)
	if err != nil {
		return p, errors.Wrapf(err, "%s: load failed", name)
	}
	L.Push(fn)
	if err = L.PCall(0, lua.MultRet, nil); err != nil {
		return p, errors.Wrapf(err, "%s: script failed", name)
	}

	if v, err := call(L, "get_name", true); err != nil {
		return p, errors.Wrap(err, name)
	} else if v != lua.LNil {
		p.Name = lua.LVAsString(v)
	}
	if v, err := call(L, "get_description", true); err != nil {
		return p, errors.Wrap(err, name)
	} else if t, ok := v.(*lua.LTable); ok {
		for i := 1; i <= t.Len(); i++ {
			p.Description = append(p.Description, lua.LVAsString(t.RawGetInt(i)))
		}
	} else if v != lua.LNil {
		p.Description = []string{lua.LVAsString(v)}
	}

	v, err := call(L, "get_layout", false)
	if err != nil {
		return p, errors.Wrap(err, name)
	}
	if p.Layout, err = layout(v); err != nil {
		return p, errors.Wrapf(err, "%s: get_layout", name)
	}

	v, err = call(L, "get_streams", false)
	if err != nil {
		return p, errors.Wrap(err, name)
	}
	if p.Streams, err = streams(v); err != nil {
		return p, errors.Wrapf(err, "%s: get_streams", name)
	}
	return p, nil
}

// LoadFile loads the puzzle script in the named file.
func LoadFile(ctx context.Context, fileName string, seed int64) (vm.Puzzle, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return vm.Puzzle{}, errors.Wrap(err, "puzzle load failed")
	}
	defer f.Close()
	return Load(ctx, fileName, f, seed)
}

// call calls the global function fn and returns its first result. A missing
// function is an error unless optional is set, in which case LNil is returned.
func call(L *lua.LState, fn string, optional bool) (lua.LValue, error) {
	f, ok := L.GetGlobal(fn).(*lua.LFunction)
	if !ok {
		if optional {
			return lua.LNil, nil
		}
		return nil, errors.Errorf("function %s not defined", fn)
	}
	if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}); err != nil {
		return nil, errors.Wrapf(err, "%s failed", fn)
	}
	v := L.Get(-1)
	L.Pop(1)
	return v, nil
}

func layout(v lua.LValue) ([]vm.Tile, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, errors.Errorf("expected a table, got %s", v.Type())
	}
	if t.Len() != vm.Size {
		return nil, errors.Wrapf(vm.ErrBadLayout, "%d tiles", t.Len())
	}
	tiles := make([]vm.Tile, vm.Size)
	for i := range tiles {
		n, err := integer(t.RawGetInt(i + 1))
		if err != nil {
			return nil, errors.Wrapf(err, "tile %d", i)
		}
		switch tile := vm.Tile(n); tile {
		case vm.TileCompute, vm.TileStorage, vm.TileDisabled:
			tiles[i] = tile
		default:
			return nil, errors.Wrapf(vm.ErrUnknownTile, "tile %d: %d", i, n)
		}
	}
	return tiles, nil
}

func streams(v lua.LValue) ([]vm.StreamSpec, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, errors.Errorf("expected a table, got %s", v.Type())
	}
	specs := make([]vm.StreamSpec, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		s, err := stream(t.RawGetInt(i))
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", i)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func stream(v lua.LValue) (s vm.StreamSpec, err error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return s, errors.Errorf("expected a table, got %s", v.Type())
	}
	kind, err := integer(t.RawGetInt(1))
	if err != nil {
		return s, errors.Wrap(err, "kind")
	}
	switch s.Kind = vm.StreamKind(kind); s.Kind {
	case vm.StreamInput, vm.StreamOutput, vm.StreamImage:
	default:
		return s, errors.Wrapf(vm.ErrUnknownStream, "kind %d", kind)
	}
	name, ok := t.RawGetInt(2).(lua.LString)
	if !ok {
		return s, errors.New("name: expected a string")
	}
	s.Name = string(name)
	col, err := integer(t.RawGetInt(3))
	if err != nil {
		return s, errors.Wrapf(err, "%s: column", s.Name)
	}
	s.Column = int(col)
	vals, ok := t.RawGetInt(4).(*lua.LTable)
	if !ok {
		return s, errors.Errorf("%s: values: expected a table", s.Name)
	}
	s.Values = make([]vm.Cell, 0, vals.Len())
	for i := 1; i <= vals.Len(); i++ {
		n, err := integer(vals.RawGetInt(i))
		if err != nil {
			return s, errors.Wrapf(err, "%s: value %d", s.Name, i)
		}
		s.Values = append(s.Values, vm.Cell(n))
	}
	return s, nil
}

// integer converts v to a number that fits in a vm.Cell.
func integer(v lua.LValue) (int64, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, errors.Errorf("expected a number, got %s", v.Type())
	}
	f := float64(n)
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, errors.Errorf("%v is not a valid integer", f)
	}
	return int64(f), nil
}

// installRandom replaces math.random and math.randomseed with versions backed
// by a generator private to L.
func installRandom(L *lua.LState, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	m, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable)
	if !ok {
		return
	}
	L.SetField(m, "randomseed", L.NewFunction(func(L *lua.LState) int {
		rng.Seed(L.CheckInt64(1))
		return 0
	}))
	L.SetField(m, "random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
		case 1:
			n := L.CheckInt64(1)
			if n < 1 {
				L.ArgError(1, "interval is empty")
			}
			L.Push(lua.LNumber(rng.Int63n(n) + 1))
		default:
			lo, hi := L.CheckInt64(1), L.CheckInt64(2)
			if lo > hi {
				L.ArgError(2, "interval is empty")
			}
			if d := hi - lo; d < 0 || d == math.MaxInt64 {
				L.ArgError(2, "interval is too large")
			}
			L.Push(lua.LNumber(lo + rng.Int63n(hi-lo+1)))
		}
		return 1
	}))
}
