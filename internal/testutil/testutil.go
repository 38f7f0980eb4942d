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

// Package testutil holds helpers shared by tests.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"github.com/db47h/tis/asm"
	"github.com/db47h/tis/vm"
)

// Context returns a context carrying a development logger. It is cancelled
// when the test ends.
func Context(t testing.TB) context.Context {
	ctx := context.Background()
	ctx, cf := context.WithCancel(ctx)
	t.Cleanup(cf)
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	ctx = logctx.NewContext(ctx, l)
	return ctx
}

// Layout builds a grid layout where every tile is disabled except for the
// given computing and storage positions.
func Layout(compute []int, storage []int) []vm.Tile {
	l := make([]vm.Tile, vm.Size)
	for i := range l {
		l[i] = vm.TileDisabled
	}
	for _, p := range compute {
		l[p] = vm.TileCompute
	}
	for _, p := range storage {
		l[p] = vm.TileStorage
	}
	return l
}

// Load assembles src as the program of the node at pos and loads it into g.
func Load(t testing.TB, g *vm.Grid, pos int, src string) {
	progs, err := asm.Assemble(t.Name(), strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, progs, 1)
	require.NoError(t, g.Load(pos, progs[0].Code, progs[0].Labels))
}
