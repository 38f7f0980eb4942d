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
	"context"
	"math"
	"slices"

	"github.com/pkg/errors"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
)

// Step simulates a single tick: every node is updated once, in position
// order.
//
// Step returns ErrOverflow if the tick counter cannot be incremented any
// further. This is unrecoverable.
func (g *Grid) Step() error {
	if g.tick == math.MaxUint64 {
		return errors.WithStack(ErrOverflow)
	}
	now := g.tick
	for _, n := range g.nodes {
		n.update(g, now)
	}
	g.tick++
	if g.trace != nil {
		g.trace(g.tick, g)
	}
	return nil
}

// Complete reports whether every output stream received exactly its reference
// values. Input streams do not need to be exhausted.
func (g *Grid) Complete() bool {
	for _, s := range g.streams {
		if s.Kind == StreamOutput && !s.Satisfied() {
			return false
		}
	}
	return true
}

// Run steps the grid until it is Complete.
//
// Run also stops when ctx is done, when the tick limit set with MaxTicks is
// reached (ErrTickLimit), or, if StopOnMismatch is set, as soon as an output
// stream diverges from its reference (ErrMismatch). Execution faults do not
// stop the grid, they are logged once per node.
func (g *Grid) Run(ctx context.Context) error {
	for !g.Complete() {
		if g.tick&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "tick %d", g.tick)
			}
		}
		if g.maxTicks > 0 && g.tick >= g.maxTicks {
			return errors.Wrapf(ErrTickLimit, "%d ticks", g.tick)
		}
		if err := g.Step(); err != nil {
			return err
		}
		g.reportFaults(ctx)
		if g.stop {
			for _, s := range g.streams {
				if s.Kind == StreamOutput && s.Diverged() {
					return errors.Wrapf(ErrMismatch, "stream %s, tick %d", s.Name, g.tick)
				}
			}
		}
	}
	logctx.Info(ctx, "grid complete", zap.Uint64("ticks", g.tick))
	return nil
}

func (g *Grid) reportFaults(ctx context.Context) {
	for i, n := range g.nodes {
		c, ok := n.(*Compute)
		if !ok || c.fault == nil || g.reported[i] {
			continue
		}
		g.reported[i] = true
		logctx.Warnf(ctx, "node parked: %v", c.fault)
	}
}

// Result holds the outcome of an output stream.
type Result struct {
	Name     string
	Column   int
	Expected []Cell
	Received []Cell
}

// OK reports whether the received values match the expected ones.
func (r *Result) OK() bool {
	return slices.Equal(r.Expected, r.Received)
}

// Results returns the values received by each output stream, in puzzle order.
func (g *Grid) Results() []Result {
	var r []Result
	for _, s := range g.streams {
		if s.Kind != StreamOutput {
			continue
		}
		r = append(r, Result{
			Name:     s.Name,
			Column:   s.Column,
			Expected: slices.Clone(s.values),
			Received: slices.Clone(s.received),
		})
	}
	return r
}
