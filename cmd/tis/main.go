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

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/pkg/errors"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/db47h/tis/asm"
	"github.com/db47h/tis/puzzle"
	"github.com/db47h/tis/vm"
)

var (
	puzzleName  string
	seed        int64
	maxTicks    uint64
	outFileName string
	stepMode    bool
	debug       bool
)

var errFailed = errors.New("some solutions failed")

// run holds a solution and the outcome of its execution.
type run struct {
	name string
	g    *vm.Grid
	err  error
}

func atExit(err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// loadSolution assembles the named solution file and loads it into a new grid
// for puzzle p.
func loadSolution(p vm.Puzzle, name string) (*vm.Grid, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "solution load failed")
	}
	defer f.Close()
	progs, err := asm.Assemble(name, bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	g, err := vm.New(p, vm.MaxTicks(maxTicks))
	if err != nil {
		return nil, err
	}
	nodes := g.ComputeNodes()
	for _, prog := range progs {
		if prog.Node >= len(nodes) {
			return nil, errors.Errorf("%s: no computing node @%d in this puzzle", name, prog.Node)
		}
		if err = g.Load(nodes[prog.Node], prog.Code, prog.Labels); err != nil {
			return nil, errors.Wrapf(err, "%s: @%d", name, prog.Node)
		}
	}
	return g, nil
}

func runAll(ctx context.Context, l *zap.Logger, runs []run) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range runs {
		r := &runs[i]
		eg.Go(func() error {
			ctx := logctx.NewContext(ctx, l.With(zap.String("solution", r.name)))
			r.err = r.g.Run(ctx)
			if errors.Cause(r.err) == vm.ErrOverflow {
				return r.err
			}
			return nil
		})
	}
	return eg.Wait()
}

// stepRun runs the grid one tick per key press and dumps its state after each
// tick. Pressing q stops the run.
func stepRun(ctx context.Context, r *run, in io.Reader, out io.Writer) error {
	tearDown, err := setRawIO()
	if err != nil {
		logctx.Warnf(ctx, "cannot switch terminal to raw mode: %v", err)
	} else {
		defer tearDown()
	}
	key := make([]byte, 1)
	if err = dumpGrid(out, r.g); err != nil {
		return err
	}
	for !r.g.Complete() {
		if _, err = in.Read(key); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "read failed")
		}
		if key[0] == 'q' || key[0] == 'Q' {
			r.err = errors.Wrapf(context.Canceled, "stopped at tick %d", r.g.Ticks())
			return nil
		}
		if err = r.g.Step(); err != nil {
			return err
		}
		if err = dumpGrid(out, r.g); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(w io.Writer, runs []run) error {
	for i := range runs {
		r := &runs[i]
		status := "complete"
		if r.err != nil {
			status = r.err.Error()
		}
		if _, err := fmt.Fprintf(w, "%s: %d ticks, %s\n", r.name, r.g.Ticks(), status); err != nil {
			return errors.Wrap(err, "write failed")
		}
		if err := puzzle.WriteResults(w, r.g.Results()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	var err error
	defer func() { atExit(err) }()

	flag.StringVar(&puzzleName, "puzzle", "", "puzzle definition `filename` (Lua)")
	flag.Int64Var(&seed, "seed", 0, "random `seed` for the puzzle streams")
	flag.Uint64Var(&maxTicks, "max", 1000000, "give up after `n` ticks (0 means no limit)")
	flag.StringVar(&outFileName, "o", "", "write results to `filename` instead of stdout")
	flag.BoolVar(&stepMode, "step", false, "run a single solution one tick per key press")
	flag.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	flag.Parse()

	if puzzleName == "" || flag.NArg() == 0 {
		flag.Usage()
		err = errors.New("a puzzle and at least one solution file are required")
		return
	}
	if stepMode && flag.NArg() != 1 {
		err = errors.New("-step requires exactly one solution file")
		return
	}

	l, err := newLogger()
	if err != nil {
		return
	}
	defer l.Sync()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = logctx.NewContext(ctx, l)

	p, err := puzzle.LoadFile(ctx, puzzleName, seed)
	if err != nil {
		return
	}
	logctx.Infof(ctx, "puzzle %q loaded", p.Name)

	runs := make([]run, flag.NArg())
	for i, name := range flag.Args() {
		runs[i].name = name
		if runs[i].g, err = loadSolution(p, name); err != nil {
			return
		}
	}

	out := bufio.NewWriter(os.Stdout)
	if outFileName != "" {
		var f *os.File
		if f, err = os.Create(outFileName); err != nil {
			err = errors.Wrap(err, "cannot create results file")
			return
		}
		defer f.Close()
		out = bufio.NewWriter(f)
	}

	if stepMode {
		err = stepRun(ctx, &runs[0], os.Stdin, os.Stdout)
	} else {
		err = runAll(ctx, l, runs)
	}
	if err != nil {
		return
	}

	if err = writeResults(out, runs); err != nil {
		return
	}
	if err = out.Flush(); err != nil {
		err = errors.Wrap(err, "write failed")
		return
	}
	for i := range runs {
		if runs[i].err != nil {
			err = errFailed
			return
		}
	}
}
