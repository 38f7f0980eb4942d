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

// The tis command runs solutions of TIS-100 puzzles and reports their results.
//
// Usage:
//
//	tis [flags] -puzzle puzzle.lua solution.tis...
//
//	-debug
//		  enable debug diagnostics
//	-max n
//		  give up after n ticks (0 means no limit) (default 1000000)
//	-o filename
//		  write results to filename instead of stdout
//	-puzzle filename
//		  puzzle definition filename (Lua)
//	-seed seed
//		  random seed for the puzzle streams
//	-step
//		  run a single solution one tick per key press
//
// Each solution file is run on its own grid. Solutions run concurrently and
// their results are written in the order of the command line:
//
//	sol.tis: 84 ticks, complete
//	OUT.A: 2 4 6 ok
//
// -debug: will use a development logger and print a full stacktrace on
// errors.
//
// -seed: the puzzle script's math.random is seeded with this value, so that
// a given seed always produces the same input and output streams.
//
// -step: switches the terminal to raw mode and runs the grid one tick per key
// press, dumping the state of every node after each tick. Press q to stop.
//
// The exit status is 1 if a puzzle or solution cannot be loaded or if any
// solution does not complete.
package main
