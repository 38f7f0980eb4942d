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

// Package vm implements a grid of small processors in the style of the
// TIS-100.
//
// A Grid holds 3 rows of 4 nodes. Each node is either a computing node
// running a short assembly program against two registers (ACC and BAK), a
// storage node acting as a stack for its neighbors, or a disabled node. Nodes
// exchange single Cell values over their four directional ports. Both reads
// and writes block: a reader stalls until its neighbor has a value ready, and
// a writer stalls until the value it produced has been consumed. Nodes on the
// top row may read from an input stream bound to their column, nodes on the
// bottom row may write to an output stream bound to their column.
//
// The simulation advances in discrete ticks. During a tick every node is
// updated exactly once, in position order. A value written during a tick is
// never visible to a reader before the next tick, and a writer only retires
// its instruction on the tick after the value was consumed, so the outcome of
// a tick does not depend on the order nodes are visited in.
//
// Execution faults, such as writing towards a disabled node, do not abort the
// simulation: the faulting node simply parks on the instruction forever. A
// deadlocked grid is detected by bounding the number of ticks, see MaxTicks.
package vm
