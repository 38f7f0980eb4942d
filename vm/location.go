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

import "strconv"

// Cell is the value type held in registers and exchanged between nodes.
// Arithmetic wraps around on overflow.
type Cell int32

// Port identifies the source or destination of a value transfer.
type Port uint8

// Up, Down, Left and Right are the four directions a node talks through. Any
// is whichever neighbor is ready first and Last the direction Any resolved to
// most recently. Acc is the accumulator, Nil reads as 0 and discards writes.
// Const is a literal, its value is held in Location.Value.
const (
	Up Port = iota
	Down
	Left
	Right
	Any
	Last
	Acc
	Nil
	Const
)

// Directions lists the four directions in the order used to resolve Any and
// to poll the neighbors of storage nodes.
var Directions = [...]Port{Up, Down, Left, Right}

const allDirections = 1<<Up | 1<<Down | 1<<Left | 1<<Right

var portNames = [...]string{"UP", "DOWN", "LEFT", "RIGHT", "ANY", "LAST", "ACC", "NIL"}

var portIndex = make(map[string]Port)

func init() {
	for i, v := range portNames {
		portIndex[v] = Port(i)
	}
}

// PortByName returns the port with the given upper case name. There is no
// name for Const.
func PortByName(name string) (Port, bool) {
	p, ok := portIndex[name]
	return p, ok
}

func (p Port) String() string {
	if int(p) < len(portNames) {
		return portNames[p]
	}
	if p == Const {
		return "CONST"
	}
	return "Port(" + strconv.Itoa(int(p)) + ")"
}

// IsDirection reports whether p is one of Up, Down, Left or Right.
func (p Port) IsDirection() bool {
	return p <= Right
}

// Opposite returns the direction pointing back at a node from its neighbor in
// direction p. Ports that are not directions map to Nil.
func (p Port) Opposite() Port {
	switch p {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return Nil
}

func (p Port) mask() uint8 {
	return 1 << p
}

// Location is an instruction operand.
type Location struct {
	Port  Port
	Value Cell // literal value when Port is Const
}

// Loc returns a Location for port p.
func Loc(p Port) Location {
	return Location{Port: p}
}

// Lit returns a constant Location.
func Lit(v Cell) Location {
	return Location{Port: Const, Value: v}
}

func (l Location) String() string {
	if l.Port == Const {
		return strconv.Itoa(int(l.Value))
	}
	return l.Port.String()
}
