package main

import (
	"fmt"
	"io"

	"github.com/db47h/tis/internal/tisi"
	"github.com/db47h/tis/vm"
)

// dumpGrid writes the state of every node and stream of g to w.
func dumpGrid(w io.Writer, g *vm.Grid) error {
	ew := tisi.NewErrWriter(w)
	fmt.Fprintf(ew, "--- tick %d\r\n", g.Ticks())
	for _, s := range g.Streams() {
		switch s.Kind {
		case vm.StreamInput:
			fmt.Fprintf(ew, "%-8s col %d: %d/%d sent\r\n", s.Name, s.Column, s.Delivered(), len(s.Values()))
		case vm.StreamOutput:
			fmt.Fprintf(ew, "%-8s col %d: ", s.Name, s.Column)
			ew.WriteCells(s.Received())
			io.WriteString(ew, "\r\n")
		}
	}
	for pos := 0; pos < vm.Size; pos++ {
		fmt.Fprintf(ew, "[%2d] ", pos)
		if c, ok := g.Compute(pos); ok {
			fmt.Fprintf(ew, "ACC %4d BAK %4d LAST %-5v PC %2d", c.ACC(), c.BAK(), c.Last(), c.PC())
			if code := c.Code(); c.PC() < len(code) {
				fmt.Fprintf(ew, " %-16v", code[c.PC()])
			}
			if v, ok := c.Pending(); ok {
				fmt.Fprintf(ew, " OUT %d", v)
			}
			if err := c.Fault(); err != nil {
				fmt.Fprintf(ew, " FAULT %v", err)
			}
		} else if s, ok := g.Storage(pos); ok {
			io.WriteString(ew, "STACK ")
			ew.WriteCells(s.Stack())
		} else {
			io.WriteString(ew, "--")
		}
		io.WriteString(ew, "\r\n")
	}
	return ew.Err
}
