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

package asm

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/db47h/tis/vm"
)

const maxErrors = 10

func isIdentRune(ch rune, i int) bool {
	return ch == '_' || unicode.IsLetter(ch) || (unicode.IsDigit(ch) && i > 0)
}

type token struct {
	tok  rune
	text string
	pos  scanner.Position
}

type labelSite struct {
	pos     scanner.Position
	address int
}

type section struct {
	Program
	pos    scanner.Position
	labels map[string]labelSite
	uses   map[string]scanner.Position
}

type parser struct {
	s        scanner.Scanner
	sections map[int]*section
	cur      *section
	errs     ErrAsm
}

func newParser() *parser {
	return &parser{sections: make(map[int]*section)}
}

func (p *parser) error(pos scanner.Position, msg string) {
	if len(p.errs) < maxErrors {
		p.errs = append(p.errs, Error{pos, msg})
	}
}

func (p *parser) open(n int, pos scanner.Position) {
	p.closeSection()
	if prev, ok := p.sections[n]; ok {
		p.error(pos, fmt.Sprintf("Duplicate node @%d, previous definition here: %s", n, prev.pos))
	}
	p.cur = &section{
		Program: Program{Node: n, Labels: make(map[string]int)},
		pos:     pos,
		labels:  make(map[string]labelSite),
		uses:    make(map[string]scanner.Position),
	}
	p.sections[n] = p.cur
}

// closeSection checks that every label used in the current section is defined.
func (p *parser) closeSection() {
	if p.cur == nil {
		return
	}
	names := make([]string, 0, len(p.cur.uses))
	for n := range p.cur.uses {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, ok := p.cur.labels[n]; !ok {
			p.error(p.cur.uses[n], "Undefined label "+n)
		}
	}
	p.cur = nil
}

// line scans the tokens up to the end of the current line. Comments are
// dropped.
func (p *parser) line() (toks []token, eof bool) {
	for {
		tok := p.s.Scan()
		switch tok {
		case scanner.EOF:
			return toks, true
		case '\n':
			return toks, false
		case '#':
			for ch := p.s.Peek(); ch != '\n' && ch != scanner.EOF; ch = p.s.Peek() {
				p.s.Next()
			}
			continue
		}
		toks = append(toks, token{tok, p.s.TokenText(), p.s.Position})
	}
}

// Parse does the parsing of all node programs.
func (p *parser) Parse(name string, r io.Reader) ([]Program, error) {
	p.s.Init(r)
	p.s.Filename = name
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Whitespace = 1<<'\t' | 1<<'\r' | 1<<' '
	p.s.IsIdentRune = isIdentRune
	p.s.Error = func(s *scanner.Scanner, msg string) {
		pos := s.Position
		if !pos.IsValid() {
			pos = s.Pos()
		}
		p.error(pos, msg)
	}

	for eof := false; !eof; {
		var toks []token
		toks, eof = p.line()
		p.parseLine(toks)
	}
	p.closeSection()

	if len(p.errs) > 0 {
		return nil, p.errs
	}
	progs := make([]Program, 0, len(p.sections))
	for _, s := range p.sections {
		progs = append(progs, s.Program)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].Node < progs[j].Node })
	return progs, nil
}

func (p *parser) parseLine(toks []token) {
	if len(toks) == 0 {
		return
	}
	// node header
	if toks[0].tok == '@' {
		if len(toks) != 2 || toks[1].tok != scanner.Int {
			p.error(toks[0].pos, "Expected node number after @")
			return
		}
		n, err := strconv.Atoi(toks[1].text)
		if err != nil {
			p.error(toks[1].pos, err.Error())
			return
		}
		p.open(n, toks[0].pos)
		return
	}
	if p.cur == nil {
		p.open(0, toks[0].pos)
	}
	// label definition
	if len(toks) >= 2 && toks[0].tok == scanner.Ident && toks[1].tok == ':' {
		n := strings.ToUpper(toks[0].text)
		if l, ok := p.cur.labels[n]; ok {
			p.error(toks[0].pos, "Label redefinition: "+n+", previous definition here: "+l.pos.String())
		} else {
			addr := len(p.cur.Code)
			p.cur.labels[n] = labelSite{toks[0].pos, addr}
			p.cur.Labels[n] = addr
		}
		toks = toks[2:]
	}
	// breakpoint marker
	if len(toks) > 0 && toks[0].tok == '!' {
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return
	}
	if toks[0].tok != scanner.Ident {
		p.error(toks[0].pos, "Unexpected "+strconv.Quote(toks[0].text))
		return
	}
	op, ok := vm.OpcodeByName(strings.ToUpper(toks[0].text))
	if !ok {
		p.error(toks[0].pos, "Unknown instruction "+toks[0].text)
		return
	}
	ins := vm.Instruction{Op: op}
	args := toks[1:]
	if op.IsJump() {
		if len(args) != 1 || args[0].tok != scanner.Ident {
			p.error(toks[0].pos, op.String()+": expected a label")
			return
		}
		ins.Label = strings.ToUpper(args[0].text)
		if _, ok := p.cur.uses[ins.Label]; !ok {
			p.cur.uses[ins.Label] = args[0].pos
		}
		p.cur.Code = append(p.cur.Code, ins)
		return
	}

	var locs []vm.Location
	for len(args) > 0 {
		if args[0].tok == ',' {
			args = args[1:]
			continue
		}
		var l vm.Location
		l, args, ok = p.operand(args)
		if !ok {
			return
		}
		locs = append(locs, l)
	}
	if len(locs) != op.Operands() {
		p.error(toks[0].pos, fmt.Sprintf("%v: expected %d operand(s), got %d", op, op.Operands(), len(locs)))
		return
	}
	switch len(locs) {
	case 2:
		if locs[1].Port == vm.Const {
			p.error(toks[0].pos, op.String()+": cannot write to a constant")
			return
		}
		ins.Dst = locs[1]
		fallthrough
	case 1:
		ins.Src = locs[0]
	}
	p.cur.Code = append(p.cur.Code, ins)
}

// operand parses one operand from the head of toks.
func (p *parser) operand(toks []token) (vm.Location, []token, bool) {
	t := toks[0]
	switch t.tok {
	case scanner.Ident:
		port, ok := vm.PortByName(strings.ToUpper(t.text))
		if !ok {
			p.error(t.pos, "Unknown port "+t.text)
			return vm.Location{}, nil, false
		}
		return vm.Loc(port), toks[1:], true
	case '-', scanner.Int:
		sign, s := int64(1), toks
		if t.tok == '-' {
			if len(toks) < 2 || toks[1].tok != scanner.Int {
				p.error(t.pos, "Expected number after -")
				return vm.Location{}, nil, false
			}
			sign, s = -1, toks[1:]
		}
		n, err := strconv.ParseInt(s[0].text, 10, 64)
		if err != nil {
			p.error(s[0].pos, err.Error())
			return vm.Location{}, nil, false
		}
		if n *= sign; n < math.MinInt32 || n > math.MaxInt32 {
			p.error(t.pos, fmt.Sprintf("Constant %d out of range", n))
			return vm.Location{}, nil, false
		}
		return vm.Lit(vm.Cell(n)), s[1:], true
	}
	p.error(t.pos, "Unexpected "+strconv.Quote(t.text))
	return vm.Location{}, nil, false
}
