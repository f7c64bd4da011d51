// This file is part of rill - https://github.com/rill-lang/rill
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

// Package compiler implements Rill's single-pass Pratt parser and bytecode
// emitter (§4.2). It is shaped after the teacher's asm/parser.go: a single
// struct holds the scanner, an accumulated error list, and an explicit
// backpatch step, generalised here from a one-pass assembler's label table
// to a one-pass Pratt compiler's lexical-scope and jump-patch bookkeeping.
package compiler

import (
	"fmt"

	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/lexer"
	"github.com/rill-lang/rill/token"
	"github.com/rill-lang/rill/value"
)

const maxLocals = 256

// ErrCompile is returned by Compile when one or more syntax errors were
// recorded; each entry carries its own source line (§7).
type ErrCompile []string

func (e ErrCompile) Error() string {
	s := "compile error"
	if len(e) > 1 {
		s += "s"
	}
	s += ":\n"
	for _, m := range e {
		s += "  " + m + "\n"
	}
	return s
}

type local struct {
	name        string
	depth       int
	initialized bool
	isConst     bool
}

// frame is one compiler-level activation: the function being built, its
// enclosing frame, and the fixed 256-local array described in §3.
type frame struct {
	enclosing     *frame
	proto         *value.FunctionProto
	chunk         *chunk.Chunk
	locals        [maxLocals]local
	localCount    int
	maxLocalCount int // high-water mark, recorded into proto.LocalCount
	scopeDepth    int
	isScript      bool
}

// Compiler drives a single compilation pass over a Lexer, emitting into a
// stack of frames (one per nested function).
type Compiler struct {
	lex    *lexer.Lexer
	heap   *value.Heap
	reg    *builtin.Registry
	cur    token.Token
	prev   token.Token
	errs   []string
	panic  bool
	hadErr bool
	fr     *frame
	loops  []loopCtx

	// lastIdent/lastIdentValid/lastIdentBuiltin let call() recognise a
	// bare-identifier callee that names a builtin (see expr.go variable).
	lastIdent        string
	lastIdentValid   bool
	lastIdentBuiltin *builtin.Builtin

	// globalConsts records every name declared with `const` at global
	// scope, so namedVariable can reject a later assignment to it.
	globalConsts map[string]bool
}

// loopCtx tracks the innermost while/for loop being compiled, for a future
// break/continue extension; while/for lowering in §4.2 doesn't need it
// today beyond the loop-top offset, which is threaded explicitly instead.
type loopCtx struct {
	top int
}

// Compile compiles source into a Chunk representing the top-level program.
// heap is used to intern string constants (global/local names, string
// literals); reg is consulted to recognise builtin call names.
func Compile(source string, heap *value.Heap, reg *builtin.Registry) (*chunk.Chunk, error) {
	c := &Compiler{
		lex:          lexer.New(source),
		heap:         heap,
		reg:          reg,
		globalConsts: make(map[string]bool),
	}
	c.fr = &frame{
		proto:    &value.FunctionProto{Name: "<script>"},
		chunk:    chunk.New(),
		isScript: true,
	}
	c.advance()
	c.skipNewlines()
	for !c.check(token.EOF) {
		c.declaration()
		c.skipNewlines()
	}
	c.emitByte(byte(chunk.OpNil))
	c.emitByte(byte(chunk.OpReturn))
	if c.hadErr {
		return nil, ErrCompile(c.errs)
	}
	return c.fr.chunk, nil
}

// --- token stream plumbing -------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lex.Next()
		if c.cur.Kind != token.ERROR {
			return
		}
		c.errorAtCurrent(c.cur.Text)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) expect(k token.Kind, msg string) {
	if c.cur.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// skipNewlines consumes any run of NEWLINE tokens; the lexer already
// collapses consecutive newlines to one, so at most one is ever seen here,
// but statement boundaries may also be preceded by blank input.
func (c *Compiler) skipNewlines() {
	for c.check(token.NEWLINE) {
		c.advance()
	}
}

func (c *Compiler) errorAt(line int, msg string) {
	if c.panic {
		return
	}
	c.panic = true
	c.hadErr = true
	c.errs = append(c.errs, fmt.Sprintf("line %d: %s", line, msg))
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.cur.Line, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prev.Line, msg) }

// synchronize resyncs the parser after a panic, on the next statement
// boundary: a NEWLINE or one of the statement-starting keywords (§4.2).
func (c *Compiler) synchronize() {
	c.panic = false
	for !c.check(token.EOF) {
		if c.prev.Kind == token.NEWLINE {
			return
		}
		switch c.cur.Kind {
		case token.FN, token.LET, token.CONST, token.IF, token.WHILE, token.FOR, token.MATCH, token.RETURN:
			return
		}
		c.advance()
	}
}

// emitByte and friends live in emit.go; control-flow statements live in
// controlflow.go; function declarations live in functions.go; local/global
// variable bookkeeping lives in locals.go; the Pratt table and expression
// driver live in expr.go.
