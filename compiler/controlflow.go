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

package compiler

import (
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/token"
)

// declaration compiles one top-level-or-block declaration, resynchronizing
// on the next statement boundary if a syntax error was raised inside it
// (§4.2's error-recovery strategy, the same panic/synchronize shape as the
// teacher's asm/parser.go).
func (c *Compiler) declaration() {
	switch c.cur.Kind {
	case token.LET:
		c.advance()
		c.varDeclaration(false)
	case token.CONST:
		c.advance()
		c.varDeclaration(true)
	case token.FN:
		c.advance()
		c.fnDeclaration()
	default:
		c.statement()
	}
	if c.panic {
		c.synchronize()
	}
}

// varDeclaration compiles `let name = expr` / `const name = expr`.
func (c *Compiler) varDeclaration(isConst bool) {
	c.expect(token.IDENT, "expected variable name")
	name := c.prev.Text

	if c.fr.scopeDepth > 0 {
		c.declareVariable(name, isConst)
	}

	// `: ident` type annotations are accepted and discarded (§6: the
	// surface language is dynamically typed; static annotations are
	// syntactically accepted but semantically ignored).
	if c.match(token.COLON) {
		c.expect(token.IDENT, "expected type name after ':'")
	}

	c.expect(token.EQ, "expected '=' after variable name in declaration")
	c.expression()

	if c.fr.scopeDepth > 0 {
		c.markInitialized()
		return
	}

	if isConst {
		c.globalConsts[name] = true
	}
	idx := c.identifierConstant(name)
	c.emitByte(byte(chunk.OpSetGlobal))
	c.curChunk().Write16(uint16(idx), c.prev.Line)
	c.emitByte(byte(chunk.OpPop))
}

// statement compiles a non-declaration statement.
func (c *Compiler) statement() {
	switch c.cur.Kind {
	case token.IF:
		c.advance()
		c.ifStatement()
	case token.WHILE:
		c.advance()
		c.whileStatement()
	case token.FOR:
		c.advance()
		c.forStatement()
	case token.MATCH:
		c.advance()
		c.matchStatement()
	case token.RETURN:
		c.advance()
		c.returnStatement()
	case token.IMPORT:
		c.errorAtCurrent("import must be resolved by the preprocessor before compilation")
		c.advance()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emitByte(byte(chunk.OpPop))
}

// block compiles statements until one of the given terminator keywords is
// seen, without consuming the terminator.
func (c *Compiler) block(terminators ...token.Kind) {
	c.skipNewlines()
	for !c.check(token.EOF) && !c.atTerminator(terminators) {
		c.declaration()
		c.skipNewlines()
	}
}

func (c *Compiler) atTerminator(terminators []token.Kind) bool {
	for _, t := range terminators {
		if c.check(t) {
			return true
		}
	}
	return false
}

// ifStatement compiles `if cond then? block (elif cond then? block)* (else
// block)? end`. The optional `then` is accepted but not required, matching
// the teacher's general tolerance for sugar keywords in asm directives.
func (c *Compiler) ifStatement() {
	c.expression()
	c.match(token.THEN)

	var endJumps []int
	elseJump := c.emitJumpFalse()
	c.beginScope()
	c.block(token.ELIF, token.ELSE, token.END)
	c.endScope()

	for c.check(token.ELIF) {
		endJumps = append(endJumps, c.emitJump(chunk.OpJmp))
		c.patchJump(elseJump)
		c.advance()
		c.expression()
		c.match(token.THEN)
		elseJump = c.emitJumpFalse()
		c.beginScope()
		c.block(token.ELIF, token.ELSE, token.END)
		c.endScope()
	}

	if c.check(token.ELSE) {
		endJumps = append(endJumps, c.emitJump(chunk.OpJmp))
		c.patchJump(elseJump)
		c.advance()
		c.beginScope()
		c.block(token.END)
		c.endScope()
	} else {
		c.patchJump(elseJump)
	}

	c.expect(token.END, "expected 'end' to close if")
	for _, j := range endJumps {
		c.patchJump(j)
	}
}

// whileStatement compiles `while cond do block end`.
func (c *Compiler) whileStatement() {
	loopStart := len(c.curChunk().Code)
	c.expression()
	c.expect(token.DO, "expected 'do' after while condition")
	exitJump := c.emitJumpFalse()

	c.beginScope()
	c.block(token.END)
	c.endScope()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.expect(token.END, "expected 'end' to close while")
}

// forStatement compiles `for name in expr do block end`, with a dual
// lowering (§4.3): a literal `a..b` range compiles straight to the
// counter-based FOR_COUNT fast path, holding just two bound values as
// hidden locals; anything else compiles to the generic iterable path and
// is lowered through FOR_LOOP, which walks an array/string by index.
//
// Locals behave as raw stack slots (declaring one just means the value is
// already sitting at that position, as in varDeclaration), so each bound
// or iterable expression doubles as its own slot's initializer - no extra
// copy is emitted.
func (c *Compiler) forStatement() {
	c.expect(token.IDENT, "expected loop variable name")
	varName := c.prev.Text
	c.expect(token.IN, "expected 'in' after for loop variable")

	c.beginScope()

	// Range bounds bind tighter than '..' itself (PrecComparison), so
	// parsing the first bound at PrecComparison+1 stops right before a
	// following '..' would be consumed as rangeLit's infix - letting us
	// recognise the fast-path shape without backtracking.
	c.parsePrecedence(PrecComparison + 1)

	if c.match(token.DOT_DOT) {
		c.addHiddenLocal() // counter, already holds the low bound
		counterSlot := c.fr.localCount - 1
		c.parsePrecedence(PrecComparison + 1)
		c.addHiddenLocal() // end, already holds the high bound
		endSlot := c.fr.localCount - 1

		c.emitGetLocal(counterSlot)
		c.declareVariable(varName, false)
		c.addLocal(varName, false)
		c.markInitialized()
		varSlot := c.fr.localCount - 1

		c.expect(token.DO, "expected 'do' after for loop range")

		loopTop := len(c.curChunk().Code)
		c.emitByte(byte(chunk.OpForCount))
		c.emitByte(byte(counterSlot))
		c.emitByte(byte(endSlot))
		c.emitByte(byte(varSlot))
		exit := c.curChunk().Write16(0xffff, c.prev.Line)

		c.block(token.END)

		c.emitLoop(loopTop)
		c.patchJump(exit)
	} else {
		c.addHiddenLocal() // iterable, already holds the expression's value
		iterSlot := c.fr.localCount - 1
		c.emitByte(byte(chunk.OpConst0))
		c.addHiddenLocal() // index
		idxSlot := c.fr.localCount - 1
		c.emitByte(byte(chunk.OpNil))
		c.declareVariable(varName, false)
		c.addLocal(varName, false)
		c.markInitialized()
		varSlot := c.fr.localCount - 1

		c.expect(token.DO, "expected 'do' after for loop iterable")

		loopTop := len(c.curChunk().Code)
		c.emitByte(byte(chunk.OpForLoop))
		c.emitByte(byte(iterSlot))
		c.emitByte(byte(idxSlot))
		c.emitByte(byte(varSlot))
		exit := c.curChunk().Write16(0xffff, c.prev.Line)

		c.block(token.END)

		c.emitLoop(loopTop)
		c.patchJump(exit)
	}

	c.endScope()
	c.expect(token.END, "expected 'end' to close for")
}

// addHiddenLocal reserves the next local slot for a compiler-internal value
// (loop counter/bound/iterable/index) that source code can never name or
// reassign.
func (c *Compiler) addHiddenLocal() {
	c.addLocal("", false)
	c.markInitialized()
}

// matchStatement compiles `match subject (case pattern then? block)* (else
// block)? end`. Each arm duplicates the subject, compares the duplicate
// against the arm's pattern expression with EQ, and branches on the result
// through a plain JMP_FALSE (emitJumpFalseNoFuse, §4.2), which pops it. The
// subject itself stays on the stack until an arm matches, which pops it
// before running its body, or until every arm has failed, after which it is
// popped once before the else block.
func (c *Compiler) matchStatement() {
	c.expression()
	c.skipNewlines()

	var endJumps []int
	for c.check(token.CASE) {
		c.advance()
		c.emitByte(byte(chunk.OpDup))
		c.expression()
		c.emitByte(byte(chunk.OpEq))
		next := c.emitJumpFalseNoFuse()
		c.emitByte(byte(chunk.OpPop)) // discard the subject on the match path
		c.match(token.THEN)

		c.beginScope()
		c.block(token.CASE, token.ELSE, token.END)
		c.endScope()

		endJumps = append(endJumps, c.emitJump(chunk.OpJmp))
		c.patchJump(next)
	}
	c.emitByte(byte(chunk.OpPop)) // no arm matched: discard the subject

	if c.check(token.ELSE) {
		c.advance()
		c.beginScope()
		c.block(token.END)
		c.endScope()
	}

	c.expect(token.END, "expected 'end' to close match")
	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) returnStatement() {
	if c.fr.isScript {
		c.error("return outside of function")
	}
	if c.check(token.NEWLINE) || c.check(token.EOF) || c.check(token.END) {
		c.emitByte(byte(chunk.OpNil))
	} else {
		c.expression()
	}
	c.emitByte(byte(chunk.OpReturn))
}
