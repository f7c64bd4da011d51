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
	"strconv"

	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/token"
	"github.com/rill-lang/rill/value"
)

// Precedence levels, lowest to highest, per §4.2.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecComparison
	PrecShift
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:     {grouping, call, PrecCall},
		token.LBRACKET:   {arrayLiteral, index, PrecCall},
		token.MINUS:      {unary, binary, PrecTerm},
		token.PLUS:       {nil, binary, PrecTerm},
		token.SLASH:      {nil, binary, PrecFactor},
		token.STAR:       {nil, binary, PrecFactor},
		token.PERCENT:    {nil, binary, PrecFactor},
		token.BANG_EQ:    {nil, binary, PrecEquality},
		token.EQ_EQ:      {nil, binary, PrecEquality},
		token.GREATER:    {nil, binary, PrecComparison},
		token.GREATER_EQ: {nil, binary, PrecComparison},
		token.LESS:       {nil, binary, PrecComparison},
		token.LESS_EQ:    {nil, binary, PrecComparison},
		token.SHL:        {nil, binary, PrecShift},
		token.SHR:        {nil, binary, PrecShift},
		token.AMP:        {nil, binary, PrecBitAnd},
		token.PIPE:       {nil, binary, PrecBitOr},
		token.CARET:      {nil, binary, PrecBitXor},
		token.DOT_DOT:    {nil, rangeLit, PrecComparison},
		token.IDENT:      {variable, nil, PrecNone},
		token.INT:        {number, nil, PrecNone},
		token.FLOAT:      {number, nil, PrecNone},
		token.STRING:     {stringLit, nil, PrecNone},
		token.NIL:        {literal, nil, PrecNone},
		token.TRUE:       {literal, nil, PrecNone},
		token.FALSE:      {literal, nil, PrecNone},
		token.NOT:        {unary, nil, PrecNone},
		token.AND:        {nil, compileAnd, PrecAnd},
		token.OR:         {nil, compileOr, PrecOr},
	}
}

func getRule(k token.Kind) parseRule {
	if r, ok := rules[k]; ok {
		return r
	}
	return parseRule{}
}

// expression parses and compiles a full assignment-precedence expression,
// per §8 growing the stack by exactly one.
func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := getRule(c.prev.Kind)
	if rule.prefix == nil {
		c.error("expected expression, got " + c.prev.Kind.String())
		return
	}
	canAssign := prec <= PrecAssignment
	c.lastIdentValid = false
	rule.prefix(c, canAssign)

	for prec <= getRule(c.cur.Kind).precedence {
		c.advance()
		infix := getRule(c.prev.Kind).infix
		if infix == nil {
			c.error("unexpected token " + c.prev.Kind.String())
			return
		}
		infix(c, canAssign)
	}

	if canAssign && c.check(token.EQ) {
		c.error("invalid assignment target")
	}
}

func number(c *Compiler, _ bool) {
	switch c.prev.Kind {
	case token.INT:
		n, err := strconv.ParseInt(c.prev.Text, 10, 64)
		if err != nil || n < -2147483648 || n > 2147483647 {
			c.error("malformed integer literal " + c.prev.Text)
			return
		}
		c.emitConstant(value.Int(int32(n)))
	case token.FLOAT:
		f, err := strconv.ParseFloat(c.prev.Text, 64)
		if err != nil {
			c.error("malformed float literal " + c.prev.Text)
			return
		}
		c.emitConstant(value.Number(f))
	}
}

func stringLit(c *Compiler, _ bool) {
	obj := c.heap.InternString(c.prev.Text)
	c.emitConstant(value.Object(obj))
}

func literal(c *Compiler, _ bool) {
	switch c.prev.Kind {
	case token.NIL:
		c.emitByte(byte(chunk.OpNil))
	case token.TRUE:
		c.emitByte(byte(chunk.OpTrue))
	case token.FALSE:
		c.emitByte(byte(chunk.OpFalse))
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.expect(token.RPAREN, "expected ')' after expression")
	c.lastIdentValid = false
}

func unary(c *Compiler, _ bool) {
	op := c.prev.Kind
	c.parsePrecedence(PrecUnary)
	switch op {
	case token.MINUS:
		c.emitByte(byte(chunk.OpNeg))
	case token.NOT:
		c.emitByte(byte(chunk.OpNot))
	}
	c.lastIdentValid = false
}

func binary(c *Compiler, _ bool) {
	op := c.prev.Kind
	rule := getRule(op)
	rhsStart := len(c.curChunk().Code)
	c.parsePrecedence(rule.precedence + 1)
	// Only a right operand that compiled to a single byte can be the
	// single-byte CONST_1; a longer operand may merely end in a byte whose
	// value happens to equal OpConst1.
	rhsIsOneByte := len(c.curChunk().Code) == rhsStart+1
	switch op {
	case token.PLUS:
		if rhsIsOneByte && c.tryFuseConst1(chunk.OpAdd1) {
			return
		}
		c.emitByte(byte(chunk.OpAdd))
	case token.MINUS:
		if rhsIsOneByte && c.tryFuseConst1(chunk.OpSub1) {
			return
		}
		c.emitByte(byte(chunk.OpSub))
	case token.STAR:
		c.emitByte(byte(chunk.OpMul))
	case token.SLASH:
		c.emitByte(byte(chunk.OpDiv))
	case token.PERCENT:
		c.emitByte(byte(chunk.OpMod))
	case token.EQ_EQ:
		c.emitByte(byte(chunk.OpEq))
	case token.BANG_EQ:
		c.emitByte(byte(chunk.OpNeq))
	case token.LESS:
		c.emitByte(byte(chunk.OpLt))
	case token.GREATER:
		c.emitByte(byte(chunk.OpGt))
	case token.LESS_EQ:
		c.emitByte(byte(chunk.OpLte))
	case token.GREATER_EQ:
		c.emitByte(byte(chunk.OpGte))
	case token.AMP:
		c.emitByte(byte(chunk.OpBitAnd))
	case token.PIPE:
		c.emitByte(byte(chunk.OpBitOr))
	case token.CARET:
		c.emitByte(byte(chunk.OpBitXor))
	case token.SHL:
		c.emitByte(byte(chunk.OpShl))
	case token.SHR:
		c.emitByte(byte(chunk.OpShr))
	}
	c.lastIdentValid = false
}

func rangeLit(c *Compiler, _ bool) {
	c.parsePrecedence(PrecComparison + 1)
	c.emitByte(byte(chunk.OpRange))
	c.lastIdentValid = false
}

// compileAnd and compileOr are short-circuiting: they leave exactly one
// value on the stack, matching every other expression form (§8 stack
// neutrality). JMP_FALSE/JMP_TRUE always pop their operand (§4.4), so the
// condition is duplicated first and the duplicate is discarded on whichever
// path evaluates the right-hand side.
func compileAnd(c *Compiler, _ bool) {
	c.emitByte(byte(chunk.OpDup))
	endJump := c.emitJump(chunk.OpJmpFalse)
	c.emitByte(byte(chunk.OpPop))
	c.parsePrecedence(PrecAnd + 1)
	c.patchJump(endJump)
	c.lastIdentValid = false
}

func compileOr(c *Compiler, _ bool) {
	c.emitByte(byte(chunk.OpDup))
	endJump := c.emitJump(chunk.OpJmpTrue)
	c.emitByte(byte(chunk.OpPop))
	c.parsePrecedence(PrecOr + 1)
	c.patchJump(endJump)
	c.lastIdentValid = false
}

// variable compiles a bare identifier reference. A name that resolves to no
// local and is immediately followed by '(' and is registered in the builtin
// table is left entirely uncompiled here: emitting its GET_GLOBAL would
// push a nonexistent global, since builtins dispatch through their own
// opcode rather than living in the global table. call() picks it back up
// via lastIdentName/lastIdentBuiltin and compiles the whole call itself.
func variable(c *Compiler, canAssign bool) {
	name := c.prev.Text
	c.lastIdentValid = false
	if c.resolveLocal(c.fr, name) == -1 && c.check(token.LPAREN) {
		if b, ok := c.reg.Lookup(name); ok {
			c.lastIdent = name
			c.lastIdentValid = true
			c.lastIdentBuiltin = b
			return
		}
	}
	namedVariable(c, name, canAssign)
}

// lastIdentName reports the pending builtin-callee identifier deferred by
// variable(), if any; call() uses this to recognise `name(...)` as a
// builtin call site instead of a generic CALL. Any other prefix/infix rule
// invalidates it, since the callee is then some other computed value.
func (c *Compiler) lastIdentName() (string, bool) {
	name, ok := c.lastIdent, c.lastIdentValid
	c.lastIdentValid = false
	return name, ok
}

func namedVariable(c *Compiler, name string, canAssign bool) {
	slot := c.resolveLocal(c.fr, name)
	isLocal := slot != -1

	if canAssign && c.check(token.EQ) {
		if isLocal && c.localIsConst(c.fr, slot) {
			c.error("cannot assign to const '" + name + "'")
		} else if !isLocal && c.globalConsts[name] {
			c.error("cannot assign to const '" + name + "'")
		}
		c.advance()
		c.expression()
		if isLocal {
			c.emitSetLocal(slot)
		} else {
			idx := c.identifierConstant(name)
			c.emitByte(byte(chunk.OpSetGlobal))
			c.curChunk().Write16(uint16(idx), c.prev.Line)
		}
		return
	}

	if isLocal {
		c.emitGetLocal(slot)
		return
	}
	idx := c.identifierConstant(name)
	c.emitByte(byte(chunk.OpGetGlobal))
	c.curChunk().Write16(uint16(idx), c.prev.Line)
}

func arrayLiteral(c *Compiler, _ bool) {
	defer func() { c.lastIdentValid = false }()
	count := 0
	if !c.check(token.RBRACKET) {
		for {
			c.expression()
			count++
			if !c.match(token.COMMA) {
				break
			}
			if c.check(token.RBRACKET) {
				break
			}
		}
	}
	c.expect(token.RBRACKET, "expected ']' after array elements")
	if count > 255 {
		c.error("too many array literal elements")
		return
	}
	c.emitByte(byte(chunk.OpArray))
	c.emitByte(byte(count))
}

func index(c *Compiler, canAssign bool) {
	defer func() { c.lastIdentValid = false }()
	c.expression()
	c.expect(token.RBRACKET, "expected ']' after index")
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitByte(byte(chunk.OpIndexSet))
		return
	}
	c.emitByte(byte(chunk.OpIndex))
}

// call compiles a call expression. If the callee is a bare identifier
// naming a registered builtin, it is emitted as the builtin's dedicated
// opcode (§4.4) instead of a generic CALL; otherwise a generic CALL <argc>
// is emitted against whatever value is already on the stack.
func call(c *Compiler, _ bool) {
	name, isBuiltinCandidate := c.lastIdentName()
	if isBuiltinCandidate {
		b := c.lastIdentBuiltin
		args := c.argumentList()
		if args != b.Arity {
			c.error("builtin '" + name + "' expects " + strconv.Itoa(b.Arity) + " argument(s), got " + strconv.Itoa(args))
			return
		}
		c.emitBuiltinCall(b.Index)
		return
	}

	args := c.argumentList()
	if args > 255 {
		c.error("too many arguments in call (max 255)")
		return
	}
	c.emitByte(byte(chunk.OpCall))
	c.emitByte(byte(args))
}

func (c *Compiler) argumentList() int {
	count := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.expect(token.RPAREN, "expected ')' after arguments")
	return count
}

func (c *Compiler) emitBuiltinCall(idx int) {
	if idx > 0xffff {
		c.error("builtin registry index overflow")
		return
	}
	c.emitByte(byte(chunk.OpCallBuiltin))
	c.curChunk().Write16(uint16(idx), c.prev.Line)
}
