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
	"github.com/rill-lang/rill/value"
)

const maxParams = 255

// fnDeclaration compiles `fn name(params) block end`. Bodies are not given
// a separate Chunk: every function's bytecode lives inline in the single
// program-wide chunk the teacher's asm/parser.go emits into (generalising
// its flat, address-addressed subroutine model), behind a forward JMP so
// normal control flow steps over the body; FunctionProto.Start records the
// absolute offset CALL resumes at. The function itself is still a
// first-class heap value - calling it goes through a regular global/local
// get plus CALL, not a bare address jump.
func (c *Compiler) fnDeclaration() {
	c.expect(token.IDENT, "expected function name")
	name := c.prev.Text

	if c.fr.scopeDepth > 0 {
		// Declared and marked initialized before the body compiles. The body
		// compiles in its own frame and resolveLocal only searches the
		// current frame, so the body itself cannot reach this local by name.
		c.declareVariable(name, false)
		c.markInitialized()
	}

	skip := c.emitJump(chunk.OpJmp)
	start := len(c.curChunk().Code)

	enclosing := c.fr
	proto := &value.FunctionProto{Name: name}
	c.fr = &frame{
		enclosing: enclosing,
		proto:     proto,
		chunk:     enclosing.chunk, // one flat chunk shared by every function
	}

	c.beginScope()
	c.expect(token.LPAREN, "expected '(' after function name")
	arity := 0
	if !c.check(token.RPAREN) {
		for {
			c.expect(token.IDENT, "expected parameter name")
			if arity >= maxParams {
				c.error("too many parameters (max 255)")
			} else {
				arity++
				c.addLocal(c.prev.Text, false)
				c.markInitialized()
			}
			// `: ident` parameter type annotations are parsed and
			// discarded, per §6.
			if c.match(token.COLON) {
				c.expect(token.IDENT, "expected type name after ':'")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.expect(token.RPAREN, "expected ')' after parameters")

	// `-> ident` return-type annotations are parsed and discarded, per §6.
	if c.match(token.ARROW) {
		c.expect(token.IDENT, "expected return type name after '->'")
	}

	c.block(token.END)
	c.expect(token.END, "expected 'end' to close function body")

	c.emitByte(byte(chunk.OpNil))
	c.emitByte(byte(chunk.OpReturn))

	proto.Arity = arity
	proto.Start = start
	proto.LocalCount = c.fr.maxLocalCount

	c.fr = enclosing
	c.patchJump(skip)

	fnObj := c.heap.NewFunction(proto)
	c.emitConstant(value.Object(fnObj))

	if c.fr.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	idx := c.identifierConstant(name)
	c.emitByte(byte(chunk.OpSetGlobal))
	c.curChunk().Write16(uint16(idx), c.prev.Line)
	c.emitByte(byte(chunk.OpPop))
}
