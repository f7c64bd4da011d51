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
	"github.com/rill-lang/rill/value"
)

func (c *Compiler) curChunk() *chunk.Chunk { return c.fr.chunk }

func (c *Compiler) emitByte(b byte) int {
	return c.curChunk().Write(b, c.prev.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

// emitConstant adds v to the constant pool and emits CONST (or CONST_LONG
// past 256 entries), folding the CONST_0/1/2 superinstructions at emission
// time for small integers (§4.2).
func (c *Compiler) emitConstant(v value.Value) {
	if v.IsInt() {
		switch v.AsInt() {
		case 0:
			c.emitByte(byte(chunk.OpConst0))
			return
		case 1:
			c.emitByte(byte(chunk.OpConst1))
			return
		case 2:
			c.emitByte(byte(chunk.OpConst2))
			return
		}
	}
	idx, err := c.curChunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return
	}
	if idx < 256 {
		c.emitByte(byte(chunk.OpConst))
		c.emitByte(byte(idx))
		return
	}
	c.emitByte(byte(chunk.OpConstLong))
	c.curChunk().Write16(uint16(idx), c.prev.Line)
}

// identifierConstant interns name and returns its constant-pool index,
// used for GET_GLOBAL/SET_GLOBAL operands (§4.2: "an unresolved name falls
// back to the global table with the name stored as an interned string
// constant").
func (c *Compiler) identifierConstant(name string) int {
	obj := c.heap.InternString(name)
	idx, err := c.curChunk().AddConstant(value.Object(obj))
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

// emitGetLocal folds GET_LOCAL 0..3 into its single-byte superinstruction.
func (c *Compiler) emitGetLocal(slot int) {
	switch slot {
	case 0:
		c.emitByte(byte(chunk.OpGetLocal0))
	case 1:
		c.emitByte(byte(chunk.OpGetLocal1))
	case 2:
		c.emitByte(byte(chunk.OpGetLocal2))
	case 3:
		c.emitByte(byte(chunk.OpGetLocal3))
	default:
		c.emitByte(byte(chunk.OpGetLocal))
		c.emitByte(byte(slot))
	}
}

func (c *Compiler) emitSetLocal(slot int) {
	c.emitByte(byte(chunk.OpSetLocal))
	c.emitByte(byte(slot))
}

// tryFuseConst1 implements the CONST_1 -> ADD_1/SUB_1 fusion: if the byte
// just emitted is the single-byte CONST_1, it is rewritten in place to the
// fused opcode and the caller must not separately emit the binary op.
func (c *Compiler) tryFuseConst1(fused chunk.OpCode) bool {
	code := c.curChunk().Code
	n := len(code)
	if n == 0 || chunk.OpCode(code[n-1]) != chunk.OpConst1 {
		return false
	}
	code[n-1] = byte(fused)
	return true
}

// emitJumpFalse emits a forward conditional jump, folding the preceding
// comparison opcode into a fused compare-and-branch superinstruction when
// one immediately precedes it (§4.2). Returns the offset of the 16-bit
// placeholder for a later PatchJump/PatchJumpTo call.
func (c *Compiler) emitJumpFalse() int {
	code := c.curChunk().Code
	if n := len(code); n > 0 {
		if fused, ok := chunk.ComparisonFuse(chunk.OpCode(code[n-1])); ok {
			code[n-1] = byte(fused)
			return c.curChunk().Write16(0xffff, c.prev.Line)
		}
	}
	return c.emitJump(chunk.OpJmpFalse)
}

// emitJumpFalseNoFuse is the non-fusing variant `match` uses (§4.2): it
// always emits a plain JMP_FALSE and never rewrites the EQ that precedes it.
func (c *Compiler) emitJumpFalseNoFuse() int {
	return c.emitJump(chunk.OpJmpFalse)
}

func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitByte(byte(op))
	return c.curChunk().Write16(0xffff, c.prev.Line)
}

func (c *Compiler) patchJump(offset int) {
	if err := c.curChunk().PatchJump(offset); err != nil {
		c.error(err.Error())
	}
}

// emitLoop emits a backward LOOP jump to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(chunk.OpLoop))
	off := c.curChunk().Write16(0xffff, c.prev.Line)
	if err := c.curChunk().PatchJumpTo(off, loopStart); err != nil {
		c.error(err.Error())
	}
}
