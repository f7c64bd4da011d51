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

// Package chunk implements the bytecode buffer Rill's compiler emits into
// and the interpreter executes: a byte sequence, a parallel line map for
// diagnostics, and a constant pool. Growth and jump patching follow the
// same "grow the backing slice, write, patch later" shape as the teacher's
// assembler (asm/parser.go's p.write / label backpatch loop), adapted from
// a Cell-sized instruction stream to a byte-sized one with two-byte
// operands.
package chunk

import (
	"github.com/pkg/errors"
	"github.com/rill-lang/rill/value"
)

// Chunk holds a compiled program's bytecode, line map and constant pool,
// per §3. Function bodies are not given chunks of their own: the compiler
// emits them inline in the same chunk as the top-level code.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends b to the code stream, recording line as its source line,
// and returns the offset at which b was written.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// Write16 appends a big-endian 16-bit value, used for jump targets and
// CONST's long-form operand.
func (c *Chunk) Write16(v uint16, line int) int {
	off := c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
	return off
}

// AddConstant appends v to the constant pool without deduplication — the
// caller (the compiler) is responsible for reuse — and returns its index.
// Indices are meant to fit a single byte (8-bit CONST); the compiler is
// responsible for switching to the 16-bit long form past 256 entries. Over
// 65536 constants is a hard chunk limit.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if len(c.Constants) >= 1<<16 {
		return 0, errors.New("too many constants in one chunk")
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// PatchJump writes the current code length (the jump target) into the
// 16-bit placeholder at offset off. The only check made is that the
// absolute target fits 16 bits; that the target is the start of the next
// instruction to be written follows from calling it right before that
// instruction is emitted.
func (c *Chunk) PatchJump(off int) error {
	target := len(c.Code)
	if target > 1<<16-1 {
		return errors.Errorf("jump target %d exceeds 16-bit offset range", target)
	}
	c.Code[off] = byte(target >> 8)
	c.Code[off+1] = byte(target)
	return nil
}

// PatchJumpTo writes an explicit target (used by LOOP's backward jump,
// where the target is the already-known loop-top offset rather than the
// current code length).
func (c *Chunk) PatchJumpTo(off int, target int) error {
	if target < 0 || target > 1<<16-1 {
		return errors.Errorf("jump target %d exceeds 16-bit offset range", target)
	}
	c.Code[off] = byte(target >> 8)
	c.Code[off+1] = byte(target)
	return nil
}

// ReadJump reads the 16-bit big-endian jump target stored at offset off.
func (c *Chunk) ReadJump(off int) int {
	return int(c.Code[off])<<8 | int(c.Code[off+1])
}

// LineAt returns the source line recorded for the instruction at offset
// pc, used for runtime error diagnostics (§4.4, §7).
func (c *Chunk) LineAt(pc int) int {
	if pc < 0 || pc >= len(c.Lines) {
		if len(c.Lines) == 0 {
			return 0
		}
		return c.Lines[len(c.Lines)-1]
	}
	return c.Lines[pc]
}
