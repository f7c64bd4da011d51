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

package jit

// Mnemonic-level amd64 instruction encoding, grounded on the hand-rolled
// encoder in tinyrange-rtg's std/compiler/x64.go: REX-prefixed ModR/M
// register forms, movabs for 64-bit immediates, and rel32 jumps with a
// later patch pass. Rill's emitter only ever targets a handful of
// general-purpose registers and never needs the full instruction set that
// file covers (no SSE, no syscalls), so this is a small subset of it.

// Physical register ids, amd64 encoding (low 4 bits of the ModR/M/SIB
// field; REX.B/R/X supplies the 5th bit for r8-r15).
const (
	regRAX = 0
	regRCX = 1
	regRDX = 2
	regRBX = 3
	regRSP = 4
	regRBP = 5
	regRSI = 6
	regRDI = 7
	regR8  = 8
	regR9  = 9
	regR10 = 10
	regR11 = 11
)

// physRegs is the allocator's pool (regalloc.go's numPhysRegs entries),
// deliberately excluding RAX (tag-constant scratch), RDI (the trampoline's
// base-pointer argument) and RSP/RBP (stack frame).
var physRegs = [numPhysRegs]int{regRBX, regRCX, regRDX, regRSI, regR8, regR9, regR10, regR11}

// condition codes for Jcc, matching the Jcc opcode map (0x80 + cc).
const (
	ccL  = 0x0c // less (signed)
	ccGE = 0x0d
	ccLE = 0x0e
	ccG  = 0x0f
)

func condFor(c CmpCond, negate bool) byte {
	var cc byte
	switch c {
	case CmpLT:
		cc = ccL
	case CmpGT:
		cc = ccG
	case CmpLE:
		cc = ccLE
	case CmpGE:
		cc = ccGE
	}
	if negate {
		cc ^= 1 // amd64 Jcc condition codes pair up as even/odd negations
	}
	return cc
}

// asm accumulates emitted machine code. It keeps no relocation list: the
// caller remembers each rel32 slot's offset and fills it with patchRel32
// once the target is known.
type asm struct {
	code []byte
}

func (a *asm) emit(bs ...byte)  { a.code = append(a.code, bs...) }
func (a *asm) pos() int         { return len(a.code) }
func (a *asm) u32(v uint32)     { a.emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
func (a *asm) u64(v uint64)     { a.u32(uint32(v)); a.u32(uint32(v >> 32)) }

func rex(w bool, r, x, b int) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r >= 8 {
		v |= 0x04
	}
	if x >= 8 {
		v |= 0x02
	}
	if b >= 8 {
		v |= 0x01
	}
	return v
}

func modrmRR(reg, rm int) byte { return 0xc0 | byte((reg&7)<<3) | byte(rm&7) }

// movImm64 emits `movabs dst, imm64`.
func (a *asm) movImm64(dst int, imm uint64) {
	a.emit(rex(true, 0, 0, dst), byte(0xb8+(dst&7)))
	a.u64(imm)
}

// loadQ emits `mov dst, [base+disp32]` (64-bit: the whole boxed Value).
func (a *asm) loadQ(dst, base int, disp int32) {
	a.emit(rex(true, dst, 0, base), 0x8b, byte(0x80|((dst&7)<<3)|(base&7)))
	a.u32(uint32(disp))
}

// storeQ emits `mov [base+disp32], src`.
func (a *asm) storeQ(base int, disp int32, src int) {
	a.emit(rex(true, src, 0, base), 0x89, byte(0x80|((src&7)<<3)|(base&7)))
	a.u32(uint32(disp))
}

// movRR32 emits `mov dst, src` as a 32-bit move (zero-extends dst to 64
// bits, which is exactly right after an Int32 local's low 32 bits have
// been loaded: the upper NaN-box tag bits are irrelevant once we're only
// operating on the payload).
func (a *asm) movRR32(dst, src int) {
	if dst >= 8 || src >= 8 {
		a.emit(rex(false, src, 0, dst))
	}
	a.emit(0x89, modrmRR(src, dst))
}

// addR32/subR32/cmpR32 operate on the low 32 bits only (Int32 payload
// arithmetic); overflow is read from the flags register immediately after
// by the caller via a Jcc(CC_O).
func (a *asm) addR32(dst, src int) {
	if dst >= 8 || src >= 8 {
		a.emit(rex(false, src, 0, dst))
	}
	a.emit(0x01, modrmRR(src, dst))
}

func (a *asm) subR32(dst, src int) {
	if dst >= 8 || src >= 8 {
		a.emit(rex(false, src, 0, dst))
	}
	a.emit(0x29, modrmRR(src, dst))
}

func (a *asm) cmpR32(lhs, rhs int) {
	if lhs >= 8 || rhs >= 8 {
		a.emit(rex(false, rhs, 0, lhs))
	}
	a.emit(0x39, modrmRR(rhs, lhs))
}

// orR64 emits `or dst, src` at 64-bit width, used to fold a freshly
// computed Int32 payload back under the qnan|tagInt mask held in another
// register (reboxing, §3).
func (a *asm) orR64(dst, src int) {
	a.emit(rex(true, src, 0, dst), 0x09, modrmRR(src, dst))
}

// jmpRel32 emits `jmp rel32` and returns the code offset of the rel32 that
// must later be patched once the target offset is known.
func (a *asm) jmpRel32() int {
	a.emit(0xe9)
	off := a.pos()
	a.u32(0)
	return off
}

// jccRel32 emits `jcc rel32` (0F 80+cc) and returns the rel32's offset.
func (a *asm) jccRel32(cc byte) int {
	a.emit(0x0f, 0x80+cc)
	off := a.pos()
	a.u32(0)
	return off
}

func (a *asm) ret() { a.emit(0xc3) }

// patchRel32 back-patches the 4-byte displacement at fixupOff so it lands
// on target, relative to the end of that 4-byte field.
func (a *asm) patchRel32(fixupOff, target int) {
	rel := int32(target - (fixupOff + 4))
	a.code[fixupOff] = byte(rel)
	a.code[fixupOff+1] = byte(rel >> 8)
	a.code[fixupOff+2] = byte(rel >> 16)
	a.code[fixupOff+3] = byte(rel >> 24)
}
