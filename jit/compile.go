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

import "github.com/pkg/errors"

// qnanTagInt is value.Int's NaN-box mask (qnan | tagInt) duplicated here
// because value's bit-layout constants are unexported: the emitter reboxes
// a raw int32 payload computed natively back into a Value the same way
// value.Int does, without importing package value's internals.
const qnanTagInt uint64 = 0x7ff9000000000000

// Compile turns a recorded IR trace plus its register allocation into
// executable amd64 machine code (§4.5). The whole trace compiles to one
// straight-line block that ends by jumping back to its own first
// instruction (OpLoopBack) — each native loop iteration re-runs every
// LoadLocal, so a register is always refreshed from the value it was last
// stored as, with no separate "loop preheader" needed. Every guard (a
// fused comparison, or an int32 overflow check this emitter adds around
// every ADD/SUB) exits through a small per-snapshot stub that reboxes its
// live vregs back into the frame's locals and returns the bytecode pc the
// interpreter should resume at.
func Compile(ir *IR, alloc *Allocation) (*Trace, error) {
	a := &asm{}
	loopTop := a.pos()

	type guardFixup struct {
		at   int
		snap int
	}
	var fixups []guardFixup

	regFor := func(vr int) (int, error) {
		if vr < 0 || alloc.Reg[vr] < 0 {
			return 0, errors.New("jit: vreg was never assigned a register")
		}
		return physRegs[alloc.Reg[vr]], nil
	}

	for _, in := range ir.Instrs {
		switch in.Op {
		case OpConst:
			dst, err := regFor(in.Dst)
			if err != nil {
				return nil, err
			}
			a.movImm64(dst, uint64(uint32(int32(in.Extra))))

		case OpLoadLocal:
			dst, err := regFor(in.Dst)
			if err != nil {
				return nil, err
			}
			a.loadQ(dst, regRDI, int32(in.Extra*8))

		case OpStoreLocal:
			src, err := regFor(in.Src1)
			if err != nil {
				return nil, err
			}
			emitRebox(a, src)
			a.storeQ(regRDI, int32(in.Extra*8), regRAX)

		case OpAdd, OpSub:
			if err := emitArith(a, in, alloc); err != nil {
				return nil, err
			}
			overflow := a.jccRel32(0x00) // JO: jump if overflow flag set
			fixups = append(fixups, guardFixup{at: overflow, snap: in.Snapshot})

		case OpGuardCmp:
			lhs, err := regFor(in.Src1)
			if err != nil {
				return nil, err
			}
			rhs, err := regFor(in.Src2)
			if err != nil {
				return nil, err
			}
			a.cmpR32(lhs, rhs)
			exit := a.jccRel32(condFor(CmpCond(in.Extra), true))
			fixups = append(fixups, guardFixup{at: exit, snap: in.Snapshot})

		case OpLoopBack:
			back := a.jmpRel32()
			a.patchRel32(back, loopTop)

		default:
			return nil, errors.Errorf("jit: codegen does not support IR op %d", in.Op)
		}
	}

	stubAt := make([]int, len(ir.Snapshots))
	for si, snap := range ir.Snapshots {
		stubAt[si] = a.pos()
		for _, slot := range snap.Slot {
			reg, err := regFor(slot.VReg)
			if err != nil {
				return nil, err
			}
			emitRebox(a, reg)
			a.storeQ(regRDI, int32(slot.LocalSlot*8), regRAX)
		}
		a.movImm64(regRAX, uint64(int64(snap.PC)))
		a.ret()
	}
	for _, f := range fixups {
		a.patchRel32(f.at, stubAt[f.snap])
	}

	return newTrace(a.code, ir.Header)
}

// emitRebox folds reg's low 32 bits (a raw, unboxed int32 payload) back
// under the qnan|tagInt mask into RAX, ready for storeQ. It first
// zero-extends reg to 64 bits (a 32-bit mov from itself) so stale tag bits
// left over from a LoadLocal that was never re-written can't leak in.
func emitRebox(a *asm, reg int) {
	a.movRR32(reg, reg)
	a.movImm64(regRAX, qnanTagInt)
	a.orR64(regRAX, reg)
}

// emitArith emits dst = src1 op src2, handling every aliasing of the three
// registers a linear-scan allocation can hand back (dst can coincide with
// either source once that source's live range ends at this instruction).
func emitArith(a *asm, in Instr, alloc *Allocation) error {
	dst, src1, src2 := physRegs[alloc.Reg[in.Dst]], physRegs[alloc.Reg[in.Src1]], physRegs[alloc.Reg[in.Src2]]
	op := func(d, s int) {
		if in.Op == OpAdd {
			a.addR32(d, s)
		} else {
			a.subR32(d, s)
		}
	}
	switch {
	case dst == src1:
		op(dst, src2)
	case dst == src2 && in.Op == OpAdd:
		op(dst, src1)
	case dst == src2: // Sub, dst aliases the right-hand operand
		a.movRR32(regRAX, src1)
		a.subR32(regRAX, dst)
		a.movRR32(dst, regRAX)
	default:
		a.movRR32(dst, src1)
		op(dst, src2)
	}
	return nil
}
