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

import (
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/value"
)

// maxTraceInstrs bounds a single recording (§9 open question iii): a trace
// that grows past this many IR instructions aborts rather than risk an
// unbounded compile.
const maxTraceInstrs = 4096

// abortErr marks a recording failure that should blacklist the loop header
// rather than be treated as a hard error: the loop just keeps running
// interpreted.
type abortErr struct{ reason string }

func (e *abortErr) Error() string { return "jit: trace aborted: " + e.reason }

func abort(reason string) error { return &abortErr{reason: reason} }

// IsAbort reports whether err is a recording abort (as opposed to a real
// compiler bug), so callers know to blacklist-and-continue rather than
// propagate.
func IsAbort(err error) bool {
	_, ok := err.(*abortErr)
	return ok
}

// recorder linearises bytecode starting at a loop header into a flat IR
// trace, using an abstract value stack of vreg ids to track the same stack
// effects the compiler's emitted bytecode relies on. Only a restricted
// opcode subset is supported (integer locals, arithmetic, fused
// compare-and-jump, FOR_COUNT); anything else aborts the recording, and the
// loop stays interpreted. Grounded on the Instance.Run dispatch loop this
// mirrors (vm/run.go) — same opcode semantics, no new bytecode behaviour.
type recorder struct {
	code      []byte
	constants []value.Value
	stack     []value.Value
	base      int

	ir        *IR
	evalStack []int
	localVreg map[int]int

	// stmtStart is the bytecode pc of the start of the statement currently
	// being recorded: the last pc at which the abstract evalStack was
	// empty. Every guard that can fire mid-expression (the int32-overflow
	// check on ADD/SUB) must resume the interpreter here rather than at its
	// own pc or at the loop header, because deopt only reconstructs named
	// locals, not operand-stack temporaries (§3 Snapshot, §4.5) — resuming
	// anywhere the interpreter's own stack wouldn't already be at this
	// depth would desynchronise it. At a statement boundary the stack is
	// empty and every local still holds its value from before this
	// statement ran, so the plain interpreter can safely redo the whole
	// statement (and this time take ADD/SUB's overflow-to-double path
	// instead of overflowing again).
	stmtStart int
}

// Record traces ch's bytecode starting at the backward-branch target
// header, using stack/base to read the concrete runtime values needed to
// pick each local's trace-time type (§4.5: "the recorder observes one
// concrete execution and specialises to the types it saw"). On success it
// returns a closed trace ending in OpLoopBack; on an unsupported opcode or
// an over-long trace it returns an *abortErr.
func Record(ch *chunk.Chunk, header int, stack []value.Value, base int) (*IR, error) {
	r := &recorder{
		code:      ch.Code,
		constants: ch.Constants,
		stack:     stack,
		base:      base,
		ir:        &IR{Header: header},
		localVreg: make(map[int]int),
		stmtStart: header,
	}
	if err := r.run(header); err != nil {
		return nil, err
	}
	return r.ir, nil
}

func (r *recorder) run(header int) error {
	pc := header
	for {
		if len(r.ir.Instrs) > maxTraceInstrs {
			return abort("trace too long")
		}
		if pc >= len(r.code) {
			return abort("ran off the end of the chunk")
		}
		op := chunk.OpCode(r.code[pc])
		pc++
		var err error
		pc, err = r.step(op, pc, header)
		if err != nil {
			return err
		}
		if op == chunk.OpLoop {
			return nil // step wrote OpLoopBack; trace is closed
		}
		if len(r.evalStack) == 0 {
			r.stmtStart = pc
		}
	}
}

func (r *recorder) u8(pc int) (int, int)  { return int(r.code[pc]), pc + 1 }
func (r *recorder) u16(pc int) (int, int) { return int(r.code[pc])<<8 | int(r.code[pc+1]), pc + 2 }

func (r *recorder) push(v int)  { r.evalStack = append(r.evalStack, v) }
func (r *recorder) top() int    { return r.evalStack[len(r.evalStack)-1] }
func (r *recorder) pop() int {
	v := r.evalStack[len(r.evalStack)-1]
	r.evalStack = r.evalStack[:len(r.evalStack)-1]
	return v
}

// loadLocal records reading local slot s: reuse the tracked vreg if this
// trace already has one live, otherwise emit a fresh LoadLocal specialised
// to the concrete value's current type (int32 only, in this minimal
// recorder — anything else aborts).
func (r *recorder) loadLocal(slot int) (int, error) {
	if vr, ok := r.localVreg[slot]; ok {
		return vr, nil
	}
	v := r.stack[r.base+slot]
	if !v.IsInt() {
		return 0, abort("local is not a boxed int32")
	}
	vr := r.ir.newVReg(TInt32)
	r.ir.emit(Instr{Op: OpLoadLocal, Type: TInt32, Dst: vr, Src1: -1, Src2: -1, Extra: int64(slot), Snapshot: -1})
	r.localVreg[slot] = vr
	return vr, nil
}

func (r *recorder) storeLocal(slot, vr int) {
	r.ir.emit(Instr{Op: OpStoreLocal, Type: TInt32, Dst: -1, Src1: vr, Src2: -1, Extra: int64(slot), Snapshot: -1})
	r.localVreg[slot] = vr
}

// snapshot captures every local this trace currently tracks, for a guard
// that exits to resumePC.
func (r *recorder) snapshot(resumePC int) int {
	slots := make([]SnapshotSlot, 0, len(r.localVreg))
	for slot, vr := range r.localVreg {
		slots = append(slots, SnapshotSlot{LocalSlot: slot, VReg: vr, Type: r.ir.VRegTypes[vr]})
	}
	r.ir.Snapshots = append(r.ir.Snapshots, Snapshot{PC: resumePC, Slot: slots})
	return len(r.ir.Snapshots) - 1
}

func (r *recorder) constInt(n int32) int {
	vr := r.ir.newVReg(TInt32)
	r.ir.emit(Instr{Op: OpConst, Type: TInt32, Dst: vr, Src1: -1, Src2: -1, Extra: int64(n), Snapshot: -1})
	return vr
}

// binArith records dst = a `op` b, including the snapshot its overflow
// guard exits to. The snapshot is taken now, against r.localVreg as it
// stands at r.stmtStart — not the trace's final, end-of-iteration local
// map — so an overflow here reboxes only locals this statement hasn't
// touched yet (still correct in the real frame) and resumes at a pc where
// the interpreter's operand stack is provably empty (see stmtStart's doc).
func (r *recorder) binArith(op Op, a, b int) (int, error) {
	if r.ir.VRegTypes[a] != TInt32 || r.ir.VRegTypes[b] != TInt32 {
		return 0, abort("arithmetic operand is not int32")
	}
	vr := r.ir.newVReg(TInt32)
	snap := r.snapshot(r.stmtStart)
	r.ir.emit(Instr{Op: op, Type: TInt32, Dst: vr, Src1: a, Src2: b, Snapshot: snap})
	return vr, nil
}

// step records one bytecode instruction's effect and returns the next pc.
// header is the trace's loop header, used to recognise the closing OpLoop.
func (r *recorder) step(op chunk.OpCode, pc, header int) (int, error) {
	switch op {
	case chunk.OpConst:
		var idx int
		idx, pc = r.u8(pc)
		c := r.constants[idx]
		if !c.IsInt() {
			return pc, abort("const is not a boxed int32")
		}
		r.push(r.constInt(c.AsInt()))
	case chunk.OpConst0:
		r.push(r.constInt(0))
	case chunk.OpConst1:
		r.push(r.constInt(1))
	case chunk.OpConst2:
		r.push(r.constInt(2))

	case chunk.OpGetLocal:
		var slot int
		slot, pc = r.u8(pc)
		vr, err := r.loadLocal(slot)
		if err != nil {
			return pc, err
		}
		r.push(vr)
	case chunk.OpGetLocal0, chunk.OpGetLocal1, chunk.OpGetLocal2, chunk.OpGetLocal3:
		vr, err := r.loadLocal(int(op - chunk.OpGetLocal0))
		if err != nil {
			return pc, err
		}
		r.push(vr)
	case chunk.OpSetLocal:
		var slot int
		slot, pc = r.u8(pc)
		r.storeLocal(slot, r.top())

	case chunk.OpPop:
		r.pop()
	case chunk.OpDup:
		r.push(r.top())

	case chunk.OpAdd, chunk.OpSub:
		b, a := r.pop(), r.pop()
		irOp := OpAdd
		if op == chunk.OpSub {
			irOp = OpSub
		}
		vr, err := r.binArith(irOp, a, b)
		if err != nil {
			return pc, err
		}
		r.push(vr)
	case chunk.OpAdd1, chunk.OpSub1:
		a := r.pop()
		irOp := OpAdd
		if op == chunk.OpSub1 {
			irOp = OpSub
		}
		vr, err := r.binArith(irOp, a, r.constInt(1))
		if err != nil {
			return pc, err
		}
		r.push(vr)

	case chunk.OpLtJumpFalse, chunk.OpGtJumpFalse, chunk.OpLteJumpFalse, chunk.OpGteJumpFalse:
		var target int
		target, pc = r.u16(pc)
		b, a := r.pop(), r.pop()
		if r.ir.VRegTypes[a] != TInt32 || r.ir.VRegTypes[b] != TInt32 {
			return pc, abort("comparison operand is not int32")
		}
		snap := r.snapshot(target)
		r.ir.emit(Instr{Op: OpGuardCmp, Type: TBool, Dst: -1, Src1: a, Src2: b, Extra: int64(fusedCond(op)), Snapshot: snap})

	case chunk.OpForCount:
		var counterSlot, endSlot, varSlot, exit int
		counterSlot, pc = r.u8(pc)
		endSlot, pc = r.u8(pc)
		varSlot, pc = r.u8(pc)
		exit, pc = r.u16(pc)
		if pc-6 != header {
			return pc, abort("FOR_COUNT mid-trace is not supported")
		}
		counterVr, err := r.loadLocal(counterSlot)
		if err != nil {
			return pc, err
		}
		endVr, err := r.loadLocal(endSlot)
		if err != nil {
			return pc, err
		}
		snap := r.snapshot(exit)
		r.ir.emit(Instr{Op: OpGuardCmp, Type: TBool, Dst: -1, Src1: counterVr, Src2: endVr, Extra: int64(CmpLT), Snapshot: snap})
		r.storeLocal(varSlot, counterVr)
		nextVr, err := r.binArith(OpAdd, counterVr, r.constInt(1))
		if err != nil {
			return pc, err
		}
		r.storeLocal(counterSlot, nextVr)

	case chunk.OpLoop:
		var target int
		target, pc = r.u16(pc)
		if target != header {
			return pc, abort("loop closes to a different header")
		}
		r.ir.emit(Instr{Op: OpLoopBack, Dst: -1, Src1: -1, Src2: -1, Snapshot: -1})

	default:
		return pc, abort("unsupported opcode " + op.Name())
	}
	return pc, nil
}

// fusedCond maps a fused compare-then-jump opcode to the CmpCond the guard
// must hold for the trace to continue (i.e. the non-taken, fallthrough
// side of run.go's `if !cmpHolds(...) { jump }`).
func fusedCond(op chunk.OpCode) CmpCond {
	switch op {
	case chunk.OpLtJumpFalse:
		return CmpLT
	case chunk.OpGtJumpFalse:
		return CmpGT
	case chunk.OpLteJumpFalse:
		return CmpLE
	case chunk.OpGteJumpFalse:
		return CmpGE
	}
	return CmpLT
}
