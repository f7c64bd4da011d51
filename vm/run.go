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

package vm

import (
	"fmt"

	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/value"
)

// Run makes ch the Instance's Chunk and executes it from offset 0 until the
// top-level frame
// returns, dispatching on Chunk bytes per §4.4. Run is re-entrant across
// REPL statements: the VM keeps its globals and heap between calls, only
// resetting the frame/stack bookkeeping for the new top-level code.
func (i *Instance) Run(ch *chunk.Chunk) (value.Value, error) {
	i.chunk = ch
	i.sp = 0
	i.frameCount = 1
	i.frames[0] = callFrame{fn: nil, ip: 0, base: 0}

	frame := &i.frames[0]
	code := i.chunk.Code

	readByte := func() byte {
		b := code[frame.ip]
		frame.ip++
		return b
	}
	readU16 := func() int {
		hi, lo := code[frame.ip], code[frame.ip+1]
		frame.ip += 2
		return int(hi)<<8 | int(lo)
	}

	for {
		if i.debug {
			i.traceInstruction(frame, code)
		}
		i.insCount++
		op := chunk.OpCode(readByte())

		switch op {
		case chunk.OpNop:
			// no-op

		case chunk.OpConst:
			idx := int(readByte())
			if err := i.push(i.chunk.Constants[idx]); err != nil {
				return value.Nil, err
			}
		case chunk.OpConstLong:
			idx := readU16()
			if err := i.push(i.chunk.Constants[idx]); err != nil {
				return value.Nil, err
			}
		case chunk.OpConst0:
			if err := i.push(value.Int(0)); err != nil {
				return value.Nil, err
			}
		case chunk.OpConst1:
			if err := i.push(value.Int(1)); err != nil {
				return value.Nil, err
			}
		case chunk.OpConst2:
			if err := i.push(value.Int(2)); err != nil {
				return value.Nil, err
			}
		case chunk.OpNil:
			if err := i.push(value.Nil); err != nil {
				return value.Nil, err
			}
		case chunk.OpTrue:
			if err := i.push(value.True); err != nil {
				return value.Nil, err
			}
		case chunk.OpFalse:
			if err := i.push(value.False); err != nil {
				return value.Nil, err
			}
		case chunk.OpPop:
			i.pop()
		case chunk.OpPopN:
			n := int(readByte())
			i.sp -= n
		case chunk.OpDup:
			if err := i.push(i.peek(0)); err != nil {
				return value.Nil, err
			}

		case chunk.OpGetLocal:
			slot := int(readByte())
			if err := i.push(i.stack[frame.base+slot]); err != nil {
				return value.Nil, err
			}
		case chunk.OpGetLocal0, chunk.OpGetLocal1, chunk.OpGetLocal2, chunk.OpGetLocal3:
			slot := int(op - chunk.OpGetLocal0)
			if err := i.push(i.stack[frame.base+slot]); err != nil {
				return value.Nil, err
			}
		case chunk.OpSetLocal:
			slot := int(readByte())
			i.stack[frame.base+slot] = i.peek(0)

		case chunk.OpGetGlobal:
			idx := readU16()
			name := i.chunk.Constants[idx].AsObject()
			v, ok := i.globals.Get(name)
			if !ok {
				return value.Nil, i.runtimeErrorf("undefined global '%s'", name.Str)
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpSetGlobal:
			idx := readU16()
			name := i.chunk.Constants[idx].AsObject()
			i.globals.Put(name, i.peek(0))

		case chunk.OpAdd:
			b, a := i.pop(), i.pop()
			v, err := i.addValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpAdd1:
			a := i.pop()
			v, err := i.addValues(a, value.Int(1))
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpSub:
			b, a := i.pop(), i.pop()
			v, err := i.subValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpSub1:
			a := i.pop()
			v, err := i.subValues(a, value.Int(1))
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpMul:
			b, a := i.pop(), i.pop()
			v, err := i.mulValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpDiv:
			b, a := i.pop(), i.pop()
			v, err := i.divValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpMod:
			b, a := i.pop(), i.pop()
			v, err := i.modValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpNeg:
			v, err := i.negValue(i.pop())
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpNot:
			v := i.pop()
			if err := i.push(value.Bool(!v.Truthy())); err != nil {
				return value.Nil, err
			}
		case chunk.OpEq:
			b, a := i.pop(), i.pop()
			if err := i.push(value.Bool(value.Equal(a, b))); err != nil {
				return value.Nil, err
			}
		case chunk.OpNeq:
			b, a := i.pop(), i.pop()
			if err := i.push(value.Bool(!value.Equal(a, b))); err != nil {
				return value.Nil, err
			}
		case chunk.OpLt, chunk.OpGt, chunk.OpLte, chunk.OpGte:
			b, a := i.pop(), i.pop()
			cmp, err := i.compareValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(value.Bool(cmpHolds(op, cmp))); err != nil {
				return value.Nil, err
			}
		case chunk.OpBitAnd, chunk.OpBitOr, chunk.OpBitXor, chunk.OpShl, chunk.OpShr:
			b, a := i.pop(), i.pop()
			av, bv, err := i.bitwiseOperands(a, b)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(value.Int(applyBitwise(op, av, bv))); err != nil {
				return value.Nil, err
			}

		case chunk.OpLtJumpFalse, chunk.OpGtJumpFalse, chunk.OpLteJumpFalse, chunk.OpGteJumpFalse:
			target := readU16()
			b, a := i.pop(), i.pop()
			cmp, err := i.compareValues(a, b)
			if err != nil {
				return value.Nil, err
			}
			if !cmpHolds(fusedToPlain(op), cmp) {
				frame.ip = target
			}
		case chunk.OpEqJumpFalse:
			target := readU16()
			b, a := i.pop(), i.pop()
			if !value.Equal(a, b) {
				frame.ip = target
			}

		case chunk.OpJmp:
			frame.ip = readU16()
		case chunk.OpJmpFalse:
			target := readU16()
			v := i.pop()
			if !v.Truthy() {
				frame.ip = target
			}
		case chunk.OpJmpTrue:
			target := readU16()
			v := i.pop()
			if v.Truthy() {
				frame.ip = target
			}
		case chunk.OpLoop:
			target := readU16()
			if i.jitEnabled {
				if done, retv, err := i.tryJIT(target, frame); done {
					if err != nil {
						return value.Nil, err
					}
					if i.frameCount == 0 {
						return retv, nil
					}
					frame = &i.frames[i.frameCount-1]
					code = i.chunk.Code
					continue
				}
			}
			frame.ip = target

		case chunk.OpCall:
			argc := int(readByte())
			if err := i.call(argc); err != nil {
				return value.Nil, err
			}
			frame = &i.frames[i.frameCount-1]
		case chunk.OpReturn:
			result := i.pop()
			i.frameCount--
			if i.frameCount == 0 {
				return result, nil
			}
			i.sp = frame.base - 1
			if err := i.push(result); err != nil {
				return value.Nil, err
			}
			frame = &i.frames[i.frameCount-1]

		case chunk.OpArray:
			count := int(readByte())
			elems := make([]value.Value, count)
			for k := count - 1; k >= 0; k-- {
				elems[k] = i.pop()
			}
			obj := i.heap.NewArray(elems)
			i.maybeGC()
			if err := i.push(value.Object(obj)); err != nil {
				return value.Nil, err
			}
		case chunk.OpIndex:
			idx, container := i.pop(), i.pop()
			v, err := i.indexGet(container, idx)
			if err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpIndexSet:
			v, idx, container := i.pop(), i.pop(), i.pop()
			if err := i.indexSet(container, idx, v); err != nil {
				return value.Nil, err
			}
			if err := i.push(v); err != nil {
				return value.Nil, err
			}
		case chunk.OpRange:
			end, start := i.pop(), i.pop()
			if !start.IsInt() || !end.IsInt() {
				return value.Nil, i.runtimeError("range bounds must be integers")
			}
			obj := i.heap.NewRange(start.AsInt(), end.AsInt())
			i.maybeGC()
			if err := i.push(value.Object(obj)); err != nil {
				return value.Nil, err
			}

		case chunk.OpForCount:
			counterSlot, endSlot, varSlot := int(readByte()), int(readByte()), int(readByte())
			exit := readU16()
			counter := i.stack[frame.base+counterSlot].AsInt()
			end := i.stack[frame.base+endSlot].AsInt()
			if counter >= end {
				frame.ip = exit
				continue
			}
			i.stack[frame.base+varSlot] = value.Int(counter)
			i.stack[frame.base+counterSlot] = value.Int(counter + 1)
		case chunk.OpForLoop:
			iterSlot, idxSlot, varSlot := int(readByte()), int(readByte()), int(readByte())
			exit := readU16()
			iterable := i.stack[frame.base+iterSlot]
			idx := i.stack[frame.base+idxSlot].AsInt()
			length, ok := iterableLen(iterable)
			if !ok {
				return value.Nil, i.runtimeError("value is not iterable")
			}
			if int(idx) >= length {
				frame.ip = exit
				continue
			}
			i.stack[frame.base+varSlot] = i.iterableElem(iterable, int(idx))
			i.stack[frame.base+idxSlot] = value.Int(idx + 1)

		default:
			if op >= chunk.OpCallBuiltin {
				idx := readU16()
				if err := i.callBuiltin(idx); err != nil {
					return value.Nil, err
				}
				break
			}
			return value.Nil, i.runtimeErrorf("unknown opcode %d", op)
		}
	}
}

// call implements CALL <argc>: the callee sits argc slots below the top of
// the stack, with its arguments above it in call order. The new frame's
// base points at the first argument, matching this compiler's local-slot
// numbering (parameters occupy slots 0..argc-1, there is no slot reserved
// for the callee itself as in a clox-style "receiver" convention — see
// DESIGN.md). RETURN tears the frame down to base-1, which removes both
// the arguments and the callee in one step.
func (i *Instance) call(argc int) error {
	calleeIdx := i.sp - argc - 1
	if calleeIdx < 0 {
		return i.runtimeError("stack underflow in call")
	}
	callee := i.stack[calleeIdx]
	if !callee.IsObject() || callee.AsObject().Type != value.TFunction {
		return i.runtimeError("can only call functions")
	}
	fn := callee.AsObject().Fn
	if argc != fn.Arity {
		return i.runtimeErrorf("function '%s' expects %d argument(s), got %d", fn.Name, fn.Arity, argc)
	}
	if i.frameCount >= len(i.frames) {
		return i.runtimeError("stack overflow")
	}
	i.frames[i.frameCount] = callFrame{fn: callee.AsObject(), ip: fn.Start, base: calleeIdx + 1}
	i.frameCount++
	return nil
}

func (i *Instance) callBuiltin(idx int) error {
	b := i.reg.At(idx)
	if b == nil {
		return i.runtimeErrorf("unknown builtin index %d", idx)
	}
	args := make([]value.Value, b.Arity)
	for k := b.Arity - 1; k >= 0; k-- {
		args[k] = i.pop()
	}
	result, err := b.Fn(args)
	if err != nil {
		return i.runtimeErrorf("builtin '%s': %s", b.Name, err.Error())
	}
	i.maybeGC()
	return i.push(result)
}

// cmpHolds reports whether a three-way comparison result (−1/0/1, as
// returned by compareValues) satisfies the ordering op names.
func cmpHolds(op chunk.OpCode, cmp int) bool {
	switch op {
	case chunk.OpLt:
		return cmp < 0
	case chunk.OpGt:
		return cmp > 0
	case chunk.OpLte:
		return cmp <= 0
	case chunk.OpGte:
		return cmp >= 0
	}
	return false
}

// fusedToPlain maps a fused compare-then-jump superinstruction back to its
// plain comparison opcode, so cmpHolds can be shared between both forms.
func fusedToPlain(op chunk.OpCode) chunk.OpCode {
	switch op {
	case chunk.OpLtJumpFalse:
		return chunk.OpLt
	case chunk.OpGtJumpFalse:
		return chunk.OpGt
	case chunk.OpLteJumpFalse:
		return chunk.OpLte
	case chunk.OpGteJumpFalse:
		return chunk.OpGte
	}
	return chunk.OpNop
}

func applyBitwise(op chunk.OpCode, a, b int32) int32 {
	switch op {
	case chunk.OpBitAnd:
		return a & b
	case chunk.OpBitOr:
		return a | b
	case chunk.OpBitXor:
		return a ^ b
	case chunk.OpShl:
		return a << (uint32(b) & 31)
	case chunk.OpShr:
		return a >> (uint32(b) & 31)
	}
	return 0
}

// traceInstruction prints a one-line disassembly of the instruction about
// to execute, enabled by the Debug option and used by the REPL's -d flag.
func (i *Instance) traceInstruction(frame *callFrame, code []byte) {
	op := chunk.OpCode(code[frame.ip])
	fmt.Fprintf(i.output, "%04d %-16s sp=%d\n", frame.ip, op.Name(), i.sp)
}
