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

package chunk

// OpCode is a single bytecode instruction's opcode byte. Naming and
// grouping follow §4.4's opcode families.
type OpCode byte

const ( //nolint:revive
	OpNop OpCode = iota

	// stack
	OpConst
	OpConstLong // 16-bit constant index, for chunks with >256 constants
	OpConst0
	OpConst1
	OpConst2
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpPopN
	OpDup

	// variables
	OpGetLocal
	OpSetLocal
	OpGetLocal0
	OpGetLocal1
	OpGetLocal2
	OpGetLocal3
	OpGetGlobal
	OpSetGlobal

	// arithmetic / comparison / bitwise
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpNot
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// superinstructions (emission-time fusion, §4.2)
	OpAdd1 // absorbs CONST_1 followed by '+'
	OpSub1 // absorbs CONST_1 followed by '-'
	OpLtJumpFalse
	OpGtJumpFalse
	OpLteJumpFalse
	OpGteJumpFalse
	OpEqJumpFalse

	// control flow
	OpJmp
	OpJmpFalse
	OpJmpTrue
	OpLoop

	// calls
	OpCall
	OpReturn

	// aggregates
	OpArray
	OpIndex
	OpIndexSet
	OpRange

	// iteration
	OpForCount // operands: counter slot, end slot, var slot (1 byte each) + 16-bit exit offset
	OpForLoop  // operands: iterable slot, index slot, var slot (1 byte each) + 16-bit exit offset

	// OpCallBuiltin dispatches to a registered builtin (builtin.Registry):
	// its 16-bit operand is the builtin's registry index, looked up with
	// Registry.At each time the instruction executes, so it runs whatever
	// host routine Registry.Bind last installed for that builtin. Argument
	// count is fixed per builtin and already checked at compile time
	// (builtin.Builtin.Arity), so unlike OpCall there is no argc operand.
	OpCallBuiltin
)

// Name returns a human-readable mnemonic, used by the JIT recorder's abort
// diagnostics and by test failure messages.
func (op OpCode) Name() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "builtin"
}

var opNames = [...]string{
	OpNop:         "nop",
	OpConst:       "const",
	OpConstLong:   "const_long",
	OpConst0:      "const_0",
	OpConst1:      "const_1",
	OpConst2:      "const_2",
	OpNil:         "nil",
	OpTrue:        "true",
	OpFalse:       "false",
	OpPop:         "pop",
	OpPopN:        "popn",
	OpDup:         "dup",
	OpGetLocal:    "get_local",
	OpSetLocal:    "set_local",
	OpGetLocal0:   "get_local_0",
	OpGetLocal1:   "get_local_1",
	OpGetLocal2:   "get_local_2",
	OpGetLocal3:   "get_local_3",
	OpGetGlobal:   "get_global",
	OpSetGlobal:   "set_global",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpDiv:         "div",
	OpMod:         "mod",
	OpNeg:         "neg",
	OpNot:         "not",
	OpEq:          "eq",
	OpNeq:         "neq",
	OpLt:          "lt",
	OpGt:          "gt",
	OpLte:         "lte",
	OpGte:         "gte",
	OpBitAnd:      "band",
	OpBitOr:       "bor",
	OpBitXor:      "bxor",
	OpShl:         "shl",
	OpShr:         "shr",
	OpAdd1:        "add_1",
	OpSub1:        "sub_1",
	OpLtJumpFalse: "lt_jmp_false",
	OpGtJumpFalse: "gt_jmp_false",
	OpLteJumpFalse: "lte_jmp_false",
	OpGteJumpFalse: "gte_jmp_false",
	OpEqJumpFalse: "eq_jmp_false",
	OpJmp:         "jmp",
	OpJmpFalse:    "jmp_false",
	OpJmpTrue:     "jmp_true",
	OpLoop:        "loop",
	OpCall:        "call",
	OpReturn:      "return",
	OpArray:       "array",
	OpIndex:       "index",
	OpIndexSet:    "index_set",
	OpRange:       "range",
	OpForCount:    "for_count",
	OpForLoop:     "for_loop",
	OpCallBuiltin: "call_builtin",
}

// ComparisonFuse maps a comparison opcode to its fused "compare-then-
// jump-if-false" superinstruction, used by the compiler's emission-time
// peephole (§4.2) when a JMP_FALSE immediately follows a comparison.
func ComparisonFuse(op OpCode) (OpCode, bool) {
	switch op {
	case OpLt:
		return OpLtJumpFalse, true
	case OpGt:
		return OpGtJumpFalse, true
	case OpLte:
		return OpLteJumpFalse, true
	case OpGte:
		return OpGteJumpFalse, true
	case OpEq:
		return OpEqJumpFalse, true
	default:
		return 0, false
	}
}
