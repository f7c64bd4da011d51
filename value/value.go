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

// Package value implements Rill's uniformly-sized tagged Value and its heap
// object model (§3 of the spec).
//
// A Value is a real NaN-box: a double, a boxed int32, the nil/true/false
// singletons, or a 48-bit heap pointer are all packed into one uint64 using
// the unused payload space of a quiet NaN. Type queries are bitmask tests,
// as required, and every arithmetic result that fits int32 and has an
// integer source operand is reboxed as int32 rather than promoted to
// double (enforced by the vm package's arithmetic opcodes, not here).
package value

import "math"

// Value is Rill's uniform 64-bit tagged word.
type Value uint64

// Bit layout, most to least significant:
//
//	qnan (0x7ff8_0000_0000_0000) marks every non-double Value. A real
//	double that happens to BE a quiet NaN with that exact payload cannot
//	occur from any arithmetic Rill performs (IEEE json/transcendental
//	NaNs from built-ins are canonicalised to the tag values below), so
//	the high bits alone distinguish "is this payload" from "is this a
//	plain double".
const (
	qnan     uint64 = 0x7ff8000000000000
	signBit  uint64 = 1 << 63
	tagMask  uint64 = 0x7 << 48
	tagInt   uint64 = 1 << 48
	tagNil   uint64 = 2 << 48
	tagTrue  uint64 = 3 << 48
	tagFalse uint64 = 4 << 48
	tagPtr   uint64 = 5 << 48
	ptrMask  uint64 = 0x0000ffffffffffff
)

// Nil, True and False are the VM-wide singletons.
var (
	Nil   = Value(qnan | tagNil)
	True  = Value(qnan | tagTrue)
	False = Value(qnan | tagFalse)
)

// isPayload reports whether v is a tagged non-float singleton (int, nil,
// true or false). A heap pointer also sets signBit, but carries tagPtr
// rather than one of the singleton tags, and the canonical NaN produced by
// Number carries no tag at all (tag bits left zero) — so this check, combined
// with IsObject's explicit tagPtr match, keeps the three NaN-box residents
// that set signBit (pointer, canonical NaN, and nothing else) distinguishable.
func isPayload(v Value) bool {
	return uint64(v)&qnan == qnan && uint64(v)&signBit == 0
}

// Number boxes a float64 as a Value. NaN inputs are canonicalised to a
// quiet NaN with no Rill tag so they never collide with the tagged space;
// they will report IsFloat() true and AsFloat() math.NaN().
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value(math.Float64bits(math.NaN()) | signBit)
	}
	return Value(math.Float64bits(f))
}

// Int boxes a 32-bit signed integer as a Value.
func Int(i int32) Value {
	return Value(qnan | tagInt | (uint64(uint32(i)) & 0xffffffff))
}

// Bool boxes a Go bool as a Value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Object boxes a heap pointer as a Value. Heap pointers are limited to 48
// bits, matching real-world NaN-boxing implementations and comfortably
// covering any process heap.
func Object(o *Object) Value {
	return Value(qnan | signBit | tagPtr | (uint64(uintptr(ptrOf(o))) & ptrMask))
}

// IsFloat reports whether v holds a double (including canonicalised NaN).
func (v Value) IsFloat() bool { return !isPayload(v) && !v.IsObject() }

// IsInt reports whether v holds a boxed int32.
func (v Value) IsInt() bool { return isPayload(v) && uint64(v)&tagMask == tagInt }

// IsNil reports whether v is the nil singleton.
func (v Value) IsNil() bool { return v == Nil }

// IsBool reports whether v is true or false.
func (v Value) IsBool() bool { return v == True || v == False }

// IsObject reports whether v holds a heap pointer. tagPtr disambiguates a
// pointer from the canonical NaN double, which also sets signBit but leaves
// the tag bits zero.
func (v Value) IsObject() bool {
	return uint64(v)&qnan == qnan && uint64(v)&signBit != 0 && uint64(v)&tagMask == tagPtr
}

// IsNumber reports whether v holds either an int or a float.
func (v Value) IsNumber() bool { return v.IsFloat() || v.IsInt() }

// AsFloat unboxes v as a float64. v must satisfy IsFloat.
func (v Value) AsFloat() float64 { return math.Float64frombits(uint64(v)) }

// AsInt unboxes v as an int32. v must satisfy IsInt.
func (v Value) AsInt() int32 { return int32(uint32(uint64(v) & 0xffffffff)) }

// AsBool unboxes v as a bool. v must satisfy IsBool.
func (v Value) AsBool() bool { return v == True }

// AsObject unboxes v as a heap pointer. v must satisfy IsObject.
func (v Value) AsObject() *Object { return objectFromPtr(uintptr(uint64(v) & ptrMask)) }

// AsNumber returns v's numeric value as a float64, widening an int if
// necessary. v must satisfy IsNumber.
func (v Value) AsNumber() float64 {
	if v.IsInt() {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// Truthy implements Rill's truthiness rule: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	return v != Nil && v != False
}

// Equal implements the EQ opcode's value-wise equality (§4.4): numbers
// compare by value across int/float, strings by interned identity (which is
// safe because string construction always goes through interning), other
// objects by identity, singletons by identity.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.AsNumber() == b.AsNumber()
	}
	if a.IsObject() && b.IsObject() {
		ao, bo := a.AsObject(), b.AsObject()
		if ao.Type == TString && bo.Type == TString {
			return ao == bo // interned: identity implies content equality
		}
		return ao == bo
	}
	return a == b
}
