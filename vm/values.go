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
	"math"
	"strconv"

	"github.com/rill-lang/rill/value"
)

const (
	int32Min = -2147483648
	int32Max = 2147483647
)

// numericResult implements §9 open question (i)/§3's int-preserving
// arithmetic rule: an operation over two ints whose mathematical result
// still fits int32 stays boxed as int32; everything else (either operand a
// double, or an int result that overflows int32) is boxed as a double.
func numericResult(bothInt bool, i int64, f float64) value.Value {
	if bothInt && i >= int32Min && i <= int32Max {
		return value.Int(int32(i))
	}
	if bothInt {
		return value.Number(float64(i))
	}
	return value.Number(f)
}

// stringify renders v the way PRINT and string-concatenating `+` do (§9
// open question ii): nil/bool/int in their literal form, float via Go's
// shortest round-tripping representation (written without an exponent when
// the float is integral and below 1e21 in magnitude, so 2147483647 + 1
// prints as 2147483648), strings as themselves, and other
// heap objects by a bracketed type tag (container contents aren't in scope
// for the execution core's `+`/PRINT, only filesystem/JSON/etc. builtins
// would need full structural formatting, and those are explicitly out of
// scope here per §1).
func stringify(v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return strconv.FormatBool(v.AsBool())
	case v.IsInt():
		return strconv.FormatInt(int64(v.AsInt()), 10)
	case v.IsFloat():
		f := v.AsFloat()
		if f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.IsObject():
		o := v.AsObject()
		switch o.Type {
		case value.TString:
			return o.Str
		case value.TArray:
			return "[array]"
		case value.TDict:
			return "[dict]"
		case value.TBytes:
			return "[bytes]"
		case value.TRange:
			return "[range]"
		case value.TFunction:
			return "[function " + o.Fn.Name + "]"
		}
	}
	return "?"
}

// addValues implements ADD/ADD1: string-concatenating if either operand is
// a string, numeric (with overflow-to-double) otherwise. heap interns the
// concatenation result, consistent with every other string Object being
// interned (value.Equal's identity shortcut relies on this).
func (i *Instance) addValues(a, b value.Value) (value.Value, error) {
	if (a.IsObject() && a.AsObject().Type == value.TString) || (b.IsObject() && b.AsObject().Type == value.TString) {
		s := stringify(a) + stringify(b)
		obj := i.heap.InternString(s)
		i.maybeGC()
		return value.Object(obj), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, i.runtimeError("operand to '+' must be a number or string")
	}
	bothInt := a.IsInt() && b.IsInt()
	if bothInt {
		return numericResult(true, int64(a.AsInt())+int64(b.AsInt()), 0), nil
	}
	return numericResult(false, 0, a.AsNumber()+b.AsNumber()), nil
}

func (i *Instance) subValues(a, b value.Value) (value.Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, i.runtimeError("operand to '-' must be a number")
	}
	bothInt := a.IsInt() && b.IsInt()
	if bothInt {
		return numericResult(true, int64(a.AsInt())-int64(b.AsInt()), 0), nil
	}
	return numericResult(false, 0, a.AsNumber()-b.AsNumber()), nil
}

func (i *Instance) mulValues(a, b value.Value) (value.Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, i.runtimeError("operand to '*' must be a number")
	}
	bothInt := a.IsInt() && b.IsInt()
	if bothInt {
		return numericResult(true, int64(a.AsInt())*int64(b.AsInt()), 0), nil
	}
	return numericResult(false, 0, a.AsNumber()*b.AsNumber()), nil
}

func (i *Instance) divValues(a, b value.Value) (value.Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, i.runtimeError("operand to '/' must be a number")
	}
	if b.AsNumber() == 0 {
		return value.Nil, i.runtimeError("division by zero")
	}
	if a.IsInt() && b.IsInt() && a.AsInt()%b.AsInt() == 0 {
		return numericResult(true, int64(a.AsInt())/int64(b.AsInt()), 0), nil
	}
	return value.Number(a.AsNumber() / b.AsNumber()), nil
}

func (i *Instance) modValues(a, b value.Value) (value.Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, i.runtimeError("operand to '%' must be a number")
	}
	if b.AsNumber() == 0 {
		return value.Nil, i.runtimeError("modulo by zero")
	}
	if a.IsInt() && b.IsInt() {
		return numericResult(true, int64(a.AsInt()%b.AsInt()), 0), nil
	}
	return value.Number(math.Mod(a.AsNumber(), b.AsNumber())), nil
}

func (i *Instance) negValue(a value.Value) (value.Value, error) {
	if !a.IsNumber() {
		return value.Nil, i.runtimeError("operand to unary '-' must be a number")
	}
	if a.IsInt() {
		n := -int64(a.AsInt())
		if n >= int32Min && n <= int32Max {
			return value.Int(int32(n)), nil
		}
		return value.Number(float64(n)), nil
	}
	return value.Number(-a.AsFloat()), nil
}

// compareValues implements the ordered comparisons (§9 open question i):
// total over any two numerics, a runtime error for any other type pair.
// EQ/NEQ never call this — they go through value.Equal directly, which is
// total over every type.
func (i *Instance) compareValues(a, b value.Value) (int, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return 0, i.runtimeError("cannot compare non-numeric values")
	}
	af, bf := a.AsNumber(), b.AsNumber()
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

func (i *Instance) bitwiseOperands(a, b value.Value) (int32, int32, error) {
	if !a.IsInt() || !b.IsInt() {
		return 0, 0, i.runtimeError("bitwise operands must be integers")
	}
	return a.AsInt(), b.AsInt(), nil
}
