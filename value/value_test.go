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

package value

import (
	"math"
	"testing"
)

func TestIntRoundTrip(t *testing.T) {
	for _, i := range []int32{0, 1, -1, 42, math.MinInt32, math.MaxInt32} {
		v := Int(i)
		if !v.IsInt() {
			t.Fatalf("Int(%d).IsInt() = false", i)
		}
		if v.IsFloat() {
			t.Fatalf("Int(%d).IsFloat() = true", i)
		}
		if got := v.AsInt(); got != i {
			t.Errorf("Int(%d).AsInt() = %d", i, got)
		}
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -3.25, 1e300} {
		v := Number(f)
		if !v.IsFloat() {
			t.Fatalf("Number(%v).IsFloat() = false", f)
		}
		if v.IsInt() {
			t.Fatalf("Number(%v).IsInt() = true", f)
		}
		if got := v.AsFloat(); got != f {
			t.Errorf("Number(%v).AsFloat() = %v", f, got)
		}
	}
}

func TestNumberCanonicalizesNaN(t *testing.T) {
	v := Number(math.NaN())
	if !v.IsFloat() {
		t.Fatalf("Number(NaN).IsFloat() = false")
	}
	if !math.IsNaN(v.AsFloat()) {
		t.Errorf("Number(NaN).AsFloat() = %v, want NaN", v.AsFloat())
	}
}

func TestSingletons(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if !True.IsBool() || !True.AsBool() {
		t.Error("True is not a truthy bool")
	}
	if !False.IsBool() || False.AsBool() {
		t.Error("False is not a falsy bool")
	}
	if Nil.IsBool() || Nil.IsNumber() || Nil.IsObject() {
		t.Error("Nil misclassified as bool/number/object")
	}
}

func TestBool(t *testing.T) {
	if Bool(true) != True {
		t.Error("Bool(true) != True")
	}
	if Bool(false) != False {
		t.Error("Bool(false) != False")
	}
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Nil, False}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%v.Truthy() = true, want false", v)
		}
	}
	truthy := []Value{True, Int(0), Number(0), Int(1)}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%v.Truthy() = false, want true", v)
		}
	}
}

func TestEqualAcrossIntAndFloat(t *testing.T) {
	if !Equal(Int(2), Number(2.0)) {
		t.Error("Equal(Int(2), Number(2.0)) = false")
	}
	if Equal(Int(2), Number(2.5)) {
		t.Error("Equal(Int(2), Number(2.5)) = true")
	}
}

func TestObjectRoundTrip(t *testing.T) {
	h := NewHeap(0)
	o := h.InternString("hello")
	v := Object(o)
	if !v.IsObject() {
		t.Fatalf("Object(o).IsObject() = false")
	}
	if v.IsNumber() || v.IsBool() || v.IsNil() {
		t.Fatalf("Object(o) misclassified")
	}
	if got := v.AsObject(); got != o {
		t.Errorf("AsObject() = %p, want %p", got, o)
	}
}

func TestEqualInternedStringsByIdentity(t *testing.T) {
	h := NewHeap(0)
	a := Object(h.InternString("shared"))
	b := Object(h.InternString("shared"))
	if !Equal(a, b) {
		t.Error("two interned copies of the same string should compare equal")
	}
}
