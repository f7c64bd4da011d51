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

import "github.com/dolthub/swiss"

// ObjType identifies a heap Object's concrete representation.
type ObjType uint8

const (
	TString ObjType = iota
	TArray
	TDict
	TBytes
	TRange
	TFunction
)

// Object is the header every heap value carries: {type tag, GC mark bit,
// next-in-heap-list pointer}, per §3. The payload fields below are a union
// in spirit; only the fields matching Type are meaningful for a given
// Object, mirroring the teacher's single-representation Cell taken to its
// logical conclusion for a richer type lattice.
type Object struct {
	Type ObjType
	Mark bool
	Next *Object // intrusive heap list, owned by the VM's collector

	// TString
	Str  string
	hash uint64

	// TArray
	Arr []Value

	// TDict: open-addressed, keyed by interned *Object (TString).
	Dict *swiss.Map[*Object, Value]

	// TBytes
	Bytes []byte

	// TRange: three 32-bit integers start/current/end.
	RangeStart, RangeCur, RangeEnd int32

	// TFunction
	Fn *FunctionProto
}

// FunctionProto describes a compiled function: arity, local count, and the
// start offset of its body within the owning Chunk, plus an optional name
// for diagnostics. Every function's body lives inline in the single
// program-wide Chunk the calling Instance already holds (compiler/
// functions.go's fnDeclaration shares one flat chunk across every nested
// frame), so Proto does not itself carry a Chunk reference — Start is an
// offset into whatever Chunk the VM is already running.
type FunctionProto struct {
	Name       string
	Arity      int
	LocalCount int
	Start      int
}

// NewArray allocates an array Object from the given initial contents. The
// slice is taken by reference; callers must not retain it afterwards.
func NewArray(elems []Value) *Object {
	return &Object{Type: TArray, Arr: elems}
}

// NewDict allocates an empty dictionary Object backed by a swiss.Map.
func NewDict() *Object {
	return &Object{Type: TDict, Dict: swiss.NewMap[*Object, Value](8)}
}

// NewBytes allocates a bytes Object.
func NewBytes(b []byte) *Object {
	return &Object{Type: TBytes, Bytes: b}
}

// NewRange allocates a range Object over [start, end).
func NewRange(start, end int32) *Object {
	return &Object{Type: TRange, RangeStart: start, RangeCur: start, RangeEnd: end}
}

// NewFunction allocates a function Object from its prototype.
func NewFunction(p *FunctionProto) *Object {
	return &Object{Type: TFunction, Fn: p}
}

// Push appends to an array Object, growing amortised-O(1) via append's own
// doubling strategy.
func (o *Object) Push(v Value) {
	o.Arr = append(o.Arr, v)
}

// Pop removes and returns the last element of an array Object. The caller
// must ensure the array is non-empty.
func (o *Object) Pop() Value {
	n := len(o.Arr) - 1
	v := o.Arr[n]
	o.Arr = o.Arr[:n]
	return v
}

// Len reports the logical length of a string/array/dict/bytes/range Object.
func (o *Object) Len() int {
	switch o.Type {
	case TString:
		return len(o.Str)
	case TArray:
		return len(o.Arr)
	case TDict:
		return o.Dict.Count()
	case TBytes:
		return len(o.Bytes)
	case TRange:
		if o.RangeEnd > o.RangeStart {
			return int(o.RangeEnd - o.RangeStart)
		}
		return 0
	}
	return 0
}
