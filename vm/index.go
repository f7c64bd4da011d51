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

import "github.com/rill-lang/rill/value"

// indexGet implements INDEX over every indexable type (§4.4 aggregates):
// array/bytes/range by integer position, string by byte offset (returning a
// one-byte interned string, the simplest indexing rule for a byte-oriented
// string representation), dictionary by string key.
func (i *Instance) indexGet(container, idx value.Value) (value.Value, error) {
	if !container.IsObject() {
		return value.Nil, i.runtimeError("value is not indexable")
	}
	o := container.AsObject()
	switch o.Type {
	case value.TArray:
		n, err := i.indexInt(idx, len(o.Arr))
		if err != nil {
			return value.Nil, err
		}
		return o.Arr[n], nil
	case value.TBytes:
		n, err := i.indexInt(idx, len(o.Bytes))
		if err != nil {
			return value.Nil, err
		}
		return value.Int(int32(o.Bytes[n])), nil
	case value.TString:
		n, err := i.indexInt(idx, len(o.Str))
		if err != nil {
			return value.Nil, err
		}
		sub := i.heap.InternString(string(o.Str[n]))
		return value.Object(sub), nil
	case value.TRange:
		n, err := i.indexInt(idx, o.Len())
		if err != nil {
			return value.Nil, err
		}
		return value.Int(o.RangeStart + int32(n)), nil
	case value.TDict:
		key, err := i.dictKey(idx)
		if err != nil {
			return value.Nil, err
		}
		v, ok := o.Dict.Get(key)
		if !ok {
			return value.Nil, nil
		}
		return v, nil
	}
	return value.Nil, i.runtimeError("value is not indexable")
}

// indexSet implements INDEX_SET. Arrays are fixed-length from INDEX_SET's
// point of view (no auto-growth on out-of-range assignment — append-style
// growth belongs to a builtin, §1); dictionaries accept any key, inserting
// on first use.
func (i *Instance) indexSet(container, idx, v value.Value) error {
	if !container.IsObject() {
		return i.runtimeError("value is not indexable")
	}
	o := container.AsObject()
	switch o.Type {
	case value.TArray:
		n, err := i.indexInt(idx, len(o.Arr))
		if err != nil {
			return err
		}
		o.Arr[n] = v
		return nil
	case value.TDict:
		key, err := i.dictKey(idx)
		if err != nil {
			return err
		}
		o.Dict.Put(key, v)
		return nil
	}
	return i.runtimeError("value does not support index assignment")
}

func (i *Instance) indexInt(idx value.Value, length int) (int, error) {
	if !idx.IsInt() {
		return 0, i.runtimeError("index must be an integer")
	}
	n := int(idx.AsInt())
	if n < 0 || n >= length {
		return 0, i.runtimeError("index out of range")
	}
	return n, nil
}

// dictKey canonicalises an index Value into the interned string Object a
// dictionary keys by; only strings are valid dictionary keys, matching
// value.Equal's string-identity special case.
func (i *Instance) dictKey(idx value.Value) (*value.Object, error) {
	if !idx.IsObject() || idx.AsObject().Type != value.TString {
		return nil, i.runtimeError("dictionary keys must be strings")
	}
	return idx.AsObject(), nil
}

// iterableLen and iterableElem drive FOR_LOOP's generic iteration path
// (§4.3): array/string/bytes/range are iterable by position, dictionaries
// are not (there is no defined iteration order for an open-addressed
// table here, and the spec's for-loop only names arrays/ranges, §4.3).
func iterableLen(v value.Value) (int, bool) {
	if !v.IsObject() {
		return 0, false
	}
	switch o := v.AsObject(); o.Type {
	case value.TArray, value.TString, value.TBytes, value.TRange:
		return o.Len(), true
	}
	return 0, false
}

func (i *Instance) iterableElem(v value.Value, idx int) value.Value {
	o := v.AsObject()
	switch o.Type {
	case value.TArray:
		return o.Arr[idx]
	case value.TString:
		return value.Object(i.heap.InternString(string(o.Str[idx])))
	case value.TBytes:
		return value.Int(int32(o.Bytes[idx]))
	case value.TRange:
		return value.Int(o.RangeStart + int32(idx))
	}
	return value.Nil
}
