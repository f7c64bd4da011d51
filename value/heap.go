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

// Heap is the VM-owned mark-sweep collector for every heap Object: strings,
// arrays, dictionaries, bytes, ranges and functions all live here and are
// traced together, per §3. Strings are interned by content so that two
// equal string literals or concatenation results always share one Object,
// which is what makes value.Equal's identity comparison for strings safe.
type Heap struct {
	head           *Object // intrusive linked list of every live allocation
	interned       *swiss.Map[string, *Object]
	bytesAllocated int64
	nextGC         int64
}

// NewHeap returns an empty Heap with GC threshold set to gcThreshold bytes.
func NewHeap(gcThreshold int64) *Heap {
	if gcThreshold <= 0 {
		gcThreshold = 1 << 20
	}
	return &Heap{
		interned: swiss.NewMap[string, *Object](64),
		nextGC:   gcThreshold,
	}
}

// BytesAllocated reports the collector's running estimate of live heap
// size, used by the VM to decide when to run Collect.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// NeedsGC reports whether bytesAllocated has crossed the next-collection
// threshold (§4.4: `bytes_allocated >= next_gc`).
func (h *Heap) NeedsGC() bool { return h.bytesAllocated >= h.nextGC }

func (h *Heap) track(o *Object, size int64) *Object {
	o.Next = h.head
	h.head = o
	h.bytesAllocated += size
	return o
}

func objSize(o *Object) int64 {
	switch o.Type {
	case TString:
		return int64(24 + len(o.Str))
	case TArray:
		return int64(24 + 8*len(o.Arr))
	case TDict:
		return int64(24 + 32*o.Dict.Count())
	case TBytes:
		return int64(24 + len(o.Bytes))
	default:
		return 24
	}
}

// InternString returns the canonical Object for string s, allocating and
// registering it on first sight. copy_string in the reference design is
// this function: canonicalise by hash (the swiss map's own hashing), then
// equality (the map's own key comparison).
func (h *Heap) InternString(s string) *Object {
	if o, ok := h.interned.Get(s); ok {
		return o
	}
	o := &Object{Type: TString, Str: s}
	h.interned.Put(s, o)
	return h.track(o, objSize(o))
}

// NewArray allocates and registers an array Object.
func (h *Heap) NewArray(elems []Value) *Object {
	o := NewArray(elems)
	return h.track(o, objSize(o))
}

// NewDict allocates and registers a dictionary Object.
func (h *Heap) NewDict() *Object {
	o := NewDict()
	return h.track(o, objSize(o))
}

// NewBytes allocates and registers a bytes Object.
func (h *Heap) NewBytes(b []byte) *Object {
	o := NewBytes(b)
	return h.track(o, objSize(o))
}

// NewRange allocates and registers a range Object.
func (h *Heap) NewRange(start, end int32) *Object {
	o := NewRange(start, end)
	return h.track(o, objSize(o))
}

// NewFunction allocates and registers a function Object.
func (h *Heap) NewFunction(p *FunctionProto) *Object {
	o := NewFunction(p)
	return h.track(o, objSize(o))
}

// Mark sets the GC mark bit on o and, for container objects, recursively
// marks every reachable Value — arrays and dictionaries may form cycles, so
// the mark is idempotent on already-marked objects to terminate.
func (h *Heap) Mark(o *Object) {
	if o == nil || o.Mark {
		return
	}
	o.Mark = true
	switch o.Type {
	case TArray:
		for _, v := range o.Arr {
			if v.IsObject() {
				h.Mark(v.AsObject())
			}
		}
	case TDict:
		o.Dict.Iter(func(k *Object, v Value) (stop bool) {
			h.Mark(k)
			if v.IsObject() {
				h.Mark(v.AsObject())
			}
			return false
		})
	}
}

// Sweep reclaims every unmarked Object and clears mark bits on survivors,
// then doubles the GC threshold per §4.4 (`next_gc = bytes_allocated * 2`).
// markRoots must have already called Mark on every GC root (value stack,
// call frames, constants, globals) before Sweep runs.
func (h *Heap) Sweep() {
	var kept *Object
	var live int64
	for o := h.head; o != nil; {
		next := o.Next
		if o.Mark {
			o.Mark = false
			o.Next = kept
			kept = o
			live += objSize(o)
		} else if o.Type == TString {
			h.interned.Delete(o.Str)
		}
		o = next
	}
	h.head = kept
	h.bytesAllocated = live
	h.nextGC = live * 2
	if h.nextGC < 1<<16 {
		h.nextGC = 1 << 16
	}
}
