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

import "testing"

func countLive(h *Heap) int {
	n := 0
	for o := h.head; o != nil; o = o.Next {
		n++
	}
	return n
}

func TestInternStringDeduplicates(t *testing.T) {
	h := NewHeap(0)
	a := h.InternString("foo")
	b := h.InternString("foo")
	if a != b {
		t.Fatalf("InternString returned distinct objects for the same content")
	}
	if countLive(h) != 1 {
		t.Errorf("countLive() = %d, want 1", countLive(h))
	}
}

func TestSweepReclaimsUnmarked(t *testing.T) {
	h := NewHeap(0)
	kept := h.InternString("kept")
	h.InternString("garbage")
	if countLive(h) != 2 {
		t.Fatalf("expected 2 live objects before sweep, got %d", countLive(h))
	}

	h.Mark(kept)
	h.Sweep()

	if countLive(h) != 1 {
		t.Fatalf("expected 1 live object after sweep, got %d", countLive(h))
	}
	if h.head != kept {
		t.Errorf("surviving object is not the one that was marked")
	}
	if _, ok := h.interned.Get("garbage"); ok {
		t.Error("swept string is still present in the intern table")
	}
	if _, ok := h.interned.Get("kept"); !ok {
		t.Error("surviving string was dropped from the intern table")
	}
}

func TestSweepClearsMarkBitsOnSurvivors(t *testing.T) {
	h := NewHeap(0)
	o := h.InternString("x")
	h.Mark(o)
	h.Sweep()
	if o.Mark {
		t.Error("surviving object's mark bit was not cleared")
	}
}

func TestMarkTraversesArray(t *testing.T) {
	h := NewHeap(0)
	inner := h.InternString("inner")
	arr := h.NewArray([]Value{Object(inner), Int(1)})

	h.Mark(arr)
	if !inner.Mark {
		t.Error("Mark did not reach an array element's heap object")
	}
}

func TestMarkIsIdempotentOnCycles(t *testing.T) {
	h := NewHeap(0)
	d := h.NewDict()
	self := h.InternString("self")
	d.Dict.Put(self, Object(d)) // dict referencing itself through a value

	h.Mark(d) // must terminate even though d reaches itself
	if !d.Mark {
		t.Error("cyclic dict was not marked")
	}
}

func TestNeedsGC(t *testing.T) {
	h := NewHeap(8)
	if h.NeedsGC() {
		t.Fatal("empty heap already needs GC")
	}
	h.InternString("01234567890123456789")
	if !h.NeedsGC() {
		t.Error("heap past its threshold should need GC")
	}
}
