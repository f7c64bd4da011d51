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

// maybeGC runs a mark-sweep collection if the heap has crossed its next-gc
// threshold (§4.4: `bytes_allocated >= next_gc`). Called right after any
// opcode that allocates (ARRAY, RANGE, string concatenation, CALL_BUILTIN),
// the only points bytesAllocated can cross the threshold.
func (i *Instance) maybeGC() {
	if !i.heap.NeedsGC() {
		return
	}
	i.markRoots()
	i.heap.Sweep()
}

// markRoots marks every Value reachable from outside the heap itself: the
// live portion of the value stack, the function objects pinned in each
// active call frame, the chunk's constant pool (string/function constants
// must survive even between calls that reference them), and the global
// table's keys and values.
func (i *Instance) markRoots() {
	for n := 0; n < i.sp; n++ {
		if i.stack[n].IsObject() {
			i.heap.Mark(i.stack[n].AsObject())
		}
	}
	for f := 0; f < i.frameCount; f++ {
		if i.frames[f].fn != nil {
			i.heap.Mark(i.frames[f].fn)
		}
	}
	for _, c := range i.chunk.Constants {
		if c.IsObject() {
			i.heap.Mark(c.AsObject())
		}
	}
	i.globals.Iter(func(k *value.Object, v value.Value) (stop bool) {
		i.heap.Mark(k)
		if v.IsObject() {
			i.heap.Mark(v.AsObject())
		}
		return false
	})
}
