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

package jit

// numPhysRegs is how many general-purpose amd64 registers the allocator has
// to work with, after reserving RAX as the emitter's scratch register, RDI for the
// base pointer argument and RSP/RBP for the stack (§4.5: a single forward
// allocation pass over a handful of general-purpose registers, no spill
// slots — a trace that needs more than this aborts rather than spill).
const numPhysRegs = 8

// Allocation is the linear-scan allocator's output: which physical register
// (an index into the emitter's register table, asm.go) holds each vreg.
type Allocation struct {
	Reg []int // len == len(ir.VRegTypes); -1 for a vreg no instruction ever defined
}

type liveRange struct {
	vreg      int
	def, last int // instruction indices; last == def if the vreg is never read
}

// Allocate runs a single forward linear-scan pass (§4.5): compute each
// vreg's live range first (a forward pass recording each vreg's first and
// last use), extending every vreg referenced by any guard snapshot to the
// end of the trace so it stays live across the back edge, then walk forward assigning a free physical register to each
// vreg at its definition, evicting whichever active register's vreg died
// earliest when the pool is exhausted. A trace with no evictable register
// left aborts (falls back to interpretation) rather than spill to memory.
func Allocate(ir *IR) (*Allocation, error) {
	n := len(ir.VRegTypes)
	ranges := make([]liveRange, n)
	for v := range ranges {
		ranges[v] = liveRange{vreg: v, def: -1, last: -1}
	}
	for idx, in := range ir.Instrs {
		for _, vr := range []int{in.Dst, in.Src1, in.Src2} {
			if vr < 0 {
				continue
			}
			if ranges[vr].def < 0 {
				ranges[vr].def = idx
			}
			ranges[vr].last = idx
		}
	}
	// A vreg captured by any guard's snapshot must stay live through that
	// guard, and the trace's carried locals (referenced again by the time
	// OpLoopBack closes it) must stay live to the very end so the back edge
	// sees them in a register rather than having already been evicted.
	for _, snap := range ir.Snapshots {
		for _, slot := range snap.Slot {
			if ranges[slot.VReg].last < len(ir.Instrs)-1 {
				ranges[slot.VReg].last = len(ir.Instrs) - 1
			}
		}
	}

	alloc := &Allocation{Reg: make([]int, n)}
	for i := range alloc.Reg {
		alloc.Reg[i] = -1
	}

	freePool := make([]int, numPhysRegs)
	for r := range freePool {
		freePool[r] = r
	}
	active := make(map[int]int) // physical reg -> vreg currently holding it

	for idx := range ir.Instrs {
		// Retire any active register whose vreg's last use was a prior
		// instruction, returning it to the free pool before this
		// instruction's definition is allocated.
		for reg, vr := range active {
			if ranges[vr].last < idx {
				delete(active, reg)
				freePool = append(freePool, reg)
			}
		}
		dst := ir.Instrs[idx].Dst
		if dst < 0 || alloc.Reg[dst] != -1 {
			continue
		}
		if len(freePool) == 0 {
			reg, err := evictEarliestDead(active, ranges, idx)
			if err != nil {
				return nil, err
			}
			freePool = append(freePool, reg)
			delete(active, reg)
		}
		reg := freePool[len(freePool)-1]
		freePool = freePool[:len(freePool)-1]
		alloc.Reg[dst] = reg
		active[reg] = dst
	}
	return alloc, nil
}

// evictEarliestDead picks the active register whose vreg's live range ends
// soonest at or before the current instruction, matching the teacher-style
// greedy heuristic ("reuse what's about to die") rather than a global
// optimum. It only succeeds if at least one active vreg is already dead by
// this point; a trace that needs more live registers than numPhysRegs at
// once aborts instead of spilling.
func evictEarliestDead(active map[int]int, ranges []liveRange, idx int) (int, error) {
	bestReg, bestLast := -1, -1
	for reg, vr := range active {
		if ranges[vr].last > idx {
			continue // still live, cannot evict
		}
		if bestReg == -1 || ranges[vr].last < bestLast {
			bestReg, bestLast = reg, ranges[vr].last
		}
	}
	if bestReg == -1 {
		return 0, abort("trace needs more live registers than the allocator has")
	}
	return bestReg, nil
}
