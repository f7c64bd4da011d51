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

// tryJIT implements the interpreter's hot-loop hook (§4.4): every backward
// branch (LOOP) that lands on header bumps that bytecode offset's hit
// counter; once the counter crosses jitPromoteThreshold the VM hands the
// loop to package jit for tracing and, from then on, re-enters the
// resulting native code directly instead of walking the bytecode switch.
//
// tryJIT reports done=true whenever it ran native code for this LOOP
// (having already advanced frame.ip to the bytecode pc the trace exited
// at), and done=false when the opcode dispatch loop should fall back to a
// plain interpreted jump — either because the loop isn't hot yet, or
// because the recorder/allocator/emitter gave up and blacklisted header
// (a JIT-internal failure, §7: invisible to the user, the loop just stays
// interpreted forever).
func (i *Instance) tryJIT(header int, frame *callFrame) (done bool, retv value.Value, err error) {
	if tr, ok := i.jitMon.Lookup(i.chunk, header); ok {
		frame.ip = tr.Enter(i.stack, frame.base)
		return true, value.Nil, nil
	}
	i.loopHits[header]++
	if i.loopHits[header] < jitPromoteThreshold {
		return false, value.Nil, nil
	}
	i.jitMon.TryCompile(i.chunk, header, i.stack, frame.base)
	tr, ok := i.jitMon.Lookup(i.chunk, header)
	if !ok {
		// Recording, allocation or codegen aborted; header is now
		// blacklisted and every future hit takes this same branch cheaply
		// (Monitor.TryCompile no-ops on an already-blacklisted key).
		return false, value.Nil, nil
	}
	frame.ip = tr.Enter(i.stack, frame.base)
	return true, value.Nil, nil
}
