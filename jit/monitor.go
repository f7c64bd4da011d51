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

import (
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/value"
)

type traceKey struct {
	ch     *chunk.Chunk
	header int
}

// Monitor owns every trace compiled for one VM Instance: a cache keyed by
// (chunk, loop header offset) and a blacklist of headers the recorder has
// already given up on, so a loop that can't be traced is only attempted
// once rather than re-aborting on every single hot pass.
type Monitor struct {
	traces    map[traceKey]*Trace
	blacklist map[traceKey]bool
}

// NewMonitor returns an empty Monitor, one per vm.Instance.
func NewMonitor() *Monitor {
	return &Monitor{
		traces:    make(map[traceKey]*Trace),
		blacklist: make(map[traceKey]bool),
	}
}

// Lookup returns an already-compiled trace for this (chunk, header), if
// there is one.
func (m *Monitor) Lookup(ch *chunk.Chunk, header int) (*Trace, bool) {
	t, ok := m.traces[traceKey{ch, header}]
	return t, ok
}

// TryCompile records, allocates and emits a trace for the loop at header,
// using stack/base to pick concrete trace-time types. A failure (an
// unsupported opcode, a register-pressure overflow, anything) blacklists
// the header and is not an error the VM needs to surface — the loop simply
// keeps running interpreted. TryCompile is a no-op if header is already
// cached or blacklisted.
func (m *Monitor) TryCompile(ch *chunk.Chunk, header int, stack []value.Value, base int) {
	key := traceKey{ch, header}
	if m.traces[key] != nil || m.blacklist[key] {
		return
	}
	ir, err := Record(ch, header, stack, base)
	if err != nil {
		m.blacklist[key] = true
		return
	}
	alloc, err := Allocate(ir)
	if err != nil {
		m.blacklist[key] = true
		return
	}
	tr, err := Compile(ir, alloc)
	if err != nil {
		m.blacklist[key] = true
		return
	}
	m.traces[key] = tr
}
