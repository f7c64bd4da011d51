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
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/rill-lang/rill/value"
)

// Trace is one compiled native loop, ready to be re-entered by Instance.Run
// every time its header offset is reached with a hot loopHits count.
type Trace struct {
	mem    mmap.MMap
	header int
}

// newTrace maps code into W^X memory (write during the mmap call, then
// mprotected to read+exec before anything ever runs it, per §4.5's
// "compiled code lives in its own executable pages, never writable and
// executable at the same time").
func newTrace(code []byte, header int) (*Trace, error) {
	if len(code) == 0 {
		return nil, errors.New("jit: empty trace body")
	}
	m, err := mmap.MapRegion(nil, len(code), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrap(err, "jit: mmap trace")
	}
	copy(m, code)
	if err := m.Flush(); err != nil {
		return nil, errors.Wrap(err, "jit: flush trace")
	}
	if err := unix.Mprotect(m, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return nil, errors.Wrap(err, "jit: mprotect trace executable")
	}
	return &Trace{mem: m, header: header}, nil
}

// Close releases the trace's executable pages. Nothing in the package
// calls it: a Monitor keeps every trace it compiled for its own lifetime.
func (t *Trace) Close() error {
	return t.mem.Unmap()
}

// Enter runs the compiled loop in place, operating directly on the
// interpreter's value stack starting at stack[base] (so every LoadLocal
// and StoreLocal the trace emits addresses real interpreter memory — no
// copy in, copy out). It returns the bytecode pc the interpreter should
// resume dispatching from once the trace exits through a guard or an
// int32-overflow deopt.
func (t *Trace) Enter(stack []value.Value, base int) int {
	fn := uintptr(unsafe.Pointer(&t.mem[0]))
	ptr := unsafe.Pointer(&stack[base])
	return int(callTrace(fn, ptr))
}
