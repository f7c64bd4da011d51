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

import (
	"io"
	"os"

	"github.com/dolthub/swiss"
	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/jit"
	"github.com/rill-lang/rill/value"
)

const (
	defaultStackSize  = 65536
	defaultFrameDepth = 1024

	// jitPromoteThreshold is how many times a backward branch must land on
	// the same bytecode offset before that loop is handed to package jit
	// for tracing (§9 open question iii).
	jitPromoteThreshold = 1000
)

// Option configures an Instance at construction time, following the same
// functional-options shape as the teacher's vm.Option.
type Option func(*Instance) error

// StackSize sets the value stack's capacity.
func StackSize(n int) Option {
	return func(i *Instance) error { i.stack = make([]value.Value, n); return nil }
}

// FrameDepth sets the call-frame stack's maximum depth.
func FrameDepth(n int) Option {
	return func(i *Instance) error { i.frames = make([]callFrame, n); return nil }
}

// Output sets the Writer the Debug instruction trace is written to. The
// print builtin writes to the Writer given to BindCore, not to this one.
func Output(w io.Writer) Option {
	return func(i *Instance) error { i.output = w; return nil }
}

// EnableJIT turns hot-loop tracing on or off. Disabled VMs run every
// instruction through the interpreter loop regardless of how hot a branch
// gets, which is useful for deterministic debugging and for the JIT's own
// equivalence tests (§8).
func EnableJIT(enabled bool) Option {
	return func(i *Instance) error { i.jitEnabled = enabled; return nil }
}

// Debug enables a per-instruction trace written to Output, used by the
// CLI's and the REPL's -d flag.
func Debug(enabled bool) Option {
	return func(i *Instance) error { i.debug = enabled; return nil }
}

// callFrame is one activation record: the function object being executed
// (nil for the top-level script), the current instruction pointer within
// the shared Chunk, and the value-stack index this frame's locals start at
// (clox's "call frames are windows into one big stack", generalised here
// since ngaro itself has no user-level call frames — see DESIGN.md).
type callFrame struct {
	fn   *value.Object
	ip   int
	base int
}

// Instance is one running Rill program: its compiled Chunk, heap, builtin
// registry, value stack, call-frame stack and global name table.
type Instance struct {
	chunk *chunk.Chunk
	heap  *value.Heap
	reg   *builtin.Registry

	stack []value.Value
	sp    int

	frames     []callFrame
	frameCount int

	globals *swiss.Map[*value.Object, value.Value]

	output     io.Writer
	debug      bool
	jitEnabled bool

	// loopHits counts how many times a backward branch has landed on a
	// given bytecode offset, keyed by that offset; once a count crosses
	// jitPromoteThreshold the VM attempts to promote the loop (run.go).
	loopHits map[int]int32
	jitMon   *jit.Monitor

	insCount int64
}

// New returns an Instance ready to execute ch, with globals and the heap's
// GC wired in. reg supplies the host routines CALL_BUILTIN dispatches to.
func New(ch *chunk.Chunk, heap *value.Heap, reg *builtin.Registry, opts ...Option) (*Instance, error) {
	i := &Instance{
		chunk:   ch,
		heap:    heap,
		reg:     reg,
		globals: swiss.NewMap[*value.Object, value.Value](32),
		output:  os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.stack == nil {
		i.stack = make([]value.Value, defaultStackSize)
	}
	if i.frames == nil {
		i.frames = make([]callFrame, defaultFrameDepth)
	}
	i.loopHits = make(map[int]int32)
	i.jitMon = jit.NewMonitor()
	i.frames[0] = callFrame{fn: nil, ip: 0, base: 0}
	i.frameCount = 1
	return i, nil
}

// InstructionCount reports how many opcodes Run has dispatched so far.
func (i *Instance) InstructionCount() int64 { return i.insCount }

// Stack returns the live portion of the value stack, for inspection by
// embedders and tests.
func (i *Instance) Stack() []value.Value { return i.stack[:i.sp] }

// Heap exposes the Instance's heap, used by embedders binding builtins that
// need to allocate (e.g. a builtin returning a new string or array).
func (i *Instance) Heap() *value.Heap { return i.heap }

func (i *Instance) push(v value.Value) error {
	if i.sp >= len(i.stack) {
		return i.runtimeError("stack overflow")
	}
	i.stack[i.sp] = v
	i.sp++
	return nil
}

func (i *Instance) pop() value.Value {
	i.sp--
	return i.stack[i.sp]
}

func (i *Instance) peek(distance int) value.Value {
	return i.stack[i.sp-1-distance]
}
