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

// Package jit's own tests live in this file, in the external package
// jit_test,
// since the only externally observable behaviour a trace needs to honour is
// "running a hot loop through the JIT gives the same result as running it
// purely interpreted" (§8's JIT/interpreter equivalence requirement) - and
// exercising that means compiling and running whole programs, which needs
// package compiler and package vm.
package jit_test

import (
	"bytes"
	"testing"

	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/compiler"
	"github.com/rill-lang/rill/value"
	"github.com/rill-lang/rill/vm"
)

// runWithJIT compiles and runs src, optionally with the tracing JIT enabled,
// and returns everything it printed.
func runWithJIT(t *testing.T, src string, jitEnabled bool) string {
	t.Helper()
	heap := value.NewHeap(0)
	reg := builtin.NewRegistry()
	var out bytes.Buffer
	vm.BindCore(reg, heap, &out)

	ch, err := compiler.Compile(src, heap, reg)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	inst, err := vm.New(ch, heap, reg, vm.Output(&out), vm.EnableJIT(jitEnabled))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := inst.Run(ch); err != nil {
		t.Fatalf("runtime error (jitEnabled=%v): %v", jitEnabled, err)
	}
	return out.String()
}

// TestHotForRangeLoopMatchesInterpreted drives a range for-loop well past
// the hot-loop promotion threshold, so the iterations after the first 1000
// (about two thirds of them) run through a compiled trace, and checks the result against the same program
// with the JIT disabled.
// The loop variables live inside a function so they compile to GET_LOCAL/
// SET_LOCAL rather than the global-table opcodes: the recorder only
// supports the local-variable opcodes (§4.5), so a loop over globals simply
// blacklists itself and always falls back to the interpreter, which
// wouldn't exercise compiled code at all.
func TestHotForRangeLoopMatchesInterpreted(t *testing.T) {
	const src = `fn sumTo(n)
  let total = 0
  for i in 0..n do
    total = total + i
  end
  return total
end
print(sumTo(3000))
`
	interpreted := runWithJIT(t, src, false)
	jitted := runWithJIT(t, src, true)
	if interpreted != jitted {
		t.Fatalf("JIT result %q does not match interpreted result %q", jitted, interpreted)
	}
	if interpreted != "4498500\n" {
		t.Fatalf("interpreted result = %q, want %q", interpreted, "4498500\n")
	}
}

// TestHotWhileLoopMatchesInterpreted exercises a while-loop form of the same
// hot-loop path (OpLtJumpFalse/OpLoop rather than OpForCount/OpLoop).
func TestHotWhileLoopMatchesInterpreted(t *testing.T) {
	const src = `fn sumTo(n)
  let i = 0
  let total = 0
  while i < n do
    total = total + i
    i = i + 1
  end
  return total
end
print(sumTo(3000))
`
	interpreted := runWithJIT(t, src, false)
	jitted := runWithJIT(t, src, true)
	if interpreted != jitted {
		t.Fatalf("JIT result %q does not match interpreted result %q", jitted, interpreted)
	}
}
