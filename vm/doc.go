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

// Package vm implements Rill's bytecode interpreter (§4.4): a stack machine
// over a single Chunk, fixed-size value and call-frame stacks, a global
// name table, and the mark-sweep heap's collection trigger.
//
// The instruction pointer lives in the current call frame: Run reads and
// advances frame.ip in place as it decodes each opcode and its operands,
// jumps overwrite it, and CALL and RETURN switch which frame Run reads it
// from.
//
// A hot backward branch (a LOOP landing on the same bytecode offset)
// increments a per-offset counter; once it crosses the
// JIT's promotion threshold the VM hands the loop to package jit for
// tracing, and subsequent iterations on that offset may execute the
// resulting native trace instead of walking the switch, falling back to
// the interpreter on any guard failure (deoptimization).
package vm
