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

import "unsafe"

// callTrace invokes the compiled native code at fn with base passed in RDI
// per the SysV AMD64 ABI's first-argument register, and returns whatever
// the trace left in RAX (a bytecode pc to resume at). Implemented in
// call_amd64.s: Go can't express "call an arbitrary computed function
// pointer with a C calling convention" without either cgo (which this
// module otherwise has no need for) or a hand-written assembly trampoline,
// so this is the trampoline.
//
//go:noescape
func callTrace(fn uintptr, base unsafe.Pointer) int64
