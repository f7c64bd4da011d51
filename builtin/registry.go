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

// Package builtin is the external-collaborator boundary named in spec §1
// and §4.4: the compiler recognises a builtin by name and emits its
// dedicated opcode; the VM dispatches that opcode to a host routine at run
// time. This package owns the name<->opcode table and the Func signature;
// it does not implement any of the ~150 host routines' internal logic
// (filesystem, HTTP, JSON, base64, hashing, tensor/matrix math, …), which
// is explicitly out of scope for the execution core.
package builtin

import "github.com/rill-lang/rill/value"

// Func is a host routine's signature. args is the slice of argument Values
// already popped off the VM's stack in call order; a Func may return
// value.Nil for a "void" built-in (§4.4: "pushes its result (nil if
// void)").
type Func func(args []value.Value) (value.Value, error)

// Builtin describes one registered name: its fixed arity (the compiler
// checks the call has exactly this many arguments) and its host routine.
type Builtin struct {
	Name  string
	Arity int
	Index int // position in the registry; CALL_BUILTIN's 16-bit operand
	Fn    Func
}

// Registry is the shared name->Builtin / index->Builtin table consulted by
// both the compiler (to recognise a call-position identifier as a builtin)
// and the VM (to dispatch OpCallBuiltin by its 16-bit registry index).
// Grounded on the teacher's
// asm/parser.go opcodeIndex map, generalised from a package-level map
// built once in init to an instance type so the compiler and VM can share
// exactly one table per program.
type Registry struct {
	byName []*Builtin
	lookup map[string]*Builtin
}

// NewRegistry returns a Registry pre-populated with the standard builtin
// families' names and arities (Declare), each defaulting to a stub host
// routine that returns nil — see doc comment on Declare.
func NewRegistry() *Registry {
	r := &Registry{lookup: make(map[string]*Builtin)}
	for _, d := range standardDeclarations {
		r.Declare(d.name, d.arity)
	}
	return r
}

// Declare registers name with the given fixed arity and a no-op stub
// implementation, returning the Builtin so callers (typically an embedder
// wiring in real filesystem/HTTP/JSON/etc. routines) can overwrite Fn.
// Re-declaring an existing name updates its arity in place rather than
// allocating a second opcode slot.
func (r *Registry) Declare(name string, arity int) *Builtin {
	if b, ok := r.lookup[name]; ok {
		b.Arity = arity
		return b
	}
	b := &Builtin{
		Name:  name,
		Arity: arity,
		Index: len(r.byName),
		Fn:    func(args []value.Value) (value.Value, error) { return value.Nil, nil },
	}
	r.byName = append(r.byName, b)
	r.lookup[name] = b
	return b
}

// Bind overwrites the host routine for an already-declared builtin. Used
// by an embedder to supply the real filesystem/HTTP/JSON/… logic that this
// package deliberately does not implement.
func (r *Registry) Bind(name string, fn Func) bool {
	b, ok := r.lookup[name]
	if !ok {
		return false
	}
	b.Fn = fn
	return true
}

// Lookup returns the Builtin registered under name, if any.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.lookup[name]
	return b, ok
}

// At returns the Builtin at registry index idx, used by the VM to dispatch
// CALL_BUILTIN's operand.
func (r *Registry) At(idx int) *Builtin {
	if idx < 0 || idx >= len(r.byName) {
		return nil
	}
	return r.byName[idx]
}

// Len reports how many builtins are registered.
func (r *Registry) Len() int { return len(r.byName) }
