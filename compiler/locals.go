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

package compiler

import "github.com/rill-lang/rill/chunk"

func (c *Compiler) beginScope() { c.fr.scopeDepth++ }

// endScope pops every local declared inside the scope being left, emitting
// POPN once rather than one POP per local (§4.4 aggregates POPN <n>, and
// keeps "leaving a scope pops exactly the locals declared inside it",
// §8 Scope correctness).
func (c *Compiler) endScope() {
	c.fr.scopeDepth--
	n := 0
	for c.fr.localCount > 0 && c.fr.locals[c.fr.localCount-1].depth > c.fr.scopeDepth {
		c.fr.localCount--
		n++
	}
	if n == 1 {
		c.emitByte(byte(chunk.OpPop))
	} else if n > 1 {
		c.emitByte(byte(chunk.OpPopN))
		c.emitByte(byte(n))
	}
}

// declareVariable reserves a local slot for name at the current scope
// depth (a no-op at global scope, where assignment to an undeclared
// identifier simply creates a global entry, §4.2).
func (c *Compiler) declareVariable(name string, isConst bool) {
	if c.fr.scopeDepth == 0 {
		return
	}
	for i := c.fr.localCount - 1; i >= 0; i-- {
		l := &c.fr.locals[i]
		if l.depth != -1 && l.depth < c.fr.scopeDepth {
			break
		}
		if l.name == name {
			c.error("variable '" + name + "' already declared in this scope")
			return
		}
	}
	c.addLocal(name, isConst)
}

func (c *Compiler) addLocal(name string, isConst bool) {
	if c.fr.localCount >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.fr.locals[c.fr.localCount] = local{name: name, depth: c.fr.scopeDepth, initialized: false, isConst: isConst}
	c.fr.localCount++
	if c.fr.localCount > c.fr.maxLocalCount {
		c.fr.maxLocalCount = c.fr.localCount
	}
}

// markInitialized flags the most recently declared local as usable; reads
// before this point are rejected (§4.2: "can't read local variable in its
// own initializer").
func (c *Compiler) markInitialized() {
	if c.fr.scopeDepth == 0 {
		return
	}
	c.fr.locals[c.fr.localCount-1].initialized = true
}

// resolveLocal walks the current frame's locals from newest to oldest,
// returning the matching slot or -1 if name is not a local here.
func (c *Compiler) resolveLocal(fr *frame, name string) int {
	for i := fr.localCount - 1; i >= 0; i-- {
		l := &fr.locals[i]
		if l.name == name {
			if !l.initialized {
				c.error("can't read local variable in its own initializer")
				return -1
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) localIsConst(fr *frame, slot int) bool {
	return fr.locals[slot].isConst
}
