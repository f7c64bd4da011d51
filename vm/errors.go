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

import "github.com/pkg/errors"

// RuntimeError is returned by Run for any failure detected while executing
// bytecode (type mismatch, division by zero, out-of-range index, undefined
// global, calling a non-function, stack overflow, …), per §7. It carries
// the source line the failing instruction was compiled from so cmd/rill can
// report `line N: message` the same way the compiler does for syntax
// errors.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return errors.Errorf("line %d: %s", e.Line, e.Msg).Error()
}

// runtimeError builds a RuntimeError tagged with the source line recorded
// for the current frame's ip. Run returns it as is; there is no panic or
// recover on this path.
func (i *Instance) runtimeError(msg string) error {
	line := 0
	if i.frameCount > 0 {
		line = i.chunk.LineAt(i.frames[i.frameCount-1].ip)
	}
	return &RuntimeError{Line: line, Msg: msg}
}

func (i *Instance) runtimeErrorf(format string, args ...interface{}) error {
	return i.runtimeError(errors.Errorf(format, args...).Error())
}
