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

package value

import "unsafe"

// ptrOf and objectFromPtr isolate the unsafe.Pointer<->uintptr roundtrip the
// NaN-box needs to fold a heap pointer into 48 bits. The heap itself (see
// heap.go) keeps every live Object reachable from GC roots, so the uintptr
// never outlives its referent between boxing and unboxing within a single
// collection epoch, which is all NaN-boxing ever requires.
func ptrOf(o *Object) unsafe.Pointer { return unsafe.Pointer(o) }

func objectFromPtr(p uintptr) *Object { return (*Object)(unsafe.Pointer(p)) }
