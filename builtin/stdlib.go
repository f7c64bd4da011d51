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

package builtin

// standardDeclarations names the builtin families spec §1 calls out
// (filesystem, HTTP, JSON, base64, hashing, tensor/matrix math, …) plus the
// small set of core library words the end-to-end scenarios in spec §8
// exercise directly (print, len). Declaring a name here only reserves it
// an opcode and an arity the compiler can check; the routine behind it is
// a no-op stub until an embedder calls Registry.Bind, per this package's
// doc comment.
var standardDeclarations = []struct {
	name  string
	arity int
}{
	// core, exercised by the end-to-end scenarios
	{"print", 1},
	{"len", 1},
	{"type", 1},
	{"str", 1},
	{"int", 1},
	{"float", 1},

	// filesystem
	{"read_file", 1},
	{"write_file", 2},
	{"file_exists", 1},
	{"remove_file", 1},
	{"list_dir", 1},

	// http
	{"http_get", 1},
	{"http_post", 2},

	// json
	{"json_encode", 1},
	{"json_decode", 1},

	// base64
	{"base64_encode", 1},
	{"base64_decode", 1},

	// hashing
	{"md5", 1},
	{"sha1", 1},
	{"sha256", 1},

	// tensor / matrix math
	{"mat_new", 2},
	{"mat_mul", 2},
	{"mat_transpose", 1},
	{"vec_dot", 2},
}
