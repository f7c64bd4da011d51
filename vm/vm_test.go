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
	"bytes"
	"testing"

	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/compiler"
	"github.com/rill-lang/rill/value"
)

// runProgram compiles and runs src against a fresh Instance whose stdout is
// captured, returning the final expression's value and everything it
// printed.
func runProgram(t *testing.T, src string) (value.Value, string) {
	t.Helper()
	heap := value.NewHeap(0)
	reg := builtin.NewRegistry()
	var out bytes.Buffer
	BindCore(reg, heap, &out)

	ch, err := compiler.Compile(src, heap, reg)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	inst, err := New(ch, heap, reg, Output(&out))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := inst.Run(ch)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return v, out.String()
}

func TestRunArithmeticPrint(t *testing.T) {
	_, out := runProgram(t, "let x = 10\nlet y = 20\nprint(x + y)\n")
	if out != "30\n" {
		t.Errorf("output = %q, want %q", out, "30\n")
	}
}

func TestRunIntOverflowPromotesToFloat(t *testing.T) {
	_, out := runProgram(t, "print(2147483647 + 1)\n")
	if out != "2147483648\n" {
		t.Errorf("output = %q, want %q", out, "2147483648\n")
	}
}

func TestRunWhileLoop(t *testing.T) {
	_, out := runProgram(t, "let i = 0\nlet total = 0\nwhile i < 5 do\n  total = total + i\n  i = i + 1\nend\nprint(total)\n")
	if out != "10\n" {
		t.Errorf("output = %q, want %q", out, "10\n")
	}
}

func TestRunForRangeLoop(t *testing.T) {
	_, out := runProgram(t, "let total = 0\nfor i in 0..5 do\n  total = total + i\nend\nprint(total)\n")
	if out != "10\n" {
		t.Errorf("output = %q, want %q", out, "10\n")
	}
}

func TestRunFunctionCallAndRecursion(t *testing.T) {
	src := `fn fib(n)
  if n < 2 then
    return n
  end
  return fib(n - 1) + fib(n - 2)
end
print(fib(10))
`
	_, out := runProgram(t, src)
	if out != "55\n" {
		t.Errorf("output = %q, want %q", out, "55\n")
	}
}

func TestRunArraysAndIndexing(t *testing.T) {
	_, out := runProgram(t, "let a = [1, 2, 3]\nprint(a[1])\n")
	if out != "2\n" {
		t.Errorf("output = %q, want %q", out, "2\n")
	}
}

func TestRunStringConcatenation(t *testing.T) {
	_, out := runProgram(t, `print("a" + "b")` + "\n")
	if out != "ab\n" {
		t.Errorf("output = %q, want %q", out, "ab\n")
	}
}

func TestRunUndefinedGlobalIsRuntimeError(t *testing.T) {
	heap := value.NewHeap(0)
	reg := builtin.NewRegistry()
	var out bytes.Buffer
	BindCore(reg, heap, &out)
	ch, err := compiler.Compile("print(missing)\n", heap, reg)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	inst, err := New(ch, heap, reg, Output(&out))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Run(ch); err == nil {
		t.Fatal("expected a runtime error referencing the undefined global")
	}
}

func TestRunMatchStatement(t *testing.T) {
	src := `let x = 2
match x
case 1 then
  print("one")
case 2 then
  print("two")
else
  print("other")
end
`
	_, out := runProgram(t, src)
	if out != "two\n" {
		t.Errorf("output = %q, want %q", out, "two\n")
	}
}

func TestRunIsReentrantAcrossStatements(t *testing.T) {
	heap := value.NewHeap(0)
	reg := builtin.NewRegistry()
	var out bytes.Buffer
	BindCore(reg, heap, &out)

	ch1 := chunkFor(t, "let x = 1\n", heap, reg)
	inst, err := New(ch1, heap, reg, Output(&out))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Run(ch1); err != nil {
		t.Fatalf("first statement: %v", err)
	}
	ch2 := chunkFor(t, "print(x + 1)\n", heap, reg)
	if _, err := inst.Run(ch2); err != nil {
		t.Fatalf("second statement: %v", err)
	}
	if out.String() != "2\n" {
		t.Errorf("output = %q, want %q (globals should persist across Run calls)", out.String(), "2\n")
	}
}

func chunkFor(t *testing.T, src string, heap *value.Heap, reg *builtin.Registry) *chunk.Chunk {
	t.Helper()
	ch, err := compiler.Compile(src, heap, reg)
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	return ch
}
