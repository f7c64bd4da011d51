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

package chunk

import (
	"testing"

	"github.com/rill-lang/rill/value"
)

func TestWriteRecordsLines(t *testing.T) {
	c := New()
	off := c.Write(byte(OpNop), 3)
	if off != 0 {
		t.Fatalf("first Write offset = %d, want 0", off)
	}
	if c.LineAt(0) != 3 {
		t.Errorf("LineAt(0) = %d, want 3", c.LineAt(0))
	}
}

func TestWrite16IsBigEndian(t *testing.T) {
	c := New()
	c.Write16(0x1234, 1)
	if c.Code[0] != 0x12 || c.Code[1] != 0x34 {
		t.Errorf("Code = %x, want [12 34]", c.Code)
	}
}

func TestAddConstant(t *testing.T) {
	c := New()
	i1, err := c.AddConstant(value.Int(1))
	if err != nil {
		t.Fatal(err)
	}
	i2, err := c.AddConstant(value.Int(2))
	if err != nil {
		t.Fatal(err)
	}
	if i1 != 0 || i2 != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", i1, i2)
	}
	if len(c.Constants) != 2 {
		t.Errorf("len(Constants) = %d, want 2", len(c.Constants))
	}
}

func TestPatchJumpWritesCurrentLength(t *testing.T) {
	c := New()
	c.Write(byte(OpJmpFalse), 1)
	placeholder := c.Write16(0xffff, 1)
	c.Write(byte(OpNop), 2)
	if err := c.PatchJump(placeholder); err != nil {
		t.Fatal(err)
	}
	if got := c.ReadJump(placeholder); got != len(c.Code) {
		t.Errorf("ReadJump() = %d, want %d", got, len(c.Code))
	}
}

func TestPatchJumpToExplicitTarget(t *testing.T) {
	c := New()
	loopTop := c.Write(byte(OpNop), 1)
	c.Write(byte(OpLoop), 2)
	placeholder := c.Write16(0xffff, 2)
	if err := c.PatchJumpTo(placeholder, loopTop); err != nil {
		t.Fatal(err)
	}
	if got := c.ReadJump(placeholder); got != loopTop {
		t.Errorf("ReadJump() = %d, want %d", got, loopTop)
	}
}

func TestLineAtClampsPastEnd(t *testing.T) {
	c := New()
	c.Write(byte(OpNop), 7)
	if got := c.LineAt(100); got != 7 {
		t.Errorf("LineAt(100) = %d, want 7", got)
	}
}

func TestLineAtEmptyChunk(t *testing.T) {
	c := New()
	if got := c.LineAt(0); got != 0 {
		t.Errorf("LineAt(0) on empty chunk = %d, want 0", got)
	}
}

func TestComparisonFuse(t *testing.T) {
	cases := []struct {
		in   OpCode
		want OpCode
		ok   bool
	}{
		{OpLt, OpLtJumpFalse, true},
		{OpGt, OpGtJumpFalse, true},
		{OpLte, OpLteJumpFalse, true},
		{OpGte, OpGteJumpFalse, true},
		{OpEq, OpEqJumpFalse, true},
		{OpAdd, 0, false},
	}
	for _, c := range cases {
		got, ok := ComparisonFuse(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ComparisonFuse(%v) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestOpCodeNameKnownAndUnknown(t *testing.T) {
	if OpAdd.Name() != "add" {
		t.Errorf("OpAdd.Name() = %q, want %q", OpAdd.Name(), "add")
	}
	if OpCallBuiltin.Name() != "call_builtin" {
		t.Errorf("OpCallBuiltin.Name() = %q, want %q", OpCallBuiltin.Name(), "call_builtin")
	}
	if got := OpCode(250).Name(); got != "builtin" {
		t.Errorf("out-of-range OpCode.Name() = %q, want %q", got, "builtin")
	}
}
