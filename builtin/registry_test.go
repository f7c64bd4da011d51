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

import (
	"testing"

	"github.com/rill-lang/rill/value"
)

func TestNewRegistryDeclaresStandardNames(t *testing.T) {
	r := NewRegistry()
	if r.Len() == 0 {
		t.Fatal("expected the standard builtin families to be pre-declared")
	}
	if _, ok := r.Lookup("print"); !ok {
		t.Error("expected \"print\" to be declared")
	}
	if _, ok := r.Lookup("not_a_real_builtin"); ok {
		t.Error("unexpected name resolved")
	}
}

func TestDeclareStubReturnsNil(t *testing.T) {
	r := NewRegistry()
	b, ok := r.Lookup("len")
	if !ok {
		t.Fatal("expected \"len\" to be declared")
	}
	v, err := b.Fn([]value.Value{value.Int(1)})
	if err != nil {
		t.Fatalf("stub returned an error: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("stub result = %v, want nil", v)
	}
}

func TestBindOverwritesStub(t *testing.T) {
	r := NewRegistry()
	ok := r.Bind("len", func(args []value.Value) (value.Value, error) {
		return value.Int(42), nil
	})
	if !ok {
		t.Fatal("Bind(\"len\", ...) = false, want true")
	}
	b, _ := r.Lookup("len")
	v, err := b.Fn(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsInt() || v.AsInt() != 42 {
		t.Errorf("bound result = %v, want Int(42)", v)
	}
}

func TestBindUnknownNameFails(t *testing.T) {
	r := NewRegistry()
	if r.Bind("does_not_exist", func(args []value.Value) (value.Value, error) { return value.Nil, nil }) {
		t.Error("Bind on an undeclared name should fail")
	}
}

func TestAtIndexesByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	b, ok := r.Lookup("print")
	if !ok {
		t.Fatal("expected \"print\" to be declared")
	}
	if got := r.At(b.Index); got != b {
		t.Errorf("At(%d) = %v, want the \"print\" Builtin", b.Index, got)
	}
}

func TestAtOutOfRange(t *testing.T) {
	r := NewRegistry()
	if r.At(-1) != nil {
		t.Error("At(-1) should be nil")
	}
	if r.At(r.Len()) != nil {
		t.Error("At(Len()) should be nil")
	}
}

func TestDeclareIsIdempotentOnIndex(t *testing.T) {
	r := &Registry{lookup: make(map[string]*Builtin)}
	first := r.Declare("custom", 1)
	second := r.Declare("custom", 2)
	if first != second {
		t.Fatal("re-declaring an existing name should return the same Builtin")
	}
	if second.Arity != 2 {
		t.Errorf("Arity = %d, want 2", second.Arity)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no duplicate slot)", r.Len())
	}
}
