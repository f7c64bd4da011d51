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

package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"let": LET, "const": CONST, "fn": FN, "if": IF, "elif": ELIF,
		"else": ELSE, "end": END, "while": WHILE, "for": FOR, "in": IN,
		"do": DO, "then": THEN, "match": MATCH, "case": CASE,
		"return": RETURN, "nil": NIL, "true": TRUE, "false": FALSE,
		"and": AND, "or": OR, "not": NOT, "import": IMPORT,
	}
	if len(cases) != 22 {
		t.Fatalf("expected 22 keywords in test table, got %d", len(cases))
	}
	for word, want := range cases {
		if got := Lookup(word); got != want {
			t.Errorf("Lookup(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestLookupNonKeywordIsIdent(t *testing.T) {
	for _, word := range []string{"x", "result", "letter", "ending", ""} {
		if got := Lookup(word); got != IDENT {
			t.Errorf("Lookup(%q) = %v, want IDENT", word, got)
		}
	}
}

func TestKindString(t *testing.T) {
	if s := PLUS.String(); s != "+" {
		t.Errorf("PLUS.String() = %q, want %q", s, "+")
	}
	if s := ARROW.String(); s != "->" {
		t.Errorf("ARROW.String() = %q, want %q", s, "->")
	}
	if s := Kind(255).String(); s != "unknown" {
		t.Errorf("Kind(255).String() = %q, want %q", s, "unknown")
	}
}
