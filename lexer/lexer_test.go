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

package lexer

import (
	"testing"

	"github.com/rill-lang/rill/token"
)

func tokenKinds(src string) []token.Kind {
	l := New(src)
	var kinds []token.Kind
	for {
		tok := l.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestNextSimpleExpression(t *testing.T) {
	got := tokenKinds("let x = 1 + 2")
	want := []token.Kind{token.LET, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNextCollapsesConsecutiveNewlines(t *testing.T) {
	got := tokenKinds("let x = 1\n\n\nlet y = 2")
	want := []token.Kind{
		token.LET, token.IDENT, token.EQ, token.INT, token.NEWLINE,
		token.LET, token.IDENT, token.EQ, token.INT, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNextSkipsLineComments(t *testing.T) {
	got := tokenKinds("1 // comment\n2")
	want := []token.Kind{token.INT, token.NEWLINE, token.INT, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextIntVsFloatSplit(t *testing.T) {
	l := New("42 3.14 2147483647 2147483648")
	if tok := l.Next(); tok.Kind != token.INT || tok.Text != "42" {
		t.Errorf("first literal: got %v %q", tok.Kind, tok.Text)
	}
	if tok := l.Next(); tok.Kind != token.FLOAT || tok.Text != "3.14" {
		t.Errorf("second literal: got %v %q", tok.Kind, tok.Text)
	}
	if tok := l.Next(); tok.Kind != token.INT || tok.Text != "2147483647" {
		t.Errorf("max int32 literal: got %v %q", tok.Kind, tok.Text)
	}
	// overflows int32, so it's promoted to FLOAT per the int/float split rule.
	if tok := l.Next(); tok.Kind != token.FLOAT || tok.Text != "2147483648" {
		t.Errorf("overflowing literal: got %v %q", tok.Kind, tok.Text)
	}
}

func TestNextStringEscapes(t *testing.T) {
	l := New(`"a\nb\t\"c\""`)
	tok := l.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("got kind %v, want STRING", tok.Kind)
	}
	want := "a\nb\t\"c\""
	if tok.Text != want {
		t.Errorf("got %q, want %q", tok.Text, want)
	}
}

func TestNextUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	tok := l.Next()
	if tok.Kind != token.ERROR {
		t.Fatalf("got kind %v, want ERROR", tok.Kind)
	}
}

func TestNextArrowAndRange(t *testing.T) {
	got := tokenKinds("-> ..")
	want := []token.Kind{token.ARROW, token.DOT_DOT, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNextKeepsReturningEOF(t *testing.T) {
	l := New("")
	for i := 0; i < 3; i++ {
		if tok := l.Next(); tok.Kind != token.EOF {
			t.Fatalf("call %d: got %v, want EOF", i, tok.Kind)
		}
	}
}
