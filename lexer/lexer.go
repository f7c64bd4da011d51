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

// Package lexer produces a lazy sequence of Rill tokens from source text.
//
// The scanner is hand-rolled rather than built on text/scanner: Rill's
// grammar needs significant NEWLINE tokens, an int32/float literal split,
// and backslash-escaped quoted strings, none of which text/scanner's
// generic Go-like tokenizer gives us directly.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/rill-lang/rill/token"
)

// Lexer scans a NUL-terminated source buffer on demand. The zero value is
// not usable; construct with New.
type Lexer struct {
	src     string
	pos     int
	line    int
	pending bool // a NEWLINE was just emitted; collapse further ones
}

// New returns a Lexer over src. src need not itself contain a NUL byte; the
// lexer treats end-of-string as the terminator.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1}
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	return c
}

func (l *Lexer) match(c byte) bool {
	if l.peek() != c {
		return false
	}
	l.pos++
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

// skipWhitespaceAndComments consumes spaces, tabs, carriage returns and
// `//` line comments. Newlines are significant and left for Next to
// tokenize (and collapse).
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch c := l.peek(); c {
		case ' ', '\t', '\r':
			l.pos++
		case '/':
			if l.peek2() == '/' {
				for !l.atEnd() && l.peek() != '\n' {
					l.pos++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

// Next returns the next token in the stream. Once EOF is returned, further
// calls keep returning EOF.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	if l.atEnd() {
		return l.make(token.EOF, "")
	}
	line := l.line
	c := l.advance()

	if c == '\n' {
		l.line++
		if l.pending {
			// consecutive newlines collapse to one
			return l.Next()
		}
		l.pending = true
		return token.Token{Kind: token.NEWLINE, Text: "\n", Line: line}
	}
	l.pending = false

	if isDigit(c) {
		return l.number(line)
	}
	if isIdentStart(c) {
		return l.identifier(line)
	}
	switch c {
	case '"':
		return l.stringLit(line, '"')
	case '\'':
		return l.stringLit(line, '\'')
	case '+':
		return l.make2(token.PLUS, line)
	case '-':
		if l.match('>') {
			return token.Token{Kind: token.ARROW, Text: "->", Line: line}
		}
		return l.make2(token.MINUS, line)
	case '*':
		return l.make2(token.STAR, line)
	case '/':
		return l.make2(token.SLASH, line)
	case '%':
		return l.make2(token.PERCENT, line)
	case '=':
		if l.match('=') {
			return token.Token{Kind: token.EQ_EQ, Text: "==", Line: line}
		}
		return l.make2(token.EQ, line)
	case '!':
		if l.match('=') {
			return token.Token{Kind: token.BANG_EQ, Text: "!=", Line: line}
		}
		return token.Token{Kind: token.ERROR, Text: "unexpected character '!'", Line: line}
	case '<':
		if l.match('=') {
			return token.Token{Kind: token.LESS_EQ, Text: "<=", Line: line}
		}
		if l.match('<') {
			return token.Token{Kind: token.SHL, Text: "<<", Line: line}
		}
		return l.make2(token.LESS, line)
	case '>':
		if l.match('=') {
			return token.Token{Kind: token.GREATER_EQ, Text: ">=", Line: line}
		}
		if l.match('>') {
			return token.Token{Kind: token.SHR, Text: ">>", Line: line}
		}
		return l.make2(token.GREATER, line)
	case '.':
		if l.match('.') {
			return token.Token{Kind: token.DOT_DOT, Text: "..", Line: line}
		}
		return l.make2(token.DOT, line)
	case '&':
		return l.make2(token.AMP, line)
	case '|':
		return l.make2(token.PIPE, line)
	case '^':
		return l.make2(token.CARET, line)
	case '(':
		return l.make2(token.LPAREN, line)
	case ')':
		return l.make2(token.RPAREN, line)
	case '[':
		return l.make2(token.LBRACKET, line)
	case ']':
		return l.make2(token.RBRACKET, line)
	case ',':
		return l.make2(token.COMMA, line)
	case ':':
		return l.make2(token.COLON, line)
	}
	return token.Token{Kind: token.ERROR, Text: "unexpected character " + string(c), Line: line}
}

func (l *Lexer) make(k token.Kind, text string) token.Token {
	return token.Token{Kind: k, Text: text, Line: l.line}
}

func (l *Lexer) make2(k token.Kind, line int) token.Token {
	return token.Token{Kind: k, Text: k.String(), Line: line}
}

func (l *Lexer) number(line int) token.Token {
	start := l.pos - 1
	for isDigit(l.peek()) {
		l.pos++
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peek2()) {
		isFloat = true
		l.pos++
		for isDigit(l.peek()) {
			l.pos++
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		l.pos++
		if l.peek() == '+' || l.peek() == '-' {
			l.pos++
		}
		if isDigit(l.peek()) {
			isFloat = true
			for isDigit(l.peek()) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	text := l.src[start:l.pos]
	if isFloat {
		return token.Token{Kind: token.FLOAT, Text: text, Line: line}
	}
	// integers that don't fit int32 are promoted to FLOAT per §4.1
	if !fitsInt32(text) {
		return token.Token{Kind: token.FLOAT, Text: text, Line: line}
	}
	return token.Token{Kind: token.INT, Text: text, Line: line}
}

func fitsInt32(digits string) bool {
	const maxInt32Digits = "2147483647"
	if len(digits) < len(maxInt32Digits) {
		return true
	}
	if len(digits) > len(maxInt32Digits) {
		return false
	}
	return digits <= maxInt32Digits
}

func (l *Lexer) identifier(line int) token.Token {
	start := l.pos - 1
	for !l.atEnd() && isIdentCont(l.peek()) {
		l.pos++
	}
	text := l.src[start:l.pos]
	return token.Token{Kind: token.Lookup(text), Text: text, Line: line}
}

// stringLit scans a string literal delimited by quote, honoring the
// backslash escapes \n \t \r \\ \" \' \0.
func (l *Lexer) stringLit(line int, quote byte) token.Token {
	var b strings.Builder
	for {
		if l.atEnd() {
			return token.Token{Kind: token.ERROR, Text: "unterminated string literal", Line: line}
		}
		c := l.advance()
		if c == quote {
			return token.Token{Kind: token.STRING, Text: b.String(), Line: line}
		}
		if c == '\n' {
			return token.Token{Kind: token.ERROR, Text: "newline in string literal", Line: line}
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if l.atEnd() {
			return token.Token{Kind: token.ERROR, Text: "unterminated escape sequence", Line: line}
		}
		e := l.advance()
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '0':
			b.WriteByte(0)
		default:
			return token.Token{Kind: token.ERROR, Text: "unknown escape sequence \\" + string(e), Line: line}
		}
	}
}
