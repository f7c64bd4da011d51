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

// Package token defines the lexical tokens of the Rill language.
package token

// Kind identifies the lexical class of a Token.
type Kind uint8

const (
	ERROR Kind = iota
	EOF
	NEWLINE

	IDENT
	INT
	FLOAT
	STRING

	// operators and punctuation
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ_EQ
	BANG_EQ
	LESS
	GREATER
	LESS_EQ
	GREATER_EQ
	EQ
	ARROW
	DOT_DOT
	AMP
	PIPE
	CARET
	SHL
	SHR
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COMMA
	COLON
	DOT

	// keywords
	LET
	CONST
	FN
	IF
	ELIF
	ELSE
	END
	WHILE
	FOR
	IN
	DO
	THEN
	MATCH
	CASE
	RETURN
	NIL
	TRUE
	FALSE
	AND
	OR
	NOT
	IMPORT
)

var keywords = map[string]Kind{
	"let":    LET,
	"const":  CONST,
	"fn":     FN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"end":    END,
	"while":  WHILE,
	"for":    FOR,
	"in":     IN,
	"do":     DO,
	"then":   THEN,
	"match":  MATCH,
	"case":   CASE,
	"return": RETURN,
	"nil":    NIL,
	"true":   TRUE,
	"false":  FALSE,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"import": IMPORT,
}

// Lookup reports the keyword Kind for ident, or IDENT if ident is not one of
// the 22 reserved words.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

var names = map[Kind]string{
	ERROR: "error", EOF: "eof", NEWLINE: "newline",
	IDENT: "ident", INT: "int", FLOAT: "float", STRING: "string",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQ_EQ: "==", BANG_EQ: "!=", LESS: "<", GREATER: ">",
	LESS_EQ: "<=", GREATER_EQ: ">=", EQ: "=", ARROW: "->", DOT_DOT: "..",
	AMP: "&", PIPE: "|", CARET: "^", SHL: "<<", SHR: ">>",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	COMMA: ",", COLON: ":", DOT: ".",
	LET: "let", CONST: "const", FN: "fn", IF: "if", ELIF: "elif", ELSE: "else",
	END: "end", WHILE: "while", FOR: "for", IN: "in", DO: "do", THEN: "then",
	MATCH: "match", CASE: "case", RETURN: "return", NIL: "nil", TRUE: "true",
	FALSE: "false", AND: "and", OR: "or", NOT: "not", IMPORT: "import",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Token is a single lexical token: its kind, source span, line, and for
// ERROR tokens a human-readable message (reused as the literal text slot).
type Token struct {
	Kind Kind
	Text string
	Line int
}
