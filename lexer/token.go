package lexer

import (
	"strings"
)

// Token is a span of a line with its scopes, outermost first.
// Offsets are byte offsets relative to the line passed to Session.ScanLine
// (or relative to the whole source for Session.ScanSource and Tokenize).
type Token struct {
	Start, End int
	Scopes     []string
}

func (t Token) Len() int {
	return t.End - t.Start
}

// Text returns token text, line must be the one the token was produced from.
func (t Token) Text(line string) string {
	return line[t.Start:t.End]
}

// Scope returns space-separated scope names.
func (t Token) Scope() string {
	return strings.Join(t.Scopes, " ")
}

func (t Token) shift(delta int) Token {
	t.Start += delta
	t.End += delta
	return t
}

func appendToken(tokens []Token, start, end int, scopes []string) []Token {
	if end <= start {
		return tokens
	}

	return append(tokens, Token{start, end, scopes})
}
