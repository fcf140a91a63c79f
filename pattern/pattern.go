// Package pattern defines regular expression matcher used by grammar rules.
package pattern

import (
	"regexp"
	"unicode/utf8"

	"github.com/ava12/hilex"
)

// Error codes used by pattern:
const (
	// InvalidPatternError indicates that regular expression cannot be compiled.
	InvalidPatternError = hilex.PatternErrors + iota
)

// Pattern is a compiled regular expression able to search a line starting from any offset.
// Unlike slicing the line, searching from an offset keeps anchors (^, \b, \B) aware of preceding text.
// Pattern is immutable and safe for concurrent use.
type Pattern struct {
	expr string
	re   *regexp.Regexp

	// after matches one rune followed by the pattern in group 1,
	// it is applied starting at the rune preceding the offset.
	after  *regexp.Regexp
	groups int
}

// Match describes a successful match. Offsets are relative to the searched text.
type Match struct {
	Start, End int
	groups     []int
}

func invalidPatternError(expr string, e error) *hilex.Error {
	return hilex.FormatError(InvalidPatternError, "invalid pattern %q (%s)", expr, e.Error())
}

// Compile compiles RE2 regular expression.
// Returns nil and *hilex.Error with InvalidPatternError code on failure.
func Compile(expr string) (*Pattern, error) {
	re, e := regexp.Compile(expr)
	if e != nil {
		return nil, invalidPatternError(expr, e)
	}

	after, e := regexp.Compile(`(?s:.)(` + expr + `)`)
	if e != nil {
		return nil, invalidPatternError(expr, e)
	}

	return &Pattern{expr: expr, re: re, after: after, groups: re.NumSubexp()}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Pattern {
	p, e := Compile(expr)
	if e != nil {
		panic(e)
	}
	return p
}

// String returns the source text of the pattern.
func (p *Pattern) String() string {
	return p.expr
}

// NumGroups returns the number of capturing groups.
func (p *Pattern) NumGroups() int {
	return p.groups
}

// Match returns the leftmost match starting at or after from, or nil.
func (p *Pattern) Match(text string, from int) *Match {
	if from < 0 || from > len(text) {
		return nil
	}

	if from == 0 {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			return nil
		}
		return &Match{Start: loc[0], End: loc[1], groups: loc}
	}

	_, size := utf8.DecodeLastRuneInString(text[:from])
	base := from - size
	loc := p.after.FindStringSubmatchIndex(text[base:])
	if loc == nil {
		return nil
	}

	groups := make([]int, len(loc)-2)
	for i, pos := range loc[2:] {
		if pos >= 0 {
			pos += base
		}
		groups[i] = pos
	}
	return &Match{Start: groups[0], End: groups[1], groups: groups}
}

// Len returns the length of the matched text.
func (m *Match) Len() int {
	return m.End - m.Start
}

// Group returns span of i-th capturing group, ok is false if the group did not participate in the match.
// Group 0 is the whole match.
func (m *Match) Group(i int) (start, end int, ok bool) {
	if i < 0 || i*2+1 >= len(m.groups) || m.groups[i*2] < 0 {
		return -1, -1, false
	}

	return m.groups[i*2], m.groups[i*2+1], true
}
