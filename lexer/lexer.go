// Package lexer defines tokenization sessions driven by a context stack.
package lexer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ava12/hilex"
	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/logging"
	"github.com/ava12/hilex/logging/logfields"
	"github.com/ava12/hilex/pattern"
	"github.com/ava12/hilex/source"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "lexer")

// Error codes used by lexer:
const (
	// NoProgressError indicates that rules keep matching empty text without ever consuming input.
	NoProgressError = hilex.RuntimeErrors + iota

	// StackOverflowError indicates that context stack exceeds Config.MaxDepth.
	StackOverflowError

	// ClosedError indicates that session is used after Close.
	ClosedError

	// StateError indicates that a checkpoint cannot be restored in this session.
	StateError
)

func noProgressError(pos hilex.SourcePos, ctx string) *hilex.Error {
	return hilex.FormatErrorPos(pos, NoProgressError, "no progress in context %q", ctx)
}

func stackOverflowError(pos hilex.SourcePos, depth int) *hilex.Error {
	return hilex.FormatErrorPos(pos, StackOverflowError, "context stack depth exceeds %d", depth)
}

// linePos is a position in a line passed to ScanLine, column is a 1-based byte offset.
type linePos struct {
	line, col int
}

func (p linePos) SourceName() string {
	return ""
}

func (p linePos) Line() int {
	return p.line
}

func (p linePos) Col() int {
	return p.col
}

func closedError() *hilex.Error {
	return hilex.FormatError(ClosedError, "session is closed")
}

func stateError(msg string) *hilex.Error {
	return hilex.FormatError(StateError, "cannot restore state: %s", msg)
}

// posFunc converts byte offset within current line to error position.
type posFunc func(offset int) hilex.SourcePos

// Session tokenizes a document line by line. Session owns its context stack,
// it is not safe for concurrent use, but any number of sessions may share a grammar.
// Once a call fails, the session keeps returning the same error.
type Session struct {
	grammar *grammar.Grammar
	config  Config
	stack   []int
	line    int
	err     error
	closed  bool
}

// NewSession opens a session with default config and the main context on the stack.
// Nil grammar means plain text.
func NewSession(g *grammar.Grammar) *Session {
	return NewSessionConfig(g, DefaultConfig())
}

// NewSessionConfig opens a session with specified limits.
func NewSessionConfig(g *grammar.Grammar, c Config) *Session {
	if g == nil {
		g = grammar.PlainText()
	}
	return &Session{
		grammar: g,
		config:  c.normalize(),
		stack:   []int{g.Main().Index},
	}
}

func (s *Session) Grammar() *grammar.Grammar {
	return s.grammar
}

// Depth returns the number of contexts on the stack, main included.
func (s *Session) Depth() int {
	return len(s.stack)
}

// Stack returns names of contexts on the stack, bottom first.
func (s *Session) Stack() []string {
	result := make([]string, len(s.stack))
	for i, index := range s.stack {
		result[i] = s.grammar.ContextAt(index).Name
	}
	return result
}

// Err returns the error that failed the session or nil.
func (s *Session) Err() error {
	return s.err
}

// Close releases the stack, any subsequent call fails with ClosedError.
func (s *Session) Close() {
	s.closed = true
	s.stack = nil
}

// State returns a checkpoint of the context stack.
func (s *Session) State() State {
	return State{grammar: s.grammar, stack: append([]int(nil), s.stack...), line: s.line}
}

// Restore resets the context stack to a checkpoint taken from a session using the same grammar.
func (s *Session) Restore(st State) error {
	if s.closed {
		return closedError()
	}
	if s.err != nil {
		return s.err
	}
	if st.grammar != s.grammar {
		return stateError("grammar mismatch")
	}
	if len(st.stack) == 0 || st.stack[0] != s.grammar.Main().Index {
		return stateError("invalid context stack")
	}

	s.stack = append(s.stack[:0], st.stack...)
	s.line = st.line
	return nil
}

// ScanLine tokenizes next line, line should include its trailing line feed.
// Returned tokens are ordered, non-empty, and cover the whole line.
func (s *Session) ScanLine(line string) ([]Token, error) {
	if e := s.check(); e != nil {
		return nil, e
	}

	s.line++
	n := s.line
	return s.scanLine(line, func(offset int) hilex.SourcePos {
		return linePos{n, offset + 1}
	})
}

// ScanSource tokenizes all lines of src continuing from current stack.
// Token offsets are relative to src, errors carry source name and position with column counted in runes.
func (s *Session) ScanSource(src *source.Source) ([]Token, error) {
	if e := s.check(); e != nil {
		return nil, e
	}

	var tokens []Token
	for i := 1; i <= src.LineCount(); i++ {
		line := src.Line(i)
		if line == "" {
			continue
		}

		start := src.LineStart(i)
		s.line++
		lineTokens, e := s.scanLine(line, func(offset int) hilex.SourcePos {
			return source.NewPos(src, start+offset)
		})
		if e != nil {
			return nil, e
		}

		for _, t := range lineTokens {
			tokens = append(tokens, t.shift(start))
		}
	}
	return tokens, nil
}

func (s *Session) check() error {
	if s.closed {
		return closedError()
	}
	return s.err
}

func (s *Session) scanLine(line string, pf posFunc) ([]Token, error) {
	tokens, e := s.scan(line, pf)
	if e != nil {
		s.err = e
		return nil, e
	}
	return tokens, nil
}

func (s *Session) top() *grammar.Context {
	return s.grammar.ContextAt(s.stack[len(s.stack)-1])
}

func (s *Session) stackKey() string {
	var sb strings.Builder
	for _, index := range s.stack {
		sb.WriteString(strconv.Itoa(index))
		sb.WriteByte(',')
	}
	return sb.String()
}

func (s *Session) scan(line string, pf posFunc) ([]Token, error) {
	var tokens []Token
	pos := 0
	idle := 0
	var seen map[string]bool

	for pos < len(line) {
		rule, m := findMatch(s.top(), line, pos)
		if rule == nil {
			tokens = appendToken(tokens, pos, len(line), s.contentScopes(s.stack))
			break
		}

		tokens = appendToken(tokens, pos, m.Start, s.contentScopes(s.stack))
		tokens = s.appendMatch(tokens, rule, m)

		var before string
		if m.End == pos {
			before = s.stackKey()
		}

		e := s.apply(rule, m.Start, pf)
		if e != nil {
			return nil, e
		}

		if m.End > pos {
			pos = m.End
			idle = 0
			seen = nil
			continue
		}

		idle++
		after := s.stackKey()
		if seen == nil {
			seen = map[string]bool{before: true}
		}
		if seen[after] || idle > s.config.MaxIdleSteps {
			return nil, noProgressError(pf(pos), rule.Origin)
		}
		seen[after] = true
	}

	return tokens, nil
}

// findMatch returns the rule matching earliest, declaration order breaks ties.
func findMatch(c *grammar.Context, line string, pos int) (*grammar.Rule, *pattern.Match) {
	var (
		best      *grammar.Rule
		bestMatch *pattern.Match
	)
	for _, r := range c.Rules {
		m := r.Pattern.Match(line, pos)
		if m != nil && (bestMatch == nil || m.Start < bestMatch.Start) {
			best, bestMatch = r, m
			if m.Start == pos {
				break
			}
		}
	}
	return best, bestMatch
}

func (s *Session) rootScopes(size int) []string {
	result := make([]string, 0, size+1)
	if s.grammar.Scope != "" {
		result = append(result, s.grammar.Scope)
	}
	return result
}

// contentScopes returns scopes of text inside contexts of the stack.
func (s *Session) contentScopes(stack []int) []string {
	result := s.rootScopes(len(stack) * 2)
	for _, index := range stack {
		c := s.grammar.ContextAt(index)
		result = append(result, c.MetaScopes...)
		result = append(result, c.MetaContentScopes...)
	}
	return result
}

func (s *Session) metaScopes(scopes []string, contexts []int) []string {
	for _, index := range contexts {
		scopes = append(scopes, s.grammar.ContextAt(index).MetaScopes...)
	}
	return scopes
}

// popCount returns the number of contexts a pop rule actually removes, main is never removed.
func (s *Session) popCount(r *grammar.Rule) int {
	if r.PopCount < len(s.stack) {
		return r.PopCount
	}
	return len(s.stack) - 1
}

// matchScopes returns scopes of the matched text before capture scopes are applied.
func (s *Session) matchScopes(r *grammar.Rule) []string {
	var result []string
	switch {
	case r.Action == grammar.ActionPush || (r.Action == grammar.ActionSet && len(s.stack) == 1):
		result = s.metaScopes(s.contentScopes(s.stack), r.Targets)
	case r.Action == grammar.ActionPop:
		rest := len(s.stack) - s.popCount(r)
		result = s.metaScopes(s.contentScopes(s.stack[:rest]), s.stack[rest:])
	case r.Action == grammar.ActionSet:
		result = s.metaScopes(s.contentScopes(s.stack[:len(s.stack)-1]), r.Targets)
	default:
		result = s.contentScopes(s.stack)
	}
	return append(result, r.Scopes...)
}

// appendMatch splits matched text at capture boundaries.
func (s *Session) appendMatch(tokens []Token, r *grammar.Rule, m *pattern.Match) []Token {
	if m.Len() == 0 {
		return tokens
	}

	base := s.matchScopes(r)
	if len(r.Captures) == 0 {
		return appendToken(tokens, m.Start, m.End, base)
	}

	bounds := []int{m.Start, m.End}
	for _, c := range r.Captures {
		start, end, ok := m.Group(c.Group)
		if ok && end > start {
			bounds = append(bounds, start, end)
		}
	}
	sort.Ints(bounds)

	for i := 1; i < len(bounds); i++ {
		start, end := bounds[i-1], bounds[i]
		if end <= start {
			continue
		}

		scopes := append(make([]string, 0, len(base)+len(r.Captures)), base...)
		for _, c := range r.Captures {
			gs, ge, ok := m.Group(c.Group)
			if ok && gs <= start && end <= ge {
				scopes = append(scopes, c.Scopes...)
			}
		}
		tokens = appendToken(tokens, start, end, scopes)
	}
	return tokens
}

func (s *Session) push(targets []int, pos int, pf posFunc) error {
	if len(s.stack)+len(targets) > s.config.MaxDepth {
		return stackOverflowError(pf(pos), s.config.MaxDepth)
	}

	s.stack = append(s.stack, targets...)
	return nil
}

func (s *Session) warn(msg string, pos int) {
	log.WithFields(logrus.Fields{
		logfields.Grammar: s.grammar.Name,
		logfields.Context: s.top().Name,
		logfields.Line:    s.line,
		logfields.Offset:  pos,
	}).Warn(msg)
}

func (s *Session) apply(r *grammar.Rule, pos int, pf posFunc) error {
	switch r.Action {
	case grammar.ActionPush:
		return s.push(r.Targets, pos, pf)

	case grammar.ActionPop:
		n := s.popCount(r)
		if n < r.PopCount {
			s.warn("Ignoring pop of main context", pos)
		}
		s.stack = s.stack[:len(s.stack)-n]

	case grammar.ActionSet:
		if len(s.stack) == 1 {
			s.warn("Cannot replace main context, pushing instead", pos)
		} else {
			s.stack = s.stack[:len(s.stack)-1]
		}
		return s.push(r.Targets, pos, pf)
	}
	return nil
}

// Tokenize tokenizes text in a new session.
// Token offsets are relative to text. Returned state tells whether any construct is left open.
func Tokenize(g *grammar.Grammar, text string) ([]Token, State, error) {
	return TokenizeConfig(g, text, DefaultConfig())
}

// TokenizeConfig is like Tokenize but uses specified limits.
func TokenizeConfig(g *grammar.Grammar, text string, c Config) ([]Token, State, error) {
	return TokenizeSource(g, source.New("", text), c)
}

// TokenizeSource is like TokenizeConfig but takes a named source, so errors include its name.
func TokenizeSource(g *grammar.Grammar, src *source.Source, c Config) ([]Token, State, error) {
	s := NewSessionConfig(g, c)
	defer s.Close()

	tokens, e := s.ScanSource(src)
	if e != nil {
		return nil, State{}, e
	}
	return tokens, s.State(), nil
}
