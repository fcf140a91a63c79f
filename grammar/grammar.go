// Package grammar defines compiled grammar used by lexer.
// All structures are immutable after construction and may be shared by concurrent sessions.
package grammar

import (
	"github.com/ava12/hilex/pattern"
)

// MainContext is the name of the context at the bottom of every context stack.
const MainContext = "main"

// PrototypeContext is the name of the context implicitly included in every other context.
const PrototypeContext = "prototype"

// Action defines what happens to the context stack when a rule matches.
type Action int

const (
	ActionNone Action = iota
	ActionPush
	ActionPop
	ActionSet
)

var actionNames = [...]string{"none", "push", "pop", "set"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Capture assigns scopes to a capturing group of rule pattern.
type Capture struct {
	Group  int
	Scopes []string
}

// Rule binds a pattern to scopes and a stack action.
type Rule struct {
	Pattern *pattern.Pattern

	// Scopes apply to the whole match, capture scopes are layered on top of them.
	Scopes []string

	// Captures are sorted by group index.
	Captures []Capture

	Action Action

	// Targets contains context indexes pushed by ActionPush or ActionSet, the last one ends up on top.
	Targets []int

	// PopCount is the number of contexts removed by ActionPop, at least 1.
	PopCount int

	// Origin is the name of the context where rule is declared.
	Origin string
}

// Context is a lexical mode: an ordered list of rules with includes already spliced in.
type Context struct {
	Name  string
	Index int

	// Anonymous is set for inline contexts defined right in push or set target.
	Anonymous bool

	// MetaScopes apply to all text matched while context is on the stack, including push and pop matches.
	MetaScopes []string

	// MetaContentScopes apply to text matched while context is on the stack, excluding push and pop matches.
	MetaContentScopes []string

	Rules []*Rule
}

// Grammar owns contexts, contexts refer to each other by index.
type Grammar struct {
	Name           string
	Scope          string
	FileExtensions []string
	FirstLineMatch string

	// Variables contains fully resolved variable values.
	Variables map[string]string

	contexts []*Context
	index    map[string]int
}

// New creates a grammar. contexts[i].Index must be equal to i.
// Returns nil if there is no main context.
func New(name, scope string, exts []string, vars map[string]string, contexts []*Context) *Grammar {
	index := make(map[string]int, len(contexts))
	for i, c := range contexts {
		index[c.Name] = i
	}
	if _, has := index[MainContext]; !has {
		return nil
	}

	return &Grammar{
		Name:           name,
		Scope:          scope,
		FileExtensions: exts,
		Variables:      vars,
		contexts:       contexts,
		index:          index,
	}
}

// PlainText returns a grammar with a single empty main context.
// It is a fallback for failed grammar loading: every line becomes a single token.
func PlainText() *Grammar {
	main := &Context{Name: MainContext}
	return New("Plain Text", "text.plain", []string{"txt"}, map[string]string{}, []*Context{main})
}

// Main returns the main context.
func (g *Grammar) Main() *Context {
	return g.contexts[g.index[MainContext]]
}

// Context returns the context with given name.
func (g *Grammar) Context(name string) (*Context, bool) {
	i, has := g.index[name]
	if !has {
		return nil, false
	}
	return g.contexts[i], true
}

// ContextAt returns context by index, index must be valid.
func (g *Grammar) ContextAt(index int) *Context {
	return g.contexts[index]
}

// Contexts returns all contexts in index order. The slice must not be modified.
func (g *Grammar) Contexts() []*Context {
	return g.contexts
}

// NumContexts returns the number of contexts including anonymous ones.
func (g *Grammar) NumContexts() int {
	return len(g.contexts)
}
