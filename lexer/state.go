package lexer

import (
	"github.com/ava12/hilex/grammar"
)

// State is a checkpoint of a session: context stack and line counter.
// State is a value, it is not affected by further session activity.
type State struct {
	grammar *grammar.Grammar
	stack   []int
	line    int
}

func (st State) Grammar() *grammar.Grammar {
	return st.grammar
}

// Depth returns the number of contexts on the stack, 1 means that no construct is left open.
func (st State) Depth() int {
	return len(st.stack)
}

// Line returns the number of lines scanned before checkpoint.
func (st State) Line() int {
	return st.line
}

// Contexts returns names of contexts on the stack, bottom first.
func (st State) Contexts() []string {
	result := make([]string, len(st.stack))
	for i, index := range st.stack {
		result[i] = st.grammar.ContextAt(index).Name
	}
	return result
}

// Equal reports whether both checkpoints have the same grammar and context stack.
// Line counters are not compared, so equal states tokenize the same line the same way.
func (st State) Equal(other State) bool {
	if st.grammar != other.grammar || len(st.stack) != len(other.stack) {
		return false
	}

	for i, index := range st.stack {
		if other.stack[i] != index {
			return false
		}
	}
	return true
}
