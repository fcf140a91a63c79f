package langdef

import (
	"strings"

	"github.com/ava12/hilex"
	"github.com/ava12/hilex/pattern"
)

// Error codes used by langdef. Patterns failing to compile are reported with pattern.InvalidPatternError code.
const (
	SyntaxError = hilex.LoadErrors + iota
	MissingMainError
	DuplicateContextError
	DuplicateVariableError
	WrongRuleError
	UnresolvedVariableError
	VariableCycleError
	UnknownContextError
)

func yamlError(name string, e error) *hilex.Error {
	msg := strings.TrimPrefix(e.Error(), "yaml: ")
	if name != "" {
		return hilex.FormatError(SyntaxError, "malformed grammar definition %s: %s", name, msg)
	}
	return hilex.FormatError(SyntaxError, "malformed grammar definition: %s", msg)
}

func emptyDocumentError(name string) *hilex.Error {
	return hilex.NewError(SyntaxError, "empty grammar definition", name, 0, 0)
}

func kindError(pos nodePos, what, expected string) *hilex.Error {
	return hilex.FormatErrorPos(pos, SyntaxError, "%s must be %s", what, expected)
}

func missingMainError(name string) *hilex.Error {
	if name != "" {
		return hilex.FormatError(MissingMainError, "no %q context in %s", "main", name)
	}
	return hilex.FormatError(MissingMainError, "no %q context", "main")
}

func defContextError(pos nodePos, name string) *hilex.Error {
	return hilex.FormatErrorPos(pos, DuplicateContextError, "context %q already defined", name)
}

func defVariableError(pos nodePos, name string) *hilex.Error {
	return hilex.FormatErrorPos(pos, DuplicateVariableError, "variable %q already defined", name)
}

func wrongRuleError(pos nodePos, msg string, params ...any) *hilex.Error {
	return hilex.FormatErrorPos(pos, WrongRuleError, msg, params...)
}

func unresolvedVariableError(pos nodePos, name string) *hilex.Error {
	return hilex.FormatErrorPos(pos, UnresolvedVariableError, "undefined variable %q", name)
}

func variableCycleError(pos nodePos, chain []string) *hilex.Error {
	return hilex.FormatErrorPos(pos, VariableCycleError, "variable refers to itself: %s", strings.Join(chain, " -> "))
}

func unknownContextError(pos nodePos, name string) *hilex.Error {
	return hilex.FormatErrorPos(pos, UnknownContextError, "undefined context %q", name)
}

func patternError(pos nodePos, e error) *hilex.Error {
	msg := e.Error()
	if pe, ok := e.(*hilex.Error); ok {
		msg = pe.Message
	}
	return hilex.FormatErrorPos(pos, pattern.InvalidPatternError, "%s", msg)
}
