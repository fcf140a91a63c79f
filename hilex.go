/*
Package hilex is a data-driven tokenizer for syntax highlighting.

Grammars are declarative tables of regular expression rules grouped into named
contexts; the tokenizer keeps a stack of active contexts and produces a flat
stream of scoped tokens, line by line.

Consists of subpackages:
  - cmd/hilex: console utility to validate grammars, dump compiled grammars, and tokenize files;
  - grammar: defines immutable compiled grammar: contexts, rules, and capture scopes;
  - langdef: converts grammar definition (YAML document in .sublime-syntax style) to compiled grammar;
  - lexer: tokenization sessions driving the context stack;
  - pattern: regular expression matcher able to search from an offset without losing anchor context;
  - source: text buffer with line index;
  - logging: shared logger configuration.

Typical usage is:

1. Describe grammar as a YAML document: variables, contexts, and rules.

2. Load grammar once using langdef, the result is read-only and may be shared
by any number of goroutines.

3. Open a session per document and feed it lines; each session owns its context stack
and may be checkpointed and restored between lines.
*/
package hilex

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	LoadErrors    = 1   // used by langdef
	PatternErrors = 101 // used by pattern
	RuntimeErrors = 201 // used by lexer
)

// Error is the error type used by hilex subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
}

// NewError creates new Error structure.
// line and col will be added to error message if provided (non-zero), name is added if not empty.
func NewError(code int, msg, name string, line, col int) *Error {
	if line != 0 && col != 0 {
		if name != "" {
			msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
		} else {
			msg += fmt.Sprintf(" at line %d col %d", line, col)
		}
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}
