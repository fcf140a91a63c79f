package langdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ava12/hilex"
	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/internal/test"
	"github.com/ava12/hilex/pattern"
)

func checkErrorCode(t *testing.T, samples []string, code int) {
	t.Helper()
	for index, src := range samples {
		g, e := ParseString("sample", src)
		if code == 0 {
			require.NoError(t, e, "input #%d", index)
			require.NotNil(t, g, "input #%d", index)
			continue
		}

		require.Nil(t, g, "input #%d: grammar returned along with error", index)
		test.ExpectErrorCode(t, code, e)
	}
}

func mustParse(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, e := ParseString("sample", src)
	require.NoError(t, e)
	require.NotNil(t, g)
	return g
}

func ruleExprs(c *grammar.Context) []string {
	result := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		result[i] = r.Pattern.String()
	}
	return result
}

func TestSyntaxError(t *testing.T) {
	samples := []string{
		"",
		"contexts: [",
		"- foo",
		"contexts: foo",
		"contexts:\n  main: foo",
		"contexts:\n  main:\n    - foo",
		"scope: [a, b]\ncontexts:\n  main: []",
		"file_extensions: foo\ncontexts:\n  main: []",
		"variables: [a]\ncontexts:\n  main: []",
		"variables:\n  a: [b]\ncontexts:\n  main: []",
		"contexts:\n  main:\n    - match: a\n      pop: maybe",
		"contexts:\n  main:\n    - match: a\n      pop: 0",
		"contexts:\n  main:\n    - match: a\n      push: {a: b}",
		"contexts:\n  main:\n    - meta_include_prototype: sometimes",
		"contexts:\n  main:\n    - match: a\n      captures: [a]",
		"contexts:\n  main:\n    - match: ~",
		"contexts:\n  main:\n    - match: null",
		"contexts:\n  main:\n    - match:\n      scope: x",
		"contexts:\n  main:\n    - match: a\n      push: ~",
		"contexts:\n  main:\n    - match: a\n      set: [b, ~]\n  b: []",
		"contexts:\n  main:\n    - match: a\n      scope: ~",
		"variables:\n  a: ~\ncontexts:\n  main: []",
	}
	checkErrorCode(t, samples, SyntaxError)
}

func TestMissingMain(t *testing.T) {
	samples := []string{
		"name: foo",
		"contexts:\n  other: []",
	}
	checkErrorCode(t, samples, MissingMainError)
}

func TestWrongRule(t *testing.T) {
	samples := []string{
		"contexts:\n  main:\n    - {}",
		"contexts:\n  main:\n    - match: a\n      color: red",
		"contexts:\n  main:\n    - match: a\n      include: main",
		"contexts:\n  main:\n    - match: a\n      push: main\n      pop: true",
		"contexts:\n  main:\n    - match: a\n      push: []",
		"contexts:\n  main:\n    - match: (a)\n      captures:\n        x: foo",
		"contexts:\n  main:\n    - match: (a)\n      captures:\n        2: foo",
		"contexts:\n  main:\n    - meta_scope: foo\n      scope: bar",
	}
	checkErrorCode(t, samples, WrongRuleError)
}

func TestUnknownContext(t *testing.T) {
	samples := []string{
		"contexts:\n  main:\n    - match: a\n      push: nosuch",
		"contexts:\n  main:\n    - match: a\n      set: [main, nosuch]",
		"contexts:\n  main:\n    - include: nosuch",
		"contexts:\n  main:\n    - match: a\n      push:\n        - match: b\n          push: nosuch",
	}
	checkErrorCode(t, samples, UnknownContextError)
}

func TestUnknownContextPosition(t *testing.T) {
	_, e := ParseString("grammar.yaml", "contexts:\n  main:\n    - match: a\n      push: nosuch\n")
	test.ExpectErrorCode(t, UnknownContextError, e)
	ee := e.(*hilex.Error)
	require.Equal(t, "grammar.yaml", ee.SourceName)
	require.Equal(t, 4, ee.Line)
	require.Equal(t, 13, ee.Col)
	require.True(t, strings.HasSuffix(ee.Message, "in grammar.yaml at line 4 col 13"), ee.Message)
}

func TestUnresolvedVariable(t *testing.T) {
	samples := []string{
		"contexts:\n  main:\n    - match: '{{nosuch}}'",
		"variables:\n  a: '{{b}}'\ncontexts:\n  main: []",
		"contexts:\n  main:\n    - include: '{{nosuch}}'",
	}
	checkErrorCode(t, samples, UnresolvedVariableError)
}

func TestVariableCycle(t *testing.T) {
	samples := []string{
		"variables:\n  a: 'x{{a}}'\ncontexts:\n  main:\n    - match: '{{a}}'",
		"variables:\n  a: '{{b}}'\n  b: '{{c}}'\n  c: '{{a}}'\ncontexts:\n  main:\n    - match: '{{b}}'",
		"variables:\n  a: '{{b}}'\n  b: '{{a}}'\ncontexts:\n  main: []",
	}
	checkErrorCode(t, samples, VariableCycleError)

	_, e := ParseString("sample", samples[1])
	require.Contains(t, e.Error(), "b -> c -> a -> b")
}

func TestDuplicateNames(t *testing.T) {
	samples := []string{
		"variables:\n  a: x\n  a: y\ncontexts:\n  main: []",
		"contexts:\n  main: []\n  other: []\n  other: []",
	}
	for i, src := range samples {
		g, e := ParseString("sample", src)
		require.Nil(t, g, "sample #%d", i)
		require.Error(t, e, "sample #%d", i)
	}
}

func TestInvalidPattern(t *testing.T) {
	samples := []string{
		"contexts:\n  main:\n    - match: '(foo'",
		"contexts:\n  main:\n    - match: '(?=foo)'",
		"variables:\n  open: '['\ncontexts:\n  main:\n    - match: '{{open}}a'",
	}
	checkErrorCode(t, samples, pattern.InvalidPatternError)

	_, e := ParseString("grammar.yaml", samples[0])
	ee := e.(*hilex.Error)
	require.Equal(t, 3, ee.Line)
	require.Equal(t, 14, ee.Col)
}

func TestValidGrammars(t *testing.T) {
	samples := []string{
		"contexts:\n  main: []",
		"contexts:\n  main:\n    - include: main",
		"contexts:\n  main:\n    - match: a\n      pop: false",
		"contexts:\n  main:\n    - match: a\n      pop: 2",
		"version: 2\nhidden: true\ncontexts:\n  main: []",
		"contexts:\n  main:\n    - match: a\n      push: [main, main]",
	}
	checkErrorCode(t, samples, 0)
}

func TestHeader(t *testing.T) {
	g := mustParse(t, `
name: Sample
scope: source.sample
file_extensions: [smp, sample]
first_line_match: '^#!.*sample'
variables:
  word: '\w+'
contexts:
  main: []
`)
	require.Equal(t, "Sample", g.Name)
	require.Equal(t, "source.sample", g.Scope)
	require.Equal(t, []string{"smp", "sample"}, g.FileExtensions)
	require.Equal(t, "^#!.*sample", g.FirstLineMatch)
	require.Equal(t, map[string]string{"word": `\w+`}, g.Variables)
}

func TestVariableInterpolation(t *testing.T) {
	g := mustParse(t, `
variables:
  ident: '{{first}}{{rest}}*'
  first: '[a-z]'
  rest: '[a-z0-9]'
  target: str
contexts:
  main:
    - match: '\$({{ident}})'
      push: '{{target}}'
  str:
    - match: '{{ident}}'
      pop: true
`)
	require.Equal(t, "[a-z][a-z0-9]*", g.Variables["ident"])
	require.Equal(t, []string{`\$([a-z][a-z0-9]*)`}, ruleExprs(g.Main()))

	str, ok := g.Context("str")
	require.True(t, ok)
	require.Equal(t, []int{str.Index}, g.Main().Rules[0].Targets)
}

func TestRuleFields(t *testing.T) {
	g := mustParse(t, `
scope: source.x
contexts:
  main:
    - match: '(\w+)\s*(=)'
      scope: meta.assignment.x  meta.other.x
      captures:
        2: keyword.operator.x
        1: variable.x
        0: ''
      push: [value, value]
  value:
    - meta_scope: meta.value.x
    - meta_content_scope: string.x
    - match: '\n'
      pop: 2
    - match: ';'
      set: main
`)
	r := g.Main().Rules[0]
	require.Equal(t, grammar.ActionPush, r.Action)
	require.Equal(t, []string{"meta.assignment.x", "meta.other.x"}, r.Scopes)
	require.Equal(t, []grammar.Capture{
		{Group: 1, Scopes: []string{"variable.x"}},
		{Group: 2, Scopes: []string{"keyword.operator.x"}},
	}, r.Captures)
	require.Equal(t, "main", r.Origin)

	value, _ := g.Context("value")
	require.Equal(t, []int{value.Index, value.Index}, r.Targets)
	require.Equal(t, []string{"meta.value.x"}, value.MetaScopes)
	require.Equal(t, []string{"string.x"}, value.MetaContentScopes)
	require.Equal(t, grammar.ActionPop, value.Rules[0].Action)
	require.Equal(t, 2, value.Rules[0].PopCount)
	require.Equal(t, grammar.ActionSet, value.Rules[1].Action)
	require.Equal(t, []int{g.Main().Index}, value.Rules[1].Targets)
}

func TestIncludeFlattening(t *testing.T) {
	g := mustParse(t, `
contexts:
  main:
    - match: m1
    - include: a
    - match: m2
    - include: b
    - include: main
  a:
    - match: a1
    - include: b
    - match: a2
  b:
    - match: b1
    - include: a
    - include: b
`)
	require.Equal(t, []string{"m1", "a1", "b1", "a2", "m2"}, ruleExprs(g.Main()))

	a, _ := g.Context("a")
	require.Equal(t, []string{"a1", "b1", "a2"}, ruleExprs(a))

	b, _ := g.Context("b")
	require.Equal(t, []string{"b1", "a1", "a2"}, ruleExprs(b))

	require.Same(t, a.Rules[0], g.Main().Rules[1])
}

func TestForwardReferences(t *testing.T) {
	g := mustParse(t, `
contexts:
  main:
    - match: '"'
      push: later
  later:
    - match: '"'
      pop: true
    - include: even-later
  even-later:
    - match: '\\.'
`)
	later, _ := g.Context("later")
	require.Equal(t, []int{later.Index}, g.Main().Rules[0].Targets)
	require.Equal(t, []string{`"`, `\\.`}, ruleExprs(later))
}

func TestAnonymousContexts(t *testing.T) {
	g := mustParse(t, `
contexts:
  main:
    - match: '\('
      push:
        - meta_scope: meta.group.x
        - match: '\)'
          pop: true
        - match: '\['
          push:
            - match: '\]'
              pop: true
    - match: '\{'
      push:
        - named
        - - match: '\}'
            pop: true
  named: []
  main#1: []
`)
	require.Equal(t, 6, g.NumContexts())

	first := g.ContextAt(g.Main().Rules[0].Targets[0])
	require.True(t, first.Anonymous)
	require.Equal(t, "main#2", first.Name)
	require.Equal(t, []string{"meta.group.x"}, first.MetaScopes)
	require.Equal(t, []string{`\)`, `\[`}, ruleExprs(first))

	nested := g.ContextAt(first.Rules[1].Targets[0])
	require.True(t, nested.Anonymous)
	require.Equal(t, "main#2#1", nested.Name)

	targets := g.Main().Rules[1].Targets
	require.Len(t, targets, 2)
	require.Equal(t, "named", g.ContextAt(targets[0]).Name)
	require.True(t, g.ContextAt(targets[1]).Anonymous)
	require.Equal(t, []string{`\}`}, ruleExprs(g.ContextAt(targets[1])))

	user, _ := g.Context("main#1")
	require.False(t, user.Anonymous)
}

func TestPrototype(t *testing.T) {
	g := mustParse(t, `
contexts:
  prototype:
    - include: comments
  comments:
    - match: '#'
  main:
    - match: m
  plain:
    - meta_include_prototype: false
    - match: p
  mixed:
    - match: x
    - include: plain
`)
	require.Equal(t, []string{"#", "m"}, ruleExprs(g.Main()))

	comments, _ := g.Context("comments")
	require.Equal(t, []string{"#"}, ruleExprs(comments))

	proto, _ := g.Context("prototype")
	require.Equal(t, []string{"#"}, ruleExprs(proto))

	plain, _ := g.Context("plain")
	require.Equal(t, []string{"p"}, ruleExprs(plain))

	mixed, _ := g.Context("mixed")
	require.Equal(t, []string{"#", "x", "p"}, ruleExprs(mixed))
}

func TestAliases(t *testing.T) {
	g := mustParse(t, `
contexts:
  main:
    - &word
      match: '\w+'
      scope: word.x
    - match: '"'
      push: str
  str:
    - *word
    - match: '"'
      pop: true
`)
	str, _ := g.Context("str")
	require.Equal(t, []string{`\w+`, `"`}, ruleExprs(str))
	require.Equal(t, []string{"word.x"}, str.Rules[0].Scopes)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "x.sublime-syntax")
	require.NoError(t, os.WriteFile(name, []byte("scope: source.x\ncontexts:\n  main: []\n"), 0o644))

	g, e := ParseFile(name)
	require.NoError(t, e)
	require.Equal(t, "source.x", g.Scope)

	_, e = ParseFile(filepath.Join(dir, "missing.sublime-syntax"))
	require.Error(t, e)
	require.Contains(t, e.Error(), "cannot read grammar")
	require.True(t, os.IsNotExist(errors.Cause(e)))
}
