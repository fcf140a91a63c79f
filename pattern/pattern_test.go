package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava12/hilex/internal/test"
)

func TestInvalidPattern(t *testing.T) {
	samples := []string{"(foo", "foo)", "[foo", "\\C", "(?=foo)", "a{2,1}", "\\"}
	for i, expr := range samples {
		p, e := Compile(expr)
		require.Nil(t, p, "sample #%d", i)
		test.ExpectErrorCode(t, InvalidPatternError, e)
	}
}

func TestMatchFromOffset(t *testing.T) {
	samples := []struct {
		expr       string
		text       string
		from       int
		start, end int
	}{
		{`\d+`, "ab 12 34", 0, 3, 5},
		{`\d+`, "ab 12 34", 4, 4, 5},
		{`\d+`, "ab 12 34", 5, 6, 8},
		{`^\w+`, "foo bar", 0, 0, 3},
		{`^\w+`, "foo bar", 3, -1, -1},
		{`\bbar`, "foo bar", 4, 4, 7},
		{`\bar`, "foo bar", 5, -1, -1},
		{`\Bar`, "foo bar", 5, 5, 7},
		{`.*?;`, "a;b;c;", 2, 2, 4},
		{`$`, "abc", 3, 3, 3},
		{`\n`, "abc\n", 1, 3, 4},
		{`[а-я]+`, "abв где", 2, 2, 4},
		{`x`, "ab", 5, -1, -1},
	}

	for i, s := range samples {
		m := MustCompile(s.expr).Match(s.text, s.from)
		if s.start < 0 {
			require.Nil(t, m, "sample #%d: %q in %q from %d", i, s.expr, s.text, s.from)
			continue
		}

		require.NotNil(t, m, "sample #%d: %q in %q from %d", i, s.expr, s.text, s.from)
		require.Equal(t, s.start, m.Start, "sample #%d: start", i)
		require.Equal(t, s.end, m.End, "sample #%d: end", i)
	}
}

func TestGroups(t *testing.T) {
	p := MustCompile(`(\w+)\s*(=)(x)?`)
	require.Equal(t, 3, p.NumGroups())
	require.Equal(t, `(\w+)\s*(=)(x)?`, p.String())

	for _, from := range []int{0, 1} {
		m := p.Match(" foo = bar", from)
		require.NotNil(t, m)
		require.Equal(t, 1, m.Start)
		require.Equal(t, 6, m.End)
		require.Equal(t, 5, m.Len())

		start, end, ok := m.Group(0)
		require.True(t, ok)
		require.Equal(t, []int{1, 6}, []int{start, end})

		start, end, ok = m.Group(1)
		require.True(t, ok)
		require.Equal(t, []int{1, 4}, []int{start, end})

		start, end, ok = m.Group(2)
		require.True(t, ok)
		require.Equal(t, []int{5, 6}, []int{start, end})

		_, _, ok = m.Group(3)
		require.False(t, ok)
		_, _, ok = m.Group(4)
		require.False(t, ok)
	}
}

func TestFlagsStayLocal(t *testing.T) {
	p := MustCompile(`(?i)begin`)
	m := p.Match("x BEGIN", 1)
	require.NotNil(t, m)
	require.Equal(t, 2, m.Start)
}
