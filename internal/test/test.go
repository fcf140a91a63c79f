package test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/ava12/hilex"
)

func fatalf(t *testing.T, message string, params ...any) {
	t.Helper()
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	_, thisFile, _, _ := runtime.Caller(0)
	file := thisFile
	line := 0
	for i := 2; file == thisFile; i++ {
		_, file, line, _ = runtime.Caller(i)
	}
	t.Fatalf("%s at %s:%d", message, file, line)
}

func Assert(t *testing.T, cond bool, message string, params ...any) {
	t.Helper()
	if !cond {
		fatalf(t, message, params...)
	}
}

func Expect(t *testing.T, cond bool, expected, got any) {
	t.Helper()
	if !cond {
		fatalf(t, "expecting %v, got %v", expected, got)
	}
}

func ExpectInt(t *testing.T, expected, got int) {
	t.Helper()
	Expect(t, expected == got, expected, got)
}

func ExpectErrorCode(t *testing.T, expected int, e error) {
	t.Helper()
	if e != nil {
		ee, valid := e.(*hilex.Error)
		if valid && ee.Code == expected {
			return
		}
	}

	fatalf(t, "expecting error code %d, got %v", expected, e)
}

// ExpectCoverage checks that spans are non-empty, ordered, and cover [0, size) exactly once.
func ExpectCoverage(t *testing.T, size int, spans [][2]int) {
	t.Helper()
	pos := 0
	for i, s := range spans {
		Assert(t, s[0] == pos, "span #%d starts at %d, expecting %d", i, s[0], pos)
		Assert(t, s[1] > s[0], "span #%d is empty: [%d, %d)", i, s[0], s[1])
		pos = s[1]
	}
	ExpectInt(t, size, pos)
}
