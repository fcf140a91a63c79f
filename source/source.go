// Package source defines text buffer split into lines.
package source

import (
	"strings"
	"unicode/utf8"
)

// Source is a named text with line index.
// Source caches last looked up line, so it is not safe for concurrent use.
type Source struct {
	name          string
	content       string
	lineStarts    []int
	prevLineIndex int
}

// New creates a source. Line breaks are "\n", each line except the last one ends with it.
func New(name string, content string) *Source {
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := strings.Count(content, "\n") + 1
	s.lineStarts = make([]int, lineCnt)
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// NewBytes creates a source from a byte slice.
func NewBytes(name string, content []byte) *Source {
	return New(name, string(content))
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Content() string {
	return s.content
}

// LineCount returns the number of lines. Trailing line break starts an empty last line.
func (s *Source) LineCount() int {
	return len(s.lineStarts)
}

// LineStart returns byte offset of 1-based line number, out of range values are clamped.
func (s *Source) LineStart(line int) int {
	if line <= 1 {
		return 0
	}
	if line > len(s.lineStarts) {
		return len(s.content)
	}
	return s.lineStarts[line-1]
}

// Line returns the text of 1-based line number including its trailing line break if any.
// Returns empty string for out of range line numbers.
func (s *Source) Line(line int) string {
	if line <= 0 || line > len(s.lineStarts) {
		return ""
	}
	return s.content[s.LineStart(line):s.LineStart(line+1)]
}

// LineCol converts byte offset to 1-based line and column, column is counted in runes.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	if pos < 0 {
		pos = 0
		lineIndex = 0
	} else if pos >= len(s.content) {
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	} else {
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCountInString(s.content[lineStart:pos]) + 1
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	leftIndex := 0
	rightIndex := len(s.lineStarts) - 1
	if s.prevLineIndex >= 0 {
		rightIndex = s.prevLineIndex
	}
	for leftIndex < rightIndex {
		index := (leftIndex + rightIndex + 1) >> 1
		if s.lineStarts[index] <= pos {
			leftIndex = index
		} else {
			rightIndex = index - 1
		}
	}
	s.prevLineIndex = leftIndex
	return leftIndex
}

// Pos is a position within a source, it implements hilex.SourcePos.
type Pos struct {
	src       *Source
	line, col int
}

// NewPos creates position for byte offset.
func NewPos(s *Source, pos int) Pos {
	line, col := s.LineCol(pos)
	return Pos{s, line, col}
}

func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.name
}

func (p Pos) Line() int {
	return p.line
}

func (p Pos) Col() int {
	return p.col
}
