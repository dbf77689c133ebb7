// Package position converts between editor (line, character) positions and
// byte offsets into a document's text.
//
// Editors address text by zero-based line and UTF-16 code unit, while the
// syntax trees address it by byte offset. A Mapper is built once per text
// buffer and answers both directions without rescanning the text.
package position

import (
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

var ErrLineOutOfRange = errors.New("line out of range")

// Place is a zero-based line and UTF-16 character position.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span between two places.
type Range struct {
	Start Place
	End   Place
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.Start, r.End)
}

// Mapper holds the line table for a single immutable text.
type Mapper struct {
	text  string
	lines []int // byte offset of the first byte of each line
}

func NewMapper(text string) *Mapper {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Mapper{text: text, lines: lines}
}

func (m *Mapper) LineCount() int {
	return len(m.lines)
}

// lineEnd returns the offset just past the last content byte of the line,
// excluding its terminator.
func (m *Mapper) lineEnd(line int) int {
	end := len(m.text)
	if line+1 < len(m.lines) {
		end = m.lines[line+1] - 1
		if end > m.lines[line] && m.text[end-1] == '\r' {
			end--
		}
	}
	return end
}

// Offset converts a place into a byte offset. Characters past the end of the
// line are clamped to the line end.
func (m *Mapper) Offset(p Place) (int, error) {
	if p.Line < 0 || p.Line >= len(m.lines) {
		return 0, errors.Errorf("line %d of %d: %w", p.Line, len(m.lines), ErrLineOutOfRange)
	}

	offset := m.lines[p.Line]
	end := m.lineEnd(p.Line)

	for units := 0; units < p.Character && offset < end; {
		r, size := utf8.DecodeRuneInString(m.text[offset:end])
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
		offset += size
	}

	return offset, nil
}

// Place converts a byte offset into a place. Offsets outside the text are
// clamped to its bounds.
func (m *Mapper) Place(offset int) Place {
	offset = max(0, min(offset, len(m.text)))

	line := sort.Search(len(m.lines), func(i int) bool { return m.lines[i] > offset }) - 1

	char := 0
	for i := m.lines[line]; i < offset; {
		r, size := utf8.DecodeRuneInString(m.text[i:offset])
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		char += n
		i += size
	}

	return Place{Line: line, Character: char}
}

// Range converts a byte span into a place range.
func (m *Mapper) Range(start, end int) Range {
	return Range{Start: m.Place(start), End: m.Place(end)}
}
