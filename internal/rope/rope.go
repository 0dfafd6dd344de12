// Package rope provides a minimal char-indexed text buffer standing in
// for the editor's own rope. Only the query surface the translation
// layer needs is implemented: line/char/byte/UTF-16-offset conversions
// and line-boundary lookup restricted to the LSP line-terminator set.
package rope

import (
	"strings"
	"unicode/utf16"
)

// Rope is an immutable snapshot of document text indexed by Unicode
// scalar value ("char"), matching the editor's rope model. It is not
// optimized for large documents or repeated edits; it exists to give
// the translation layer something concrete to convert against.
type Rope struct {
	runes     []rune
	lineStart []int // char index of the start of each line
}

// New builds a Rope over text, splitting lines on the LSP-mandated set
// {\n, \r\n, \r} only, per the open question in the translation layer's
// design notes: a rope that recognized additional Unicode line breaks
// would translate positions crossing those breaks incorrectly.
func New(text string) *Rope {
	runes := []rune(text)
	lineStart := []int{0}
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			lineStart = append(lineStart, i+1)
		case '\n':
			lineStart = append(lineStart, i+1)
		}
	}
	return &Rope{runes: runes, lineStart: lineStart}
}

// Len returns the document length in chars.
func (r *Rope) Len() int { return len(r.runes) }

// LineCount returns the number of lines; a document with no terminator
// still has one line.
func (r *Rope) LineCount() int { return len(r.lineStart) }

// LineToChar returns the char index at which line starts.
func (r *Rope) LineToChar(line int) (int, bool) {
	if line < 0 || line >= len(r.lineStart) {
		return 0, false
	}
	return r.lineStart[line], true
}

// CharToLine returns the line containing char index c.
func (r *Rope) CharToLine(c int) int {
	// lineStart is sorted; find the last entry <= c.
	lo, hi := 0, len(r.lineStart)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if r.lineStart[mid] <= c {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// lineCharEnd returns the char index just before the line's terminator
// (not after it), or the document end for the last line.
func (r *Rope) lineCharEnd(line int) int {
	start := r.lineStart[line]
	var end int
	if line+1 < len(r.lineStart) {
		end = r.lineStart[line+1]
		// Walk back over the terminator.
		if end > start && r.runes[end-1] == '\n' {
			end--
			if end > start && r.runes[end-1] == '\r' {
				end--
			}
		} else if end > start && r.runes[end-1] == '\r' {
			end--
		}
	} else {
		end = len(r.runes)
	}
	return end
}

// Slice returns the text between two char indices.
func (r *Rope) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(r.runes) {
		end = len(r.runes)
	}
	if start >= end {
		return ""
	}
	return string(r.runes[start:end])
}

// String returns the full document text.
func (r *Rope) String() string { return string(r.runes) }

// CharToByte converts a char index to a UTF-8 byte offset.
func (r *Rope) CharToByte(c int) int {
	if c <= 0 {
		return 0
	}
	if c > len(r.runes) {
		c = len(r.runes)
	}
	return len(string(r.runes[:c]))
}

// TryByteToChar converts a UTF-8 byte offset back to a char index,
// reporting false if b does not land on a rune boundary.
func (r *Rope) TryByteToChar(b int) (int, bool) {
	if b == 0 {
		return 0, true
	}
	seen := 0
	for i, rn := range r.runes {
		seen += len(string(rn))
		if seen == b {
			return i + 1, true
		}
		if seen > b {
			return 0, false
		}
	}
	if b == seen {
		return len(r.runes), true
	}
	return 0, false
}

// CharToUTF16CU converts a char index to a UTF-16 code-unit offset from
// the start of the document.
func (r *Rope) CharToUTF16CU(c int) int {
	if c > len(r.runes) {
		c = len(r.runes)
	}
	n := 0
	for _, rn := range r.runes[:c] {
		n += len(utf16.Encode([]rune{rn}))
	}
	return n
}

// TryUTF16CUToChar converts a UTF-16 code-unit offset back to a char
// index, reporting false if it lands inside a surrogate pair.
func (r *Rope) TryUTF16CUToChar(cu int) (int, bool) {
	if cu == 0 {
		return 0, true
	}
	seen := 0
	for i, rn := range r.runes {
		width := len(utf16.Encode([]rune{rn}))
		seen += width
		if seen == cu {
			return i + 1, true
		}
		if seen > cu {
			return 0, false
		}
	}
	if cu == seen {
		return len(r.runes), true
	}
	return 0, false
}

// LineUnitEnd returns the end-of-line offset for `line`, expressed in
// the given unit ("utf-8" bytes, "utf-16" code units, or "utf-32"
// chars), measured from the start of the document, i.e. the offset of
// the last code unit before the line terminator.
func (r *Rope) LineUnitEnd(line int, toUnit func(char int) int) (int, bool) {
	if line < 0 || line >= len(r.lineStart) {
		return 0, false
	}
	return toUnit(r.lineCharEnd(line)), true
}

// HasTrailingNewline reports whether text ends with any LSP line
// terminator.
func HasTrailingNewline(text string) bool {
	return strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\r")
}
