// Package translate converts between LSP wire positions/ranges/edits
// and the editor's char-indexed rope, and expands snippets into
// document transactions.
package translate

import (
	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/rope"
)

// OffsetEncoding is the code-unit basis LSP position.character is
// counted in. Fixed at client creation; never changes mid-session.
type OffsetEncoding int

const (
	UTF8 OffsetEncoding = iota
	UTF16
	UTF32
)

// ParseOffsetEncoding maps a server's declared positionEncoding string
// to an OffsetEncoding, defaulting to UTF-16 when absent or
// unrecognized, per LSP's default.
func ParseOffsetEncoding(s string) OffsetEncoding {
	switch s {
	case "utf-8":
		return UTF8
	case "utf-32":
		return UTF32
	default:
		return UTF16
	}
}

func (e OffsetEncoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF32:
		return "utf-32"
	default:
		return "utf-16"
	}
}

func (e OffsetEncoding) charToUnit(r *rope.Rope, c int) int {
	switch e {
	case UTF8:
		return r.CharToByte(c)
	case UTF32:
		return c
	default:
		return r.CharToUTF16CU(c)
	}
}

func (e OffsetEncoding) unitToChar(r *rope.Rope, u int) (int, bool) {
	switch e {
	case UTF8:
		return r.TryByteToChar(u)
	case UTF32:
		if u < 0 || u > r.Len() {
			return 0, false
		}
		return u, true
	default:
		return r.TryUTF16CUToChar(u)
	}
}

// PosToChar converts an LSP position to a char index, implementing the
// clamping rule: a character past the end of the line is clamped to the
// line's length (the offset of the last code unit before its
// terminator), never into the terminator itself. It returns false when
// line is out of bounds or when the clamped unit offset does not land
// on a code-point boundary.
func PosToChar(r *rope.Rope, pos lspproto.Position, enc OffsetEncoding) (int, bool) {
	if pos.Line < 0 || pos.Line >= r.LineCount() {
		return 0, false
	}
	lineStartChar, ok := r.LineToChar(pos.Line)
	if !ok {
		return 0, false
	}
	lineStartUnit := enc.charToUnit(r, lineStartChar)
	lineEndUnit, ok := r.LineUnitEnd(pos.Line, func(c int) int { return enc.charToUnit(r, c) })
	if !ok {
		return 0, false
	}

	character := pos.Character
	if character < 0 {
		character = 0
	}
	targetUnit := lineStartUnit + character
	if targetUnit > lineEndUnit {
		targetUnit = lineEndUnit
	}
	return enc.unitToChar(r, targetUnit)
}

// CharToPos converts a char index within r's bounds to an LSP position.
func CharToPos(r *rope.Rope, c int, enc OffsetEncoding) lspproto.Position {
	line := r.CharToLine(c)
	lineStartChar, _ := r.LineToChar(line)
	lineStartUnit := enc.charToUnit(r, lineStartChar)
	targetUnit := enc.charToUnit(r, c)
	return lspproto.Position{Line: line, Character: targetUnit - lineStartUnit}
}

// RangeToLSP converts a [start,end) char range to an LSP Range.
func RangeToLSP(r *rope.Rope, start, end int, enc OffsetEncoding) lspproto.Range {
	return lspproto.Range{Start: CharToPos(r, start, enc), End: CharToPos(r, end, enc)}
}

// LSPToRange converts an LSP Range to a [start,end) char range,
// returning false if either endpoint fails to translate.
func LSPToRange(r *rope.Rope, rng lspproto.Range, enc OffsetEncoding) (start, end int, ok bool) {
	start, ok = PosToChar(r, rng.Start, enc)
	if !ok {
		return 0, 0, false
	}
	end, ok = PosToChar(r, rng.End, enc)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}
