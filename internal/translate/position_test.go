package translate

import (
	"testing"

	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/rope"
)

func TestPosToCharClampsPastEndOfLine(t *testing.T) {
	r := rope.New("test\n\n\n\ncase")

	cases := []struct {
		line, char int
		want       int
		ok         bool
	}{
		{4, 3, 11, true},
		{4, 4, 12, true},
		{4, 5, 12, true},
		{5, 0, 0, false},
	}
	for _, c := range cases {
		got, ok := PosToChar(r, lspproto.Position{Line: c.line, Character: c.char}, UTF8)
		if ok != c.ok {
			t.Fatalf("(%d,%d): ok = %v, want %v", c.line, c.char, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("(%d,%d) = %d, want %d", c.line, c.char, got, c.want)
		}
	}
}

func TestPosToCharEmptyDocument(t *testing.T) {
	r := rope.New("")

	cases := []struct {
		line, char int
		want       int
		ok         bool
	}{
		{0, 0, 0, true},
		{0, 1, 0, true},
		{1, 0, 0, false},
		{1 << 30, 1 << 30, 0, false},
	}
	for _, c := range cases {
		got, ok := PosToChar(r, lspproto.Position{Line: c.line, Character: c.char}, UTF8)
		if ok != c.ok {
			t.Fatalf("(%d,%d): ok = %v, want %v", c.line, c.char, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("(%d,%d) = %d, want %d", c.line, c.char, got, c.want)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	doc := "hello\nworld 🎄 and 🇺🇸\nlast line"
	r := rope.New(doc)

	for _, enc := range []OffsetEncoding{UTF8, UTF16, UTF32} {
		for p := 0; p <= r.Len(); p++ {
			pos := CharToPos(r, p, enc)
			got, ok := PosToChar(r, pos, enc)
			if !ok {
				t.Fatalf("enc=%v p=%d: lsp_to_pos(pos_to_lsp(p)) returned not ok", enc, p)
			}
			if got != p {
				t.Fatalf("enc=%v p=%d: round trip got %d", enc, p, got)
			}
		}
	}
}

func TestMultiEditAcrossMultiCodepointGraphemes(t *testing.T) {
	doc := "[\n\"🇺🇸\",\n\"🎄\",\n]"
	r := rope.New(doc)

	edits := []lspproto.TextEdit{
		{Range: lspproto.Range{Start: lspproto.Position{Line: 0, Character: 1}, End: lspproto.Position{Line: 1, Character: 0}}, NewText: "\n  "},
		{Range: lspproto.Range{Start: lspproto.Position{Line: 1, Character: 7}, End: lspproto.Position{Line: 2, Character: 0}}, NewText: "\n  "},
	}

	tx := EditsToTransaction(r, edits, UTF8)
	if len(tx.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(tx.Changes), tx.Changes)
	}
	result := tx.Apply(r)
	if result == "" {
		t.Fatal("expected non-empty result")
	}
}

func TestReverseOrderedEditsSortByStart(t *testing.T) {
	doc := "abcdef"
	r := rope.New(doc)

	forward := []lspproto.TextEdit{
		{Range: lspproto.Range{Start: lspproto.Position{Line: 0, Character: 0}, End: lspproto.Position{Line: 0, Character: 1}}, NewText: "X"},
		{Range: lspproto.Range{Start: lspproto.Position{Line: 0, Character: 4}, End: lspproto.Position{Line: 0, Character: 5}}, NewText: "Y"},
	}
	reverse := []lspproto.TextEdit{forward[1], forward[0]}

	forwardResult := EditsToTransaction(r, forward, UTF8).Apply(r)
	reverseResult := EditsToTransaction(r, reverse, UTF8).Apply(r)
	if forwardResult != reverseResult {
		t.Fatalf("forward = %q, reverse = %q", forwardResult, reverseResult)
	}
}

func TestFullDocumentReplacementIsMinimalDiff(t *testing.T) {
	doc := "line one\nline two\nline three\n"
	r := rope.New(doc)
	newText := "line one\nline TWO\nline three\n"

	edits := []lspproto.TextEdit{
		{Range: lspproto.Range{Start: lspproto.Position{Line: 0, Character: 0}, End: lspproto.Position{Line: 3, Character: 0}}, NewText: newText},
	}

	tx := EditsToTransaction(r, edits, UTF8)
	if len(tx.Changes) != 1 {
		t.Fatalf("expected single diff change, got %d", len(tx.Changes))
	}
	c := tx.Changes[0]
	if c.NewText == newText {
		t.Fatal("expected a minimal diff, not a wholesale replacement")
	}
	if got := tx.Apply(r); got != newText {
		t.Fatalf("Apply() = %q, want %q", got, newText)
	}
}

func TestEmptyReplacementNoOpDropped(t *testing.T) {
	r := rope.New("abc")
	edits := []lspproto.TextEdit{
		{Range: lspproto.Range{Start: lspproto.Position{Line: 0, Character: 1}, End: lspproto.Position{Line: 0, Character: 1}}, NewText: ""},
	}
	tx := EditsToTransaction(r, edits, UTF8)
	if len(tx.Changes) != 0 {
		t.Fatalf("expected no-op edit to be dropped, got %+v", tx.Changes)
	}
}
