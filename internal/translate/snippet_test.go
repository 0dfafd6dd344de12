package translate

import (
	"strings"
	"testing"

	"github.com/kestrel-editor/lsp/internal/rope"
)

func TestExpandSnippetIndentsContinuationLines(t *testing.T) {
	// "    call(\n)": cursor sits at char 9, right after "call(", nine
	// columns into its line. Every injected newline is padded to that
	// same column width, so a multi-line argument list lines up under
	// the opening paren.
	doc := "    call(\n)"
	r := rope.New(doc)
	cursor := 9

	tree := []SnippetNode{
		TextNode("arg1,\narg2"),
	}

	exp := ExpandSnippet(r, tree, cursor, 0, 0, "\n")
	want := "arg1,\n" + strings.Repeat(" ", 9) + "arg2"
	if exp.Text != want {
		t.Fatalf("Text = %q, want %q", exp.Text, want)
	}
}

func TestExpandSnippetTabStopsDefaultToEndOfReplacement(t *testing.T) {
	r := rope.New("")
	exp := ExpandSnippet(r, []SnippetNode{TextNode("hello")}, 0, 0, 0, "\n")
	start, end := exp.Selection()
	if start != end || start != 5 {
		t.Fatalf("Selection() = (%d,%d), want zero-width at 5", start, end)
	}
}

func TestExpandSnippetFirstTabStopSelection(t *testing.T) {
	r := rope.New("")
	tree := []SnippetNode{
		TextNode("foo("),
		TabStopNode(1, TextNode("arg")),
		TextNode(")"),
	}
	exp := ExpandSnippet(r, tree, 0, 0, 0, "\n")
	if exp.Text != "foo(arg)" {
		t.Fatalf("Text = %q", exp.Text)
	}
	start, end := exp.Selection()
	if start != 4 || end != 7 {
		t.Fatalf("Selection() = (%d,%d), want (4,7)", start, end)
	}
}

func TestExpandSnippetCursorRelativeOffsets(t *testing.T) {
	// "foo.bar" with the cursor after "bar"; replace the partial word
	// "bar" before the cursor (offset -3) through the cursor (offset 0).
	r := rope.New("foo.bar")
	cursor := 7
	tree := []SnippetNode{TextNode("barbaz")}

	exp := ExpandSnippet(r, tree, cursor, -3, 0, "\n")
	if exp.ReplacementStart != 4 || exp.ReplacementEnd != 7 {
		t.Fatalf("replacement = [%d,%d), want [4,7)", exp.ReplacementStart, exp.ReplacementEnd)
	}
	tx := exp.ToTransaction()
	if got := tx.Apply(r); got != "foo.barbaz" {
		t.Fatalf("Apply() = %q", got)
	}
}

func TestCompletionEditTransaction(t *testing.T) {
	r := rope.New("foo.ba")
	cursor := 6
	tx := CompletionEditTransaction(cursor, -2, 0, "bar")
	if got := tx.Apply(r); got != "foo.bar" {
		t.Fatalf("Apply() = %q", got)
	}
}
