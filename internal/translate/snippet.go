package translate

import (
	"strings"

	"github.com/kestrel-editor/lsp/internal/rope"
)

// SnippetNode is one element of a parsed snippet tree. The snippet
// grammar itself is an external collaborator; this package only
// consumes its output. A node is either literal Text or a TabStop
// wrapping its placeholder's own nodes (possibly empty, for a bare
// `$1`).
type SnippetNode struct {
	Text        string
	IsTabStop   bool
	TabStopNum  int
	Placeholder []SnippetNode
}

// TextNode builds a literal text node.
func TextNode(s string) SnippetNode { return SnippetNode{Text: s} }

// TabStopNode builds a tab stop node with the given placeholder content.
func TabStopNode(n int, placeholder ...SnippetNode) SnippetNode {
	return SnippetNode{IsTabStop: true, TabStopNum: n, Placeholder: placeholder}
}

// RelativeRange is a char range relative to the start of a snippet
// replacement.
type RelativeRange struct {
	Start, End int
}

// SnippetExpansion is the rendered result for one selection range.
type SnippetExpansion struct {
	ReplacementStart int
	ReplacementEnd   int
	Text             string
	TabStops         map[int]RelativeRange
}

// ExpandSnippet renders tree for a single selection whose cursor sits
// at the given char index. startOffset/endOffset are signed
// displacements from the cursor delimiting the span being replaced
// (enabling placements like "replace the partial word before the
// cursor"). Every produced newline is padded with the current line's
// leading indentation, matching the editor's own line continuation
// behavior.
func ExpandSnippet(r *rope.Rope, tree []SnippetNode, cursor, startOffset, endOffset int, newline string) SnippetExpansion {
	replacementStart := cursor + startOffset
	replacementEnd := cursor + endOffset
	if replacementStart < 0 {
		replacementStart = 0
	}
	if replacementEnd < replacementStart {
		replacementEnd = replacementStart
	}

	line := r.CharToLine(replacementStart)
	lineStart, _ := r.LineToChar(line)
	indentWidth := replacementStart - lineStart
	if indentWidth < 0 {
		indentWidth = 0
	}
	indent := strings.Repeat(" ", indentWidth)

	var b strings.Builder
	runeLen := 0
	tabStops := make(map[int]RelativeRange)
	renderNodes(tree, newline, indent, &b, &runeLen, tabStops)

	return SnippetExpansion{
		ReplacementStart: replacementStart,
		ReplacementEnd:   replacementEnd,
		Text:             b.String(),
		TabStops:         tabStops,
	}
}

func renderNodes(nodes []SnippetNode, newline, indent string, b *strings.Builder, runeLen *int, tabStops map[int]RelativeRange) {
	for _, n := range nodes {
		if n.IsTabStop {
			start := *runeLen
			renderNodes(n.Placeholder, newline, indent, b, runeLen, tabStops)
			end := *runeLen
			tabStops[n.TabStopNum] = RelativeRange{Start: start, End: end}
			continue
		}
		writeIndentedText(b, n.Text, newline, indent, runeLen)
	}
}

func writeIndentedText(b *strings.Builder, text, newline, indent string, runeLen *int) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		b.WriteString(line)
		*runeLen += len([]rune(line))
		if i != len(lines)-1 {
			b.WriteString(newline)
			b.WriteString(indent)
			*runeLen += len([]rune(newline)) + len([]rune(indent))
		}
	}
}

// ToTransaction builds the document transaction that replaces
// [ReplacementStart, ReplacementEnd) with the expansion's rendered
// text.
func (e SnippetExpansion) ToTransaction() Transaction {
	return Transaction{Changes: []Change{{Start: e.ReplacementStart, End: e.ReplacementEnd, NewText: e.Text}}}
}

// Selection returns the post-transaction char range for the first tab
// stop (by ascending number), or a zero-width selection at the end of
// the replacement text when no tab stop was produced.
func (e SnippetExpansion) Selection() (start, end int) {
	if len(e.TabStops) == 0 {
		absEnd := e.ReplacementStart + len([]rune(e.Text))
		return absEnd, absEnd
	}
	best := -1
	for n := range e.TabStops {
		if best == -1 || n < best {
			best = n
		}
	}
	rel := e.TabStops[best]
	return e.ReplacementStart + rel.Start, e.ReplacementStart + rel.End
}
