package translate

import (
	"sort"

	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/rope"
)

// Change is one (start_char, end_char, replacement) triple contributed
// by a single edit.
type Change struct {
	Start, End int
	NewText    string
}

// Transaction is a batch of Changes in start order, ready to apply to a
// rope in one step.
type Transaction struct {
	Changes []Change
}

// Apply returns the text that results from applying every change in t
// to r, in order. Changes must already be sorted by start, which
// EditsToTransaction guarantees; a change that starts before the end of
// the previous one, or falls outside r, is skipped.
func (t Transaction) Apply(r *rope.Rope) string {
	var out []rune
	cursor := 0
	full := []rune(r.String())
	for _, c := range t.Changes {
		if c.Start < cursor || c.Start > len(full) || c.End < c.Start || c.End > len(full) {
			continue
		}
		out = append(out, full[cursor:c.Start]...)
		out = append(out, []rune(c.NewText)...)
		cursor = c.End
	}
	out = append(out, full[cursor:]...)
	return string(out)
}

// EditsToTransaction implements the edit batching algorithm:
//  1. Stably sort by range start (servers may emit reverse order).
//  2. If exactly one edit spans the whole document, replace it with a
//     minimal diff instead of a wholesale rewrite, so unrelated cursor
//     positions in the unchanged prefix/suffix survive.
//  3. Otherwise build one batched transaction; an edit whose endpoints
//     fail to translate contributes nothing rather than aborting.
//  4. Empty replacements over an empty range are dropped entirely.
func EditsToTransaction(r *rope.Rope, edits []lspproto.TextEdit, enc OffsetEncoding) Transaction {
	sorted := make([]lspproto.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessPosition(sorted[i].Range.Start, sorted[j].Range.Start)
	})

	if len(sorted) == 1 && isWholeDocument(r, sorted[0].Range, enc) {
		return diffTransaction(r.String(), sorted[0].NewText)
	}

	var changes []Change
	for _, edit := range sorted {
		start, end, ok := LSPToRange(r, edit.Range, enc)
		if !ok {
			continue
		}
		if start == end && edit.NewText == "" {
			continue
		}
		changes = append(changes, Change{Start: start, End: end, NewText: edit.NewText})
	}
	return Transaction{Changes: changes}
}

func lessPosition(a, b lspproto.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func isWholeDocument(r *rope.Rope, rng lspproto.Range, enc OffsetEncoding) bool {
	start, end, ok := LSPToRange(r, rng, enc)
	return ok && start == 0 && end == r.Len()
}

// diffTransaction computes a single-change transaction between old and
// new document text by trimming the common
// prefix and suffix and replacing only the differing middle. This is
// the same prefix/suffix reduction technique used by editors (and by
// the hand-rolled differs in this ecosystem) for whole-buffer
// formatter output, where most of the document is untouched.
func diffTransaction(oldText, newText string) Transaction {
	oldRunes := []rune(oldText)
	newRunes := []rune(newText)

	prefix := 0
	for prefix < len(oldRunes) && prefix < len(newRunes) && oldRunes[prefix] == newRunes[prefix] {
		prefix++
	}

	oldSuffix := len(oldRunes)
	newSuffix := len(newRunes)
	for oldSuffix > prefix && newSuffix > prefix && oldRunes[oldSuffix-1] == newRunes[newSuffix-1] {
		oldSuffix--
		newSuffix--
	}

	if prefix == oldSuffix && prefix == newSuffix {
		return Transaction{}
	}

	return Transaction{Changes: []Change{{
		Start:   prefix,
		End:     oldSuffix,
		NewText: string(newRunes[prefix:newSuffix]),
	}}}
}

// CompletionEditTransaction builds a transaction from a single
// cursor-relative (start_offset, end_offset, new_text) triple. The
// client uses it for completion items that carry no textEdit, inserting
// their insertText or label at the cursor.
func CompletionEditTransaction(cursor, startOffset, endOffset int, newText string) Transaction {
	start := cursor + startOffset
	end := cursor + endOffset
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return Transaction{Changes: []Change{{Start: start, End: end, NewText: newText}}}
}
