package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/rope"
	"github.com/kestrel-editor/lsp/internal/translate"
)

// DidOpen registers uri as open under languageID with the given initial
// text and notifies the server. Reopening an already-open document
// replaces its tracked state outright.
func (c *Client) DidOpen(ctx context.Context, uri, languageID, text string) error {
	c.docsMu.Lock()
	c.docs[uri] = &documentState{rope: rope.New(text), version: 1, languageID: languageID}
	c.docsMu.Unlock()

	return c.sendNotification(ctx, "textDocument/didOpen", lspproto.DidOpenTextDocumentParams{
		TextDocument: lspproto.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       text,
		},
	})
}

// DidClose drops uri's tracked state and notifies the server.
func (c *Client) DidClose(ctx context.Context, uri string) error {
	c.docsMu.Lock()
	delete(c.docs, uri)
	c.docsMu.Unlock()

	return c.sendNotification(ctx, "textDocument/didClose", lspproto.DidCloseTextDocumentParams{
		TextDocument: lspproto.TextDocumentIdentifier{URI: uri},
	})
}

// ApplyLocalEdit folds tx into uri's tracked rope, bumps its version,
// and notifies the server using whichever sync mode it negotiated:
// a single full-text change, or one incremental change per Change in
// tx, translated back to LSP ranges in the document's offset encoding.
func (c *Client) ApplyLocalEdit(ctx context.Context, uri string, tx translate.Transaction) error {
	c.docsMu.Lock()
	doc, ok := c.docs[uri]
	if !ok {
		c.docsMu.Unlock()
		return fmt.Errorf("client: apply edit: %s is not open", uri)
	}
	oldRope := doc.rope
	newText := tx.Apply(oldRope)
	doc.rope = rope.New(newText)
	doc.version++
	version := doc.version
	c.docsMu.Unlock()

	if c.syncKind() == lspproto.TextDocumentSyncIncremental {
		enc := c.offsetEncoding()
		changes := make([]lspproto.TextDocumentContentChangeEvent, 0, len(tx.Changes))
		for _, ch := range tx.Changes {
			rng := translate.RangeToLSP(oldRope, ch.Start, ch.End, enc)
			changes = append(changes, lspproto.TextDocumentContentChangeEvent{Range: &rng, Text: ch.NewText})
		}
		return c.sendNotification(ctx, "textDocument/didChange", lspproto.DidChangeTextDocumentParams{
			TextDocument:   lspproto.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lspproto.TextDocumentIdentifier{URI: uri}, Version: version},
			ContentChanges: changes,
		})
	}

	return c.sendNotification(ctx, "textDocument/didChange", lspproto.DidChangeTextDocumentParams{
		TextDocument:   lspproto.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lspproto.TextDocumentIdentifier{URI: uri}, Version: version},
		ContentChanges: []lspproto.TextDocumentContentChangeEvent{{Text: newText}},
	})
}

// DidSave notifies the server that uri has been saved to disk.
func (c *Client) DidSave(ctx context.Context, uri string, text *string) error {
	return c.sendNotification(ctx, "textDocument/didSave", lspproto.DidSaveTextDocumentParams{
		TextDocument: lspproto.TextDocumentIdentifier{URI: uri},
		Text:         text,
	})
}

// DidChangeWatchedFiles forwards filesystem events the editor observed
// outside of its own buffers.
func (c *Client) DidChangeWatchedFiles(ctx context.Context, changes []lspproto.FileEvent) error {
	return c.sendNotification(ctx, "workspace/didChangeWatchedFiles", lspproto.DidChangeWatchedFilesParams{Changes: changes})
}

func (c *Client) docRope(uri string) (*rope.Rope, bool) {
	c.docsMu.Lock()
	defer c.docsMu.Unlock()
	doc, ok := c.docs[uri]
	if !ok {
		return nil, false
	}
	return doc.rope, true
}

func (c *Client) textDocumentPositionParams(uri string, line, character int) lspproto.TextDocumentPositionParams {
	return lspproto.TextDocumentPositionParams{
		TextDocument: lspproto.TextDocumentIdentifier{URI: uri},
		Position:     lspproto.Position{Line: line, Character: character},
	}
}

// Hover requests hover information at (line, character) in uri.
func (c *Client) Hover(ctx context.Context, uri string, line, character int) (*lspproto.Hover, error) {
	var result *lspproto.Hover
	err := c.sendRequest(ctx, "textDocument/hover", lspproto.HoverParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
	}, &result)
	return result, err
}

// Definition requests the definition sites of the symbol at
// (line, character) in uri.
func (c *Client) Definition(ctx context.Context, uri string, line, character int) ([]lspproto.Location, error) {
	return c.locationRequest(ctx, "textDocument/definition", lspproto.DefinitionParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
	})
}

// Declaration requests the declaration sites of the symbol at
// (line, character) in uri.
func (c *Client) Declaration(ctx context.Context, uri string, line, character int) ([]lspproto.Location, error) {
	return c.locationRequest(ctx, "textDocument/declaration", lspproto.DeclarationParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
	})
}

// References requests every reference to the symbol at (line, character)
// in uri, optionally including its declaration.
func (c *Client) References(ctx context.Context, uri string, line, character int, includeDeclaration bool) ([]lspproto.Location, error) {
	return c.locationRequest(ctx, "textDocument/references", lspproto.ReferenceParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
		Context:                    lspproto.ReferenceContext{IncludeDeclaration: includeDeclaration},
	})
}

// locationRequest issues method/params and decodes a result that may
// arrive as a single Location, an array of them, or null; LocationLink
// results are out of scope and are skipped rather than misparsed.
func (c *Client) locationRequest(ctx context.Context, method string, params interface{}) ([]lspproto.Location, error) {
	var raw json.RawMessage
	if err := c.sendRequest(ctx, method, params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	// A LocationLink decodes into a Location with an empty URI, since it
	// carries targetUri instead of uri; such entries are dropped.
	var list []lspproto.Location
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, loc := range list {
			if loc.URI != "" {
				out = append(out, loc)
			}
		}
		return out, nil
	}
	var single lspproto.Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []lspproto.Location{single}, nil
	}
	return nil, nil
}

// DocumentSymbol requests the symbol outline of uri.
func (c *Client) DocumentSymbol(ctx context.Context, uri string) ([]lspproto.DocumentSymbol, error) {
	var result []lspproto.DocumentSymbol
	err := c.sendRequest(ctx, "textDocument/documentSymbol", lspproto.DocumentSymbolParams{
		TextDocument: lspproto.TextDocumentIdentifier{URI: uri},
	}, &result)
	return result, err
}

// WorkspaceSymbol searches the whole workspace for symbols matching
// query.
func (c *Client) WorkspaceSymbol(ctx context.Context, query string) ([]lspproto.WorkspaceSymbol, error) {
	var result []lspproto.WorkspaceSymbol
	err := c.sendRequest(ctx, "workspace/symbol", lspproto.WorkspaceSymbolParams{Query: query}, &result)
	return result, err
}

// FoldingRange requests the foldable regions of uri.
func (c *Client) FoldingRange(ctx context.Context, uri string) ([]lspproto.FoldingRange, error) {
	var result []lspproto.FoldingRange
	err := c.sendRequest(ctx, "textDocument/foldingRange", lspproto.FoldingRangeParams{
		TextDocument: lspproto.TextDocumentIdentifier{URI: uri},
	}, &result)
	return result, err
}

// TypeHierarchyPrepare seeds a type hierarchy walk at (line, character)
// in uri.
func (c *Client) TypeHierarchyPrepare(ctx context.Context, uri string, line, character int) ([]lspproto.TypeHierarchyItem, error) {
	var result []lspproto.TypeHierarchyItem
	err := c.sendRequest(ctx, "textDocument/prepareTypeHierarchy", lspproto.TypeHierarchyPrepareParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
	}, &result)
	return result, err
}

// TypeHierarchySupertypes walks up from item.
func (c *Client) TypeHierarchySupertypes(ctx context.Context, item lspproto.TypeHierarchyItem) ([]lspproto.TypeHierarchyItem, error) {
	var result []lspproto.TypeHierarchyItem
	err := c.sendRequest(ctx, "typeHierarchy/supertypes", lspproto.TypeHierarchySupertypesParams{Item: item}, &result)
	return result, err
}

// TypeHierarchySubtypes walks down from item.
func (c *Client) TypeHierarchySubtypes(ctx context.Context, item lspproto.TypeHierarchyItem) ([]lspproto.TypeHierarchyItem, error) {
	var result []lspproto.TypeHierarchyItem
	err := c.sendRequest(ctx, "typeHierarchy/subtypes", lspproto.TypeHierarchySubtypesParams{Item: item}, &result)
	return result, err
}

// Completion requests completion candidates at (line, character) in
// uri, normalizing whichever of CompletionList or CompletionItem[] the
// server replied with.
func (c *Client) Completion(ctx context.Context, uri string, line, character int) (lspproto.CompletionList, error) {
	var raw json.RawMessage
	params := lspproto.CompletionParams{TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character)}
	if err := c.sendRequest(ctx, "textDocument/completion", params, &raw); err != nil {
		return lspproto.CompletionList{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return lspproto.CompletionList{}, nil
	}
	var list lspproto.CompletionList
	if err := json.Unmarshal(raw, &list); err == nil && (list.Items != nil || list.IsIncomplete) {
		return list, nil
	}
	var items []lspproto.CompletionItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return lspproto.CompletionList{Items: items}, nil
	}
	return lspproto.CompletionList{}, nil
}

// SignatureHelp requests signature help at (line, character) in uri.
func (c *Client) SignatureHelp(ctx context.Context, uri string, line, character int) (*lspproto.SignatureHelp, error) {
	var result *lspproto.SignatureHelp
	err := c.sendRequest(ctx, "textDocument/signatureHelp", lspproto.SignatureHelpParams{
		TextDocumentPositionParams: c.textDocumentPositionParams(uri, line, character),
	}, &result)
	return result, err
}

// ResolveCompletionEdit turns item's edit into a document transaction
// against uri's current text. It tries, in order: a plain TextEdit, an
// InsertReplaceEdit (using its Replace range), and finally insertText
// or Label inserted at cursor, matching the fallback chain completion
// items are specified to support.
func (c *Client) ResolveCompletionEdit(uri string, item lspproto.CompletionItem, cursorLine, cursorCharacter int) (translate.Transaction, bool) {
	r, ok := c.docRope(uri)
	if !ok {
		return translate.Transaction{}, false
	}
	enc := c.offsetEncoding()

	if len(item.TextEdit) > 0 {
		// Only an object with a "range" field is a plain TextEdit; an
		// InsertReplaceEdit would otherwise decode as one with a zero range.
		var edit struct {
			Range   *lspproto.Range `json:"range"`
			NewText string          `json:"newText"`
		}
		if err := json.Unmarshal(item.TextEdit, &edit); err == nil && edit.Range != nil {
			textEdit := lspproto.TextEdit{Range: *edit.Range, NewText: edit.NewText}
			return translate.EditsToTransaction(r, []lspproto.TextEdit{textEdit}, enc), true
		}
		var insertReplace lspproto.InsertReplaceEdit
		if err := json.Unmarshal(item.TextEdit, &insertReplace); err == nil {
			edit := lspproto.TextEdit{Range: insertReplace.Replace, NewText: insertReplace.NewText}
			return translate.EditsToTransaction(r, []lspproto.TextEdit{edit}, enc), true
		}
	}

	text := item.InsertText
	if text == "" {
		text = item.Label
	}
	cursor, ok := translate.PosToChar(r, lspproto.Position{Line: cursorLine, Character: cursorCharacter}, enc)
	if !ok {
		return translate.Transaction{}, false
	}
	return translate.CompletionEditTransaction(cursor, 0, 0, text), true
}
