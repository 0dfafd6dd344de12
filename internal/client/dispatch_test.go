package client

import (
	"encoding/json"
	"testing"

	"github.com/kestrel-editor/lsp/internal/jsonrpc"
	"github.com/kestrel-editor/lsp/internal/logger"
	"github.com/kestrel-editor/lsp/internal/progress"
)

func testClient() *Client {
	return &Client{ID: 1, log: &logger.NullLogger{}, progress: progress.New()}
}

func TestParseMethodCallWorkDoneProgressCreate(t *testing.T) {
	c := testClient()
	env := jsonrpc.Envelope{
		Kind:   jsonrpc.KindRequest,
		ID:     7,
		Method: "window/workDoneProgress/create",
		Params: json.RawMessage(`{"token":"abc"}`),
	}

	mc := c.parseMethodCall(env)
	if mc.Kind != MethodCallWorkDoneProgressCreate {
		t.Fatalf("expected MethodCallWorkDoneProgressCreate, got %v", mc.Kind)
	}
	if mc.WorkDoneProgressCreate == nil || mc.WorkDoneProgressCreate.Token.Str != "abc" {
		t.Fatalf("expected token abc, got %+v", mc.WorkDoneProgressCreate)
	}
	if !c.progress.IsCreated(1, progress.Token{Str: "abc", IsStr: true}) {
		t.Fatal("expected progress map to record the created token")
	}
}

func TestParseMethodCallUnhandledPreservesRawMethod(t *testing.T) {
	c := testClient()
	env := jsonrpc.Envelope{Kind: jsonrpc.KindRequest, ID: 3, Method: "workspace/unknownThing"}

	mc := c.parseMethodCall(env)
	if mc.Kind != MethodCallUnhandled {
		t.Fatalf("expected MethodCallUnhandled, got %v", mc.Kind)
	}
	if mc.RawMethod != "workspace/unknownThing" {
		t.Fatalf("expected RawMethod preserved, got %q", mc.RawMethod)
	}
}

func TestParseMethodCallKnownMethodBadParamsIsParseErrorNotUnhandled(t *testing.T) {
	c := testClient()
	env := jsonrpc.Envelope{
		Kind:   jsonrpc.KindRequest,
		ID:     9,
		Method: "workspace/configuration",
		Params: json.RawMessage(`"not an object"`),
	}

	mc := c.parseMethodCall(env)
	if mc.Kind != MethodCallParseError {
		t.Fatalf("expected MethodCallParseError, got %v", mc.Kind)
	}
	if mc.ParseErr == nil {
		t.Fatal("expected ParseErr to be populated")
	}
	if mc.RawMethod != "workspace/configuration" {
		t.Fatalf("expected RawMethod preserved, got %q", mc.RawMethod)
	}
}

func TestParseNotificationKnownMethodBadParamsIsParseErrorNotUnhandled(t *testing.T) {
	c := testClient()
	env := jsonrpc.Envelope{
		Kind:   jsonrpc.KindNotification,
		Method: "textDocument/publishDiagnostics",
		Params: json.RawMessage(`"not an object"`),
	}

	n := c.parseNotification(env)
	if n.Kind != NotificationParseError {
		t.Fatalf("expected NotificationParseError, got %v", n.Kind)
	}
	if n.ParseErr == nil {
		t.Fatal("expected ParseErr to be populated")
	}
}

func TestParseNotificationPublishDiagnostics(t *testing.T) {
	c := testClient()
	env := jsonrpc.Envelope{
		Kind:   jsonrpc.KindNotification,
		Method: "textDocument/publishDiagnostics",
		Params: json.RawMessage(`{"uri":"file:///a.go","diagnostics":[]}`),
	}

	n := c.parseNotification(env)
	if n.Kind != NotificationPublishDiagnostics {
		t.Fatalf("expected NotificationPublishDiagnostics, got %v", n.Kind)
	}
	if n.PublishDiagnostics.URI != "file:///a.go" {
		t.Fatalf("expected uri to round-trip, got %q", n.PublishDiagnostics.URI)
	}
}

func TestApplyProgressTransitionsBeginToEnd(t *testing.T) {
	c := testClient()
	token := progress.Token{Number: 5}
	c.progress.Create(1, token)

	begin := jsonrpc.Envelope{
		Kind:   jsonrpc.KindNotification,
		Method: "$/progress",
		Params: json.RawMessage(`{"token":5,"value":{"kind":"begin","title":"indexing"}}`),
	}
	c.parseNotification(begin)
	if !c.progress.IsProgressing(1) {
		t.Fatal("expected progress to be Started after a begin payload")
	}

	end := jsonrpc.Envelope{
		Kind:   jsonrpc.KindNotification,
		Method: "$/progress",
		Params: json.RawMessage(`{"token":5,"value":{"kind":"end"}}`),
	}
	c.parseNotification(end)
	if c.progress.IsProgressing(1) {
		t.Fatal("expected progress to be cleared after an end payload")
	}
}

func TestHandleResponseDiscardsUnknownID(t *testing.T) {
	c := testClient()
	c.pending = jsonrpc.NewPendingTable()

	// No entry was ever inserted for id 99, so this must not panic and
	// must simply be logged and discarded.
	c.handleResponse(jsonrpc.Envelope{Kind: jsonrpc.KindResponse, ID: 99})
}
