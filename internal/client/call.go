package client

import "github.com/kestrel-editor/lsp/internal/lspproto"

// MethodCallKind tags a server-initiated request awaiting a response.
type MethodCallKind int

const (
	MethodCallWorkDoneProgressCreate MethodCallKind = iota
	MethodCallApplyWorkspaceEdit
	MethodCallWorkspaceFolders
	MethodCallWorkspaceConfiguration
	// MethodCallParseError marks a recognized method whose params
	// failed to decode: a protocol error, not an unrecognized method.
	MethodCallParseError
	MethodCallUnhandled
)

// MethodCall is a server-initiated request. At most one payload field
// is populated, selected by Kind (MethodCallWorkspaceFolders carries
// no params and has none); MethodCallUnhandled leaves all of
// them nil and sets RawMethod instead, so the editor can still respond
// with a JSON-RPC method-not-found error. MethodCallParseError sets
// ParseErr instead: the method is known, but its params didn't decode,
// so the editor should answer with an InvalidParams error rather than
// method-not-found.
type MethodCall struct {
	Kind      MethodCallKind
	ID        int64
	IDIsStr   bool
	IDStr     string
	RawMethod string
	ParseErr  *Error

	WorkDoneProgressCreate *lspproto.WorkDoneProgressCreateParams
	ApplyWorkspaceEdit     *lspproto.ApplyWorkspaceEditParams
	WorkspaceConfiguration *lspproto.ConfigurationParams
}

// NotificationKind tags a fire-and-forget inbound event. Initialized
// and Exit are never parsed off the wire; the client injects them
// itself at the matching lifecycle transition so the editor observes
// them on the same stream as genuine server notifications.
type NotificationKind int

const (
	NotificationInitialized NotificationKind = iota
	NotificationExit
	NotificationPublishDiagnostics
	NotificationShowMessage
	NotificationLogMessage
	NotificationProgress
	// NotificationParseError marks a recognized method whose params
	// failed to decode: a protocol error, not an unrecognized method.
	NotificationParseError
	NotificationUnhandled
)

// Notification is a fire-and-forget inbound event. NotificationParseError
// sets ParseErr and leaves the payload fields nil.
type Notification struct {
	Kind      NotificationKind
	RawMethod string
	ParseErr  *Error

	PublishDiagnostics *lspproto.PublishDiagnosticsParams
	ShowMessage        *lspproto.ShowMessageParams
	LogMessage         *lspproto.LogMessageParams
	Progress           *lspproto.ProgressParams
}

// Call is the tagged union placed on a client's (and, after the
// registry merges them, the registry's) inbound event stream: either a
// server-initiated method call expecting a response, or a notification.
type Call struct {
	MethodCall   *MethodCall
	Notification *Notification
}
