package client

import (
	"context"
	"encoding/json"

	"github.com/kestrel-editor/lsp/internal/jsonrpc"
	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/progress"
)

// dispatchLoop reads every decoded inbound frame in wire order and
// routes it: responses complete the pending table, requests and
// notifications are parsed into the Call union and pushed to Events.
func (c *Client) dispatchLoop() {
	defer close(c.closed)

	for env := range c.transport.Events() {
		switch env.Kind {
		case jsonrpc.KindResponse:
			c.handleResponse(env)
		case jsonrpc.KindRequest:
			c.pushEvent(Call{MethodCall: c.parseMethodCall(env)})
		case jsonrpc.KindNotification:
			if n := c.parseNotification(env); n != nil {
				c.pushEvent(Call{Notification: n})
			}
		}
	}
}

func (c *Client) handleResponse(env jsonrpc.Envelope) {
	if !c.pending.Resolve(env.ID, env.Result, env.Error) {
		// Either a late response after timeout/cancellation, or an
		// unknown identifier. Both are logged and discarded, never
		// treated as an error.
		c.log.Debug("client %d: discarding response for unknown or expired id %d", c.ID, env.ID)
	}
}

func (c *Client) parseMethodCall(env jsonrpc.Envelope) *MethodCall {
	mc := &MethodCall{ID: env.ID, IDIsStr: env.IDIsStr, IDStr: env.IDStr, RawMethod: env.Method}

	switch env.Method {
	case "window/workDoneProgress/create":
		var params lspproto.WorkDoneProgressCreateParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			mc.Kind, mc.ParseErr = MethodCallParseError, parseError(env.Method, err)
			return mc
		}
		mc.Kind = MethodCallWorkDoneProgressCreate
		mc.WorkDoneProgressCreate = &params
		if c.progress != nil {
			c.progress.Create(c.ID, progressToken(params.Token))
		}
	case "workspace/applyEdit":
		var params lspproto.ApplyWorkspaceEditParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			mc.Kind, mc.ParseErr = MethodCallParseError, parseError(env.Method, err)
			return mc
		}
		mc.Kind = MethodCallApplyWorkspaceEdit
		mc.ApplyWorkspaceEdit = &params
	case "workspace/workspaceFolders":
		mc.Kind = MethodCallWorkspaceFolders
	case "workspace/configuration":
		var params lspproto.ConfigurationParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			mc.Kind, mc.ParseErr = MethodCallParseError, parseError(env.Method, err)
			return mc
		}
		mc.Kind = MethodCallWorkspaceConfiguration
		mc.WorkspaceConfiguration = &params
	default:
		mc.Kind = MethodCallUnhandled
	}
	return mc
}

func (c *Client) parseNotification(env jsonrpc.Envelope) *Notification {
	switch env.Method {
	case "textDocument/publishDiagnostics":
		var params lspproto.PublishDiagnosticsParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			return &Notification{Kind: NotificationParseError, RawMethod: env.Method, ParseErr: parseError(env.Method, err)}
		}
		return &Notification{Kind: NotificationPublishDiagnostics, PublishDiagnostics: &params}
	case "window/showMessage":
		var params lspproto.ShowMessageParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			return &Notification{Kind: NotificationParseError, RawMethod: env.Method, ParseErr: parseError(env.Method, err)}
		}
		return &Notification{Kind: NotificationShowMessage, ShowMessage: &params}
	case "window/logMessage":
		var params lspproto.LogMessageParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			return &Notification{Kind: NotificationParseError, RawMethod: env.Method, ParseErr: parseError(env.Method, err)}
		}
		return &Notification{Kind: NotificationLogMessage, LogMessage: &params}
	case "$/progress":
		var params lspproto.ProgressParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.Error("client %d: parsing %s: %v", c.ID, env.Method, err)
			return &Notification{Kind: NotificationParseError, RawMethod: env.Method, ParseErr: parseError(env.Method, err)}
		}
		c.applyProgress(params)
		return &Notification{Kind: NotificationProgress, Progress: &params}
	default:
		return &Notification{Kind: NotificationUnhandled, RawMethod: env.Method}
	}
}

func (c *Client) applyProgress(params lspproto.ProgressParams) {
	if c.progress == nil {
		return
	}
	token := progressToken(params.Token)
	var kind struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(params.Value, &kind); err != nil {
		return
	}
	switch kind.Kind {
	case "begin", "report":
		c.progress.Begin(c.ID, token, params.Value)
	case "end":
		c.progress.End(c.ID, token)
	}
}

func progressToken(t lspproto.ProgressToken) progress.Token {
	return progress.Token{Number: t.Number, Str: t.Str, IsStr: t.IsStr}
}

// Respond answers a server-initiated request carried by mc. Exactly one
// of result or rpcErr should be supplied; an unhandled method should be
// answered with RespondMethodNotFound and a method whose params failed
// to decode with RespondInvalidParams, so the server isn't left
// waiting.
func (c *Client) Respond(ctx context.Context, mc *MethodCall, result interface{}, rpcErr *jsonrpc.ResponseError) error {
	payload, err := jsonrpc.MarshalResponse(mc.ID, mc.IDIsStr, mc.IDStr, result, rpcErr)
	if err != nil {
		return parseError(mc.RawMethod, err)
	}
	return c.transport.Send(c.ctx, payload)
}

// RespondMethodNotFound answers mc with a JSON-RPC MethodNotFound
// error, for a server-initiated call this side doesn't recognize.
func (c *Client) RespondMethodNotFound(ctx context.Context, mc *MethodCall) error {
	werr := unhandledError(mc.RawMethod)
	return c.Respond(ctx, mc, nil, &jsonrpc.ResponseError{
		Code:    jsonrpc.MethodNotFound,
		Message: werr.Error(),
	})
}

// RespondInvalidParams answers mc, a recognized method whose params
// failed to decode (mc.Kind == MethodCallParseError), with a JSON-RPC
// InvalidParams error rather than claiming the method doesn't exist.
func (c *Client) RespondInvalidParams(ctx context.Context, mc *MethodCall) error {
	message := "invalid params"
	if mc.ParseErr != nil {
		message = mc.ParseErr.Error()
	}
	return c.Respond(ctx, mc, nil, &jsonrpc.ResponseError{
		Code:    jsonrpc.InvalidParams,
		Message: message,
	})
}
