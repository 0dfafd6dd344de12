package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kestrel-editor/lsp/internal/jsonrpc"
)

type cancelParams struct {
	ID int64 `json:"id"`
}

// sendRequestRaw issues method/params without waiting for the ready
// signal; only initialize and shutdown call it directly, since they
// drive the lifecycle transitions that everything else waits on.
func (c *Client) sendRequestRaw(ctx context.Context, method string, params interface{}, out interface{}) error {
	id := c.pending.NextID()
	sink := c.pending.Insert(id)

	req, err := jsonrpc.MarshalRequest(id, method, params)
	if err != nil {
		c.pending.Remove(id)
		return parseError(method, err)
	}
	if err := c.transport.Send(ctx, req); err != nil {
		c.pending.Remove(id)
		return ioError(err)
	}

	timer := time.NewTimer(c.cfg.RequestTimeout())
	defer timer.Stop()

	select {
	case outcome := <-sink:
		if outcome.Err != nil {
			return rpcError(method, outcome.Err)
		}
		if out != nil && len(outcome.Result) > 0 {
			if err := json.Unmarshal(outcome.Result, out); err != nil {
				return parseError(method, err)
			}
		}
		return nil
	case <-timer.C:
		c.pending.Remove(id)
		c.cancelRequest(id)
		return timeoutError(method, id)
	case <-ctx.Done():
		c.pending.Remove(id)
		c.cancelRequest(id)
		return ioError(ctx.Err())
	case <-c.closed:
		c.pending.Remove(id)
		return streamClosedError()
	}
}

// sendNotificationRaw sends a fire-and-forget message without waiting
// for the ready signal.
func (c *Client) sendNotificationRaw(ctx context.Context, method string, params interface{}) error {
	notif, err := jsonrpc.MarshalNotification(method, params)
	if err != nil {
		return parseError(method, err)
	}
	if err := c.transport.Send(ctx, notif); err != nil {
		return ioError(err)
	}
	return nil
}

// sendRequest is the entry point every typed request operation uses:
// it suspends until the ready signal fires (unless the client is
// already Ready) before issuing the request.
func (c *Client) sendRequest(ctx context.Context, method string, params interface{}, out interface{}) error {
	if err := c.awaitReady(ctx); err != nil {
		return err
	}
	return c.sendRequestRaw(ctx, method, params, out)
}

// sendNotification is the entry point every typed notification
// operation uses.
func (c *Client) sendNotification(ctx context.Context, method string, params interface{}) error {
	if err := c.awaitReady(ctx); err != nil {
		return err
	}
	return c.sendNotificationRaw(ctx, method, params)
}

// cancelRequest sends $/cancelRequest for id, per the LSP cancellation
// contract: dropping the caller's interest in a request must still tell
// the server to stop working on it.
func (c *Client) cancelRequest(id int64) {
	_ = c.sendNotificationRaw(context.Background(), "$/cancelRequest", cancelParams{ID: id})
}
