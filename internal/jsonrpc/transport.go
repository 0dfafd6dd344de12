package jsonrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"golang.org/x/sync/errgroup"
)

// outboundFrame is whatever the writer task serializes next: a request,
// a notification, or a raw response this side sends back to a
// server-initiated call.
type outboundFrame struct {
	payload interface{}
}

// Transport turns a child process's stdin/stdout/stderr into a send
// sink of encoded JSON-RPC frames, a receive stream of decoded
// Envelopes, and a best-effort line-by-line stderr log. The reader and
// writer run as two independent tasks that never share state beyond the
// underlying file descriptors; they communicate with callers only
// through channels.
type Transport struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	out    chan outboundFrame
	events chan Envelope
	lines  chan string

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewTransport starts the reader, writer, and stderr-forwarding tasks
// over the given pipes and returns immediately; callers consume Events
// and Stderr and call Wait to learn when the reader, writer, and
// stderr tasks have all stopped.
func NewTransport(ctx context.Context, stdin io.WriteCloser, stdout, stderr io.ReadCloser) *Transport {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	t := &Transport{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		out:    make(chan outboundFrame, 256),
		events: make(chan Envelope, 256),
		lines:  make(chan string, 64),
		group:  group,
		cancel: cancel,
	}

	group.Go(func() error { return t.readLoop() })
	group.Go(func() error { return t.writeLoop(ctx) })
	if stderr != nil {
		group.Go(func() error { return t.stderrLoop() })
	}

	return t
}

// Events is the stream of decoded inbound messages, in wire order.
func (t *Transport) Events() <-chan Envelope { return t.events }

// Stderr is the best-effort line-by-line forwarding of the child
// process's standard error.
func (t *Transport) Stderr() <-chan string { return t.lines }

// Send enqueues an outbound message for the writer task. It returns
// once the frame is accepted onto the (effectively unbounded, given the
// buffer size used in practice) writer channel, not once it has been
// written; ctx cancellation only affects backpressure while the channel
// is momentarily full.
func (t *Transport) Send(ctx context.Context, payload interface{}) error {
	select {
	case t.out <- outboundFrame{payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals the writer loop to stop and closes the child's stdin.
// The reader keeps running until the child closes its stdout; Wait then
// reports ErrStreamClosed or the first real I/O error observed.
func (t *Transport) Close() error {
	t.cancel()
	close(t.out)
	return t.stdin.Close()
}

// Wait blocks until the reader, writer, and stderr tasks have terminated
// and returns the first error any of them observed. A clean shutdown
// (stdout EOF after Close was called) surfaces as ErrStreamClosed.
func (t *Transport) Wait() error {
	return t.group.Wait()
}

func (t *Transport) readLoop() error {
	defer close(t.events)
	r := bufio.NewReader(t.stdout)
	for {
		payload, err := readFrame(r)
		if err != nil {
			return err
		}
		env, err := decodeFrame(payload)
		if err != nil {
			// A frame whose body is not a decodable JSON-RPC message is
			// dropped; keep reading rather than tearing down the
			// transport over one bad frame.
			continue
		}
		t.events <- env
	}
}

func (t *Transport) writeLoop(ctx context.Context) error {
	for {
		select {
		case frame, ok := <-t.out:
			if !ok {
				return nil
			}
			if err := writeFrame(t.stdin, frame.payload); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *Transport) stderrLoop() error {
	defer close(t.lines)
	scanner := bufio.NewScanner(t.stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		t.lines <- scanner.Text()
	}
	return scanner.Err()
}

// MarshalRequest builds the wire Request for method/params under id.
func MarshalRequest(id int64, method string, params interface{}) (Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, err
	}
	return Request{Jsonrpc: "2.0", ID: id, Method: method, Params: raw}, nil
}

// MarshalNotification builds the wire Notification for method/params.
func MarshalNotification(method string, params interface{}) (Notification, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Notification{}, err
	}
	return Notification{Jsonrpc: "2.0", Method: method, Params: raw}, nil
}

// responseOut is the wire shape for a response this side sends back to
// a server-initiated request; unlike Response, its ID is re-encoded in
// whatever form (number or string) the original request used.
type responseOut struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// MarshalResponse builds the wire response to a server-initiated
// request identified by (idNum, idIsStr, idStr). Exactly one of result
// or rpcErr should be non-nil.
func MarshalResponse(idNum int64, idIsStr bool, idStr string, result interface{}, rpcErr *ResponseError) (interface{}, error) {
	var idRaw json.RawMessage
	var err error
	if idIsStr {
		idRaw, err = json.Marshal(idStr)
	} else {
		idRaw, err = json.Marshal(idNum)
	}
	if err != nil {
		return nil, err
	}

	out := responseOut{Jsonrpc: "2.0", ID: idRaw, Error: rpcErr}
	if rpcErr == nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		out.Result = raw
	}
	return out, nil
}
