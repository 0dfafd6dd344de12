// Package client owns one language-server process: its transport, its
// lifecycle state machine, its cached capabilities, and the typed
// operations the editor calls.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kestrel-editor/lsp/internal/config"
	"github.com/kestrel-editor/lsp/internal/jsonrpc"
	"github.com/kestrel-editor/lsp/internal/logger"
	"github.com/kestrel-editor/lsp/internal/lspproto"
	"github.com/kestrel-editor/lsp/internal/progress"
	"github.com/kestrel-editor/lsp/internal/rope"
	"github.com/kestrel-editor/lsp/internal/translate"
	"github.com/kestrel-editor/lsp/internal/workspace"
)

// Client owns one server process and its transport.
type Client struct {
	ID  uint64
	cfg config.Language
	log logger.Logger

	cmd       *exec.Cmd
	transport *jsonrpc.Transport
	pending   *jsonrpc.PendingTable

	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{} // closed once the transport has fully drained

	stateMu sync.RWMutex
	state   State

	readyOnce sync.Once
	readyCh   chan struct{}
	initErr   error
	initGroup singleflight.Group

	capsMu   sync.RWMutex
	caps     *lspproto.ServerCapabilities
	encoding translate.OffsetEncoding

	docsMu sync.Mutex
	docs   map[string]*documentState

	progress *progress.Map
	events   chan Call
	rootURI  string
}

type documentState struct {
	rope       *rope.Rope
	version    int
	languageID string
}

// Spawn launches cfg's command as a child process, wires its stdio to a
// Transport, and asynchronously drives the initialize/initialized
// handshake; the returned Client is usable immediately (operations
// suspend until the ready signal fires).
func Spawn(ctx context.Context, id uint64, cfg config.Language, processID int, startDir string, log logger.Logger, prog *progress.Map) (*Client, error) {
	if log == nil {
		log = &logger.NullLogger{}
	}

	rootDir, err := workspace.ResolveRoots(startDir, cfg.RootMarkers)
	if err != nil {
		return nil, ioError(fmt.Errorf("resolving workspace root: %w", err))
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = rootDir
	cmd.Env = overlayEnv(cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, ioError(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ioError(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, ioError(err)
	}

	if err := cmd.Start(); err != nil {
		return nil, ioError(fmt.Errorf("starting %s: %w", cfg.Command, err))
	}

	clientCtx, cancel := context.WithCancel(ctx)
	transport := jsonrpc.NewTransport(clientCtx, stdin, stdout, stderr)

	c := &Client{
		ID:        id,
		cfg:       cfg,
		log:       log,
		cmd:       cmd,
		transport: transport,
		pending:   jsonrpc.NewPendingTable(),
		ctx:       clientCtx,
		cancel:    cancel,
		closed:    make(chan struct{}),
		state:     Spawning,
		readyCh:   make(chan struct{}),
		encoding:  translate.UTF16,
		docs:      make(map[string]*documentState),
		progress:  prog,
		events:    make(chan Call, 64),
		rootURI:   workspace.ToFileURI(rootDir),
	}

	c.setState(Initializing)
	go c.dispatchLoop()
	go c.forwardStderr()
	go c.runInitialize(clientCtx, processID)

	return c, nil
}

func overlayEnv(additions map[string]string) []string {
	env := os.Environ()
	for k, v := range additions {
		env = append(env, k+"="+v)
	}
	return env
}

// Events is the client's inbound stream of server-initiated calls and
// notifications, in wire order.
func (c *Client) Events() <-chan Call { return c.events }

// State returns the client's current lifecycle state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Capabilities returns the cached server capabilities, populated
// exactly once by a successful initialize response.
func (c *Client) Capabilities() (*lspproto.ServerCapabilities, bool) {
	c.capsMu.RLock()
	defer c.capsMu.RUnlock()
	return c.caps, c.caps != nil
}

// offsetEncoding returns the negotiated position encoding, defaulting
// to UTF-16 before initialize completes.
func (c *Client) offsetEncoding() translate.OffsetEncoding {
	c.capsMu.RLock()
	defer c.capsMu.RUnlock()
	return c.encoding
}

// awaitReady suspends until the ready signal fires. Concurrent callers
// collapse onto the single in-flight wait via initGroup, so they all
// observe the same outcome once initialize completes, matching the
// write-once semantics of the capabilities cell.
func (c *Client) awaitReady(ctx context.Context) error {
	if c.State() == Ready {
		return nil
	}
	_, err, _ := c.initGroup.Do("ready", func() (interface{}, error) {
		select {
		case <-c.readyCh:
			return nil, c.initErr
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.closed:
			return nil, streamClosedError()
		}
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return err
		}
		return ioError(err)
	}
	return nil
}

func (c *Client) runInitialize(ctx context.Context, processID int) {
	params := c.buildInitializeParams(processID)

	var result lspproto.InitializeResult
	err := c.sendRequestRaw(ctx, "initialize", params, &result)
	if err == nil {
		c.capsMu.Lock()
		c.caps = &result.Capabilities
		c.encoding = translate.ParseOffsetEncoding(result.Capabilities.PositionEncoding)
		c.capsMu.Unlock()

		if notifyErr := c.sendNotificationRaw(ctx, "initialized", lspproto.InitializedParams{}); notifyErr != nil {
			err = notifyErr
		}
	}

	c.initErr = err
	if err == nil {
		c.setState(Ready)
	}
	c.readyOnce.Do(func() { close(c.readyCh) })

	if err != nil {
		c.log.Error("client %d: initialize failed: %v", c.ID, err)
		return
	}
	c.pushEvent(Call{Notification: &Notification{Kind: NotificationInitialized}})
}

func (c *Client) buildInitializeParams(processID int) lspproto.InitializeParams {
	pid := processID
	rootURI := c.rootURI
	return lspproto.InitializeParams{
		ProcessID: &pid,
		RootURI:   &rootURI,
		WorkspaceFolders: []lspproto.WorkspaceFolder{
			{URI: c.rootURI, Name: c.cfg.Scope},
		},
		InitializationOptions: json.RawMessage(c.cfg.InitializationOptions),
		Trace:                 "off",
		ClientInfo:            &lspproto.ClientInfo{Name: "kestrel"},
		Capabilities: lspproto.ClientCapabilities{
			General: lspproto.GeneralClientCapabilities{
				PositionEncodings: []string{"utf-16", "utf-8", "utf-32"},
			},
			Window: lspproto.WindowClientCapabilities{WorkDoneProgress: true},
			Workspace: lspproto.WorkspaceClientCapabilities{
				WorkspaceFolders: true,
				Configuration:    true,
				ApplyEdit:        true,
				Symbol:           lspproto.WorkspaceSymbolClientCapabilities{},
				DidChangeWatchedFiles: lspproto.DidChangeWatchedFilesClientCapabilities{
					DynamicRegistration: false,
				},
			},
			TextDocument: lspproto.TextDocumentClientCapabilities{
				Synchronization: lspproto.TextDocumentSyncClientCapabilities{DidSave: true},
				Hover: lspproto.HoverClientCapabilities{
					ContentFormat: []string{"markdown", "plaintext"},
				},
				Completion: lspproto.CompletionClientCapabilities{},
				Definition: lspproto.DefinitionClientCapabilities{LinkSupport: false},
				References: lspproto.ReferencesClientCapabilities{},
				DocumentSymbol: lspproto.DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
				},
				FoldingRange: lspproto.FoldingRangeClientCapabilities{
					RangeLimit: 5000,
				},
				TypeHierarchy:      lspproto.TypeHierarchyClientCapabilities{},
				PublishDiagnostics: lspproto.PublishDiagnosticsClientCapabilities{RelatedInformation: true},
			},
		},
	}
}

// pushEvent never blocks indefinitely: a reader that stops draining
// Events after a client has exited must not wedge this goroutine.
func (c *Client) pushEvent(call Call) {
	select {
	case c.events <- call:
	default:
	}
}

func (c *Client) forwardStderr() {
	for line := range c.transport.Stderr() {
		c.log.Info("%s", line)
	}
}

// syncKind reports the negotiated text document sync mode, defaulting
// to full sync when the server's declared capability can't be parsed
// as either a bare number or a TextDocumentSyncOptions object.
func (c *Client) syncKind() int {
	caps, ok := c.Capabilities()
	if !ok || len(caps.TextDocumentSync) == 0 {
		return lspproto.TextDocumentSyncFull
	}
	var asNumber int
	if err := json.Unmarshal(caps.TextDocumentSync, &asNumber); err == nil {
		return asNumber
	}
	var asOptions struct {
		Change int `json:"change"`
	}
	if err := json.Unmarshal(caps.TextDocumentSync, &asOptions); err == nil {
		return asOptions.Change
	}
	return lspproto.TextDocumentSyncFull
}

// Shutdown drives the graceful Ready -> ShuttingDown -> Exited path:
// a best-effort shutdown request bounded by a short timeout, then an
// exit notification, then reaping the process (killing it if it
// doesn't exit promptly).
func (c *Client) Shutdown(ctx context.Context) error {
	c.setState(ShuttingDown)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.sendRequestRaw(shutdownCtx, "shutdown", lspproto.ShutdownParams{}, nil); err != nil {
		c.log.Info("client %d: shutdown request: %v", c.ID, err)
	}
	_ = c.sendNotificationRaw(ctx, "exit", lspproto.ExitParams{})

	return c.reap()
}

// ForceStop tears the client down without a graceful handshake, used by
// the registry when replacing or stopping a client out from under any
// in-flight work.
func (c *Client) ForceStop() error {
	c.setState(ShuttingDown)
	c.cancel()
	return c.reap()
}

func (c *Client) reap() error {
	_ = c.transport.Close()
	transportErr := c.transport.Wait()
	<-c.closed // dispatchLoop closes this once transport.Events() drains

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = c.cmd.Process.Kill()
		<-done
	}

	c.setState(Exited)
	c.pushEvent(Call{Notification: &Notification{Kind: NotificationExit}})

	if transportErr != nil && transportErr != jsonrpc.ErrStreamClosed {
		return ioError(transportErr)
	}
	return nil
}
