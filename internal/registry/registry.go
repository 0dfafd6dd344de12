// Package registry arbitrates one client process per language scope
// and exposes a single merged inbound event stream to the editor, the
// way a daemon process arbitrates one backend process per project.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-editor/lsp/internal/client"
	"github.com/kestrel-editor/lsp/internal/config"
	"github.com/kestrel-editor/lsp/internal/logger"
	"github.com/kestrel-editor/lsp/internal/progress"
)

// Event pairs an inbound Call with the client that produced it, since
// the merged stream interleaves more than one client.
type Event struct {
	ClientID uint64
	Call     client.Call
}

// Handle is a snapshot entry returned by IterClients.
type Handle struct {
	ID     uint64
	Client *client.Client
}

type entry struct {
	id     uint64
	client *client.Client
}

// Registry owns at most one client per scope and hands each client's
// inbound stream off to its own fan-in goroutine, all feeding one merged
// channel, so the editor only ever reads from one channel.
type Registry struct {
	nextID uint64

	mu      sync.Mutex
	byScope map[string]*entry
	byID    map[uint64]*entry

	merged chan Event

	log      logger.Logger
	progress *progress.Map
}

// New returns an empty Registry. The progress map is shared across
// every client it spawns.
func New(log logger.Logger, prog *progress.Map) *Registry {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Registry{
		byScope:  make(map[string]*entry),
		byID:     make(map[uint64]*entry),
		merged:   make(chan Event, 256),
		log:      log,
		progress: prog,
	}
}

// Events is the registry's merged inbound stream. Order across clients
// is not guaranteed; within one client it matches that client's wire
// order.
func (r *Registry) Events() <-chan Event { return r.merged }

// Get returns the shared client for cfg.Scope, spawning one against
// docPath's workspace if none exists yet. ok is false when cfg names no
// server command, matching "returns absent when the language has no
// configured server".
func (r *Registry) Get(ctx context.Context, cfg config.Language, docPath string) (*client.Client, uint64, bool, error) {
	if cfg.Command == "" {
		return nil, 0, false, nil
	}

	r.mu.Lock()
	if e, ok := r.byScope[cfg.Scope]; ok {
		r.mu.Unlock()
		return e.client, e.id, true, nil
	}
	r.mu.Unlock()

	id := atomic.AddUint64(&r.nextID, 1)
	c, err := client.Spawn(ctx, id, cfg, 0, docPath, r.log, r.progress)
	if err != nil {
		return nil, 0, false, fmt.Errorf("registry: spawning %s client: %w", cfg.Scope, err)
	}

	e := &entry{id: id, client: c}
	r.mu.Lock()
	r.byScope[cfg.Scope] = e
	r.byID[id] = e
	r.mu.Unlock()

	go r.fanIn(id, c)
	return c, id, true, nil
}

// Restart replaces the client for cfg.Scope, if one exists, with a
// freshly spawned one carrying a new identifier, and asynchronously
// force-shuts-down the old client. It returns an error, and spawns
// nothing, if no entry exists.
func (r *Registry) Restart(ctx context.Context, cfg config.Language, docPath string) (*client.Client, uint64, error) {
	r.mu.Lock()
	old, ok := r.byScope[cfg.Scope]
	r.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("registry: no client for scope %q to restart", cfg.Scope)
	}

	id := atomic.AddUint64(&r.nextID, 1)
	c, err := client.Spawn(ctx, id, cfg, 0, docPath, r.log, r.progress)
	if err != nil {
		return nil, 0, fmt.Errorf("registry: spawning replacement %s client: %w", cfg.Scope, err)
	}

	e := &entry{id: id, client: c}
	r.mu.Lock()
	r.byScope[cfg.Scope] = e
	r.byID[id] = e
	delete(r.byID, old.id)
	r.mu.Unlock()

	go r.fanIn(id, c)
	go func() {
		if err := old.client.ForceStop(); err != nil {
			r.log.Info("registry: stopping replaced client %d: %v", old.id, err)
		}
	}()

	return c, id, nil
}

// Stop removes the entry for cfg.Scope, if any, and asynchronously
// force-shuts-down its client.
func (r *Registry) Stop(cfg config.Language) {
	r.mu.Lock()
	e, ok := r.byScope[cfg.Scope]
	if ok {
		delete(r.byScope, cfg.Scope)
		delete(r.byID, e.id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	go func() {
		if err := e.client.ForceStop(); err != nil {
			r.log.Info("registry: stopping client %d: %v", e.id, err)
		}
	}()
}

// GetByID looks up a client by its registry-assigned identifier.
func (r *Registry) GetByID(id uint64) (*client.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// RemoveByID removes the entry for id without stopping its client,
// for callers that have already torn the client down themselves.
func (r *Registry) RemoveByID(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	for scope, se := range r.byScope {
		if se.id == id {
			delete(r.byScope, scope)
		}
	}
	return true
}

// IterClients returns a snapshot of every currently registered client.
func (r *Registry) IterClients() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, Handle{ID: e.id, Client: e.client})
	}
	return out
}

// Shutdown force-stops every registered client concurrently and waits
// for them all, fanning out the same way the transport fans its
// reader/writer tasks out over an errgroup.
func (r *Registry) Shutdown() error {
	handles := r.IterClients()

	group := &errgroup.Group{}
	for _, h := range handles {
		h := h
		group.Go(func() error { return h.Client.ForceStop() })
	}
	err := group.Wait()

	r.mu.Lock()
	r.byScope = make(map[string]*entry)
	r.byID = make(map[uint64]*entry)
	r.mu.Unlock()

	return err
}

func (r *Registry) fanIn(id uint64, c *client.Client) {
	for call := range c.Events() {
		select {
		case r.merged <- Event{ClientID: id, Call: call}:
		default:
		}
	}
}
