// Package progress tracks per-server work-done progress tokens. The
// map is local to the editor; the server is authoritative for token
// identity.
package progress

import (
	"encoding/json"
	"sync"
)

// State is a token's lifecycle: created on window/workDoneProgress/create,
// started on the first $/progress begin or report, removed on end.
type State int

const (
	Created State = iota
	Started
)

// Token identifies one progress stream, either numeric or string as LSP
// allows.
type Token struct {
	Number int
	Str    string
	IsStr  bool
}

type entry struct {
	state   State
	payload json.RawMessage
}

// Map is the two-level client_id -> token -> {Created, Started(payload)}
// mapping described by the progress tracking component.
type Map struct {
	mu      sync.Mutex
	clients map[uint64]map[Token]entry
}

// New returns an empty progress Map.
func New() *Map {
	return &Map{clients: make(map[uint64]map[Token]entry)}
}

// Create inserts token for client in state Created, in response to a
// window/workDoneProgress/create request.
func (m *Map) Create(clientID uint64, token Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	if tokens == nil {
		tokens = make(map[Token]entry)
		m.clients[clientID] = tokens
	}
	tokens[token] = entry{state: Created}
}

// Begin transitions token to Started with payload, on a $/progress
// begin or report notification.
func (m *Map) Begin(clientID uint64, token Token, payload json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	if tokens == nil {
		tokens = make(map[Token]entry)
		m.clients[clientID] = tokens
	}
	tokens[token] = entry{state: Started, payload: payload}
}

// End removes token and reports the prior state, on a $/progress end
// notification.
func (m *Map) End(clientID uint64, token Token) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	if tokens == nil {
		return 0, false
	}
	e, ok := tokens[token]
	if !ok {
		return 0, false
	}
	delete(tokens, token)
	if len(tokens) == 0 {
		delete(m.clients, clientID)
	}
	return e.state, true
}

// IsCreated reports whether token exists for client in any state.
func (m *Map) IsCreated(clientID uint64, token Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	if tokens == nil {
		return false
	}
	_, ok := tokens[token]
	return ok
}

// IsProgressing reports whether client has at least one token in
// Started state.
func (m *Map) IsProgressing(clientID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.clients[clientID] {
		if e.state == Started {
			return true
		}
	}
	return false
}

// Progress returns the last-seen payload for token, if it has started.
func (m *Map) Progress(clientID uint64, token Token) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	if tokens == nil {
		return nil, false
	}
	e, ok := tokens[token]
	if !ok || e.state != Started {
		return nil, false
	}
	return e.payload, true
}

// ProgressMap returns a snapshot of every token's current state for
// client.
func (m *Map) ProgressMap(clientID uint64) map[Token]State {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.clients[clientID]
	out := make(map[Token]State, len(tokens))
	for tok, e := range tokens {
		out[tok] = e.state
	}
	return out
}
