package registry

import (
	"context"
	"testing"

	"github.com/kestrel-editor/lsp/internal/config"
)

// catConfig uses "cat" as a stand-in server process: it never speaks
// JSON-RPC, but it starts instantly and exits cleanly on stdin EOF,
// which is all registry bookkeeping needs without waiting on a real
// initialize handshake.
func catConfig(scope string) config.Language {
	return config.Language{Scope: scope, Command: "cat"}
}

func TestGetReturnsSameClientForSameScope(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	cfg := catConfig("go")
	c1, id1, ok, err := r.Get(context.Background(), cfg, "/tmp")
	if err != nil || !ok {
		t.Fatalf("Get: err=%v ok=%v", err, ok)
	}
	c2, id2, ok, err := r.Get(context.Background(), cfg, "/tmp")
	if err != nil || !ok {
		t.Fatalf("second Get: err=%v ok=%v", err, ok)
	}
	if c1 != c2 || id1 != id2 {
		t.Fatalf("expected the same client and id, got (%p,%d) and (%p,%d)", c1, id1, c2, id2)
	}
}

func TestGetAbsentWithoutCommand(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	_, _, ok, err := r.Get(context.Background(), config.Language{Scope: "nothing"}, "/tmp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a scope with no configured server")
	}
}

func TestDistinctScopesGetDistinctIDs(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	_, id1, _, err := r.Get(context.Background(), catConfig("go"), "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	_, id2, _, err := r.Get(context.Background(), catConfig("rust"), "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct ids, both got %d", id1)
	}
}

func TestStopRemovesEntry(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	cfg := catConfig("go")
	_, id, _, err := r.Get(context.Background(), cfg, "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	r.Stop(cfg)

	if _, ok := r.GetByID(id); ok {
		t.Fatal("expected client to be removed after Stop")
	}
}

func TestRestartAssignsNewID(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	cfg := catConfig("go")
	_, oldID, _, err := r.Get(context.Background(), cfg, "/tmp")
	if err != nil {
		t.Fatal(err)
	}

	_, newID, err := r.Restart(context.Background(), cfg, "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if newID == oldID {
		t.Fatal("expected restart to assign a new identifier")
	}
	if _, ok := r.GetByID(oldID); ok {
		t.Fatal("expected old entry to be gone after restart")
	}
	if _, ok := r.GetByID(newID); !ok {
		t.Fatal("expected new entry to be present after restart")
	}
}

func TestRestartWithoutExistingEntryFails(t *testing.T) {
	r := New(nil, nil)
	defer r.Shutdown()

	if _, _, err := r.Restart(context.Background(), catConfig("go"), "/tmp"); err == nil {
		t.Fatal("expected restart to fail when no entry exists")
	}
}
