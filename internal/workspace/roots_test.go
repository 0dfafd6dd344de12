package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRootsFindsMarkerInAncestor(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, "go.mod"), []byte("module x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tmp, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveRoots(nested, []string{"go.mod", ".git"})
	if err != nil {
		t.Fatal(err)
	}
	wantAbs, _ := filepath.Abs(tmp)
	if got != wantAbs {
		t.Fatalf("ResolveRoots() = %q, want %q", got, wantAbs)
	}
}

func TestResolveRootsFallsBackToStartDir(t *testing.T) {
	tmp := t.TempDir()
	got, err := ResolveRoots(tmp, []string{"nonexistent-marker-xyz"})
	if err != nil {
		t.Fatal(err)
	}
	wantAbs, _ := filepath.Abs(tmp)
	if got != wantAbs {
		t.Fatalf("ResolveRoots() = %q, want %q", got, wantAbs)
	}
}

func TestFileURIRoundTrip(t *testing.T) {
	path := "/tmp/some/project/main.go"
	uri := ToFileURI(path)
	back, err := FromFileURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if back != path {
		t.Fatalf("round trip = %q, want %q", back, path)
	}
}
