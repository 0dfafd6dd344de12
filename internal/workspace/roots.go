// Package workspace resolves workspace root directories for a document
// given a set of configured root markers.
package workspace

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// ResolveRoots walks up from startDir looking for any of markers,
// returning the first directory (searching outward from startDir) that
// contains one. When no marker is found, it returns startDir itself: a
// language server with no matching marker still gets a root, just the
// document's own directory, rather than failing to spawn.
func ResolveRoots(startDir string, markers []string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("workspace: resolving fallback root: %w", err)
	}
	return abs, nil
}

// ToFileURI converts an absolute filesystem path to a file:// URI, the
// form LSP's rootUri and workspaceFolders require.
func ToFileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// FromFileURI converts a file:// URI back to a filesystem path.
func FromFileURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("workspace: parsing URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("workspace: URI %q is not a file URI", uri)
	}
	return filepath.FromSlash(u.Path), nil
}
