package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Workspace hands out per-request working directories for frame
// artifacts. Each request gets its own uniquely named directory so
// concurrent requests never see each other's frames, and a leftover
// from a crashed request can be identified by age and swept.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at the given directory.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch root %s: %w", root, err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace root path.
func (w *Workspace) Root() string {
	return w.root
}

// NewDir creates an isolated directory for one request.
func (w *Workspace) NewDir() (string, error) {
	dir := filepath.Join(w.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	return dir, nil
}

// Remove deletes a request directory and everything in it. Callers
// defer this so cleanup runs on every exit path.
func (w *Workspace) Remove(dir string) {
	if dir == "" {
		return
	}
	os.RemoveAll(dir)
}

// SweepStale removes request directories older than maxAge. These only
// exist when a request crashed before its deferred cleanup ran.
func (w *Workspace) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return 0, fmt.Errorf("reading scratch root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
