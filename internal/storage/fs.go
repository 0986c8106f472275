// Package storage persists session snapshots as JSON files, one file
// per session under a subdirectory named for the session kind.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jaminalder/codex-arcade/internal/app"
)

// FS is a file-backed app.Store.
type FS struct{ dir string }

// NewFS creates a store rooted at dir. Directories are created lazily
// on first save.
func NewFS(dir string) *FS { return &FS{dir: dir} }

var kinds = []string{app.KindMerge, app.KindPlacement, app.KindPairs}

func (s *FS) pathFor(kind, id string) string {
	return filepath.Join(s.dir, kind, strings.TrimSpace(id)+".json")
}

// Save writes the snapshot, replacing any previous one for the ID.
func (s *FS) Save(ctx context.Context, snap app.Snapshot) error {
	if snap.ID == "" {
		return errors.New("invalid snapshot: missing ID")
	}
	target := s.pathFor(snap.Kind, snap.ID)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Load reads the snapshot for the ID, searching every kind directory.
// Returns app.ErrNoSnapshot when none exists.
func (s *FS) Load(ctx context.Context, id string) (app.Snapshot, error) {
	for _, kind := range kinds {
		data, err := os.ReadFile(s.pathFor(kind, id))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return app.Snapshot{}, err
		}
		var snap app.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return app.Snapshot{}, err
		}
		return snap, nil
	}
	return app.Snapshot{}, app.ErrNoSnapshot
}

// List returns all stored snapshots, newest first.
func (s *FS) List(ctx context.Context) ([]app.Snapshot, error) {
	var out []app.Snapshot
	for _, kind := range kinds {
		entries, err := os.ReadDir(filepath.Join(s.dir, kind))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(s.dir, kind, e.Name()))
			if err != nil {
				return nil, err
			}
			var snap app.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				// skip corrupt entries rather than failing the listing
				continue
			}
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Updated.After(out[j].Updated) })
	return out, nil
}

// Delete removes the snapshot for the ID. Missing snapshots are not an
// error.
func (s *FS) Delete(ctx context.Context, id string) error {
	for _, kind := range kinds {
		err := os.Remove(s.pathFor(kind, id))
		if err == nil {
			return nil
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
