package knowledge

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// snapshot is the full in-memory working set, rebuilt from disk before every
// read-oriented operation. The rebuild is the only mechanism by which one
// process observes another's writes; there is deliberately no cross-call
// cache and no invalidation protocol.
type snapshot struct {
	entries    []*Entry
	paths      map[string]string // entry id -> file path
	corrupt    int
	totalBytes int64
}

// loadSnapshot walks the storage tree and parses every entry file. Corrupt
// files are counted and skipped, never fatal. Filesystem errors degrade to
// an empty (or partial) listing.
func loadSnapshot(storage string) *snapshot {
	snap := &snapshot{paths: make(map[string]string)}

	err := filepath.WalkDir(storage, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), entryExt) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			snap.totalBytes += info.Size()
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("knowledge: skipping unreadable entry file", "path", path, "err", err)
			snap.corrupt++
			return nil
		}
		entry, err := Parse(raw)
		if err != nil {
			slog.Debug("knowledge: skipping corrupt entry file", "path", path, "err", err)
			snap.corrupt++
			return nil
		}
		snap.entries = append(snap.entries, entry)
		snap.paths[entry.ID] = path
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		slog.Debug("knowledge: storage walk failed", "path", storage, "err", err)
	}
	return snap
}

// byID returns the snapshot entry with the given id, or nil.
func (s *snapshot) byID(id string) *Entry {
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}
