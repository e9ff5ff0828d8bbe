// Package store provides the file-backed JSON repositories underlying the
// blocklist, activity logs, and metrics series.
//
// Each repository is a single JSON array on disk, rewritten in full on every
// mutation. A malformed or missing file reads as empty and is overwritten by
// the next write, so a corrupt store self-heals instead of failing.
//
// A mutex serializes in-process access per file. Concurrent writers from
// multiple processes are not supported: the read-modify-write cycle is not
// atomic across processes and a race loses entries. The application guards
// against this with a file lock on the data directory, not here.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// JSONFile is a mutex-guarded JSON array file holding values of type T.
type JSONFile[T any] struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile creates a repository backed by the file at path. The file is
// created lazily on the first write.
func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

// Path returns the backing file path.
func (f *JSONFile[T]) Path() string {
	return f.path
}

// Load returns all persisted values. A missing, unreadable, or malformed
// file yields an empty slice, never an error.
func (f *JSONFile[T]) Load() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *JSONFile[T]) loadLocked() []T {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		// Corrupt store reads as empty; the next write replaces it.
		return nil
	}
	return items
}

// Append reads the current array, appends items, and rewrites the file.
func (f *JSONFile[T]) Append(items ...T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := append(f.loadLocked(), items...)
	return f.saveLocked(all)
}

// Replace overwrites the persisted array with items.
func (f *JSONFile[T]) Replace(items []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if items == nil {
		items = []T{}
	}
	return f.saveLocked(items)
}

// saveLocked writes the array to a temp file in the same directory and
// renames it over the target, so a crash mid-write never leaves a truncated
// store behind.
func (f *JSONFile[T]) saveLocked(items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
