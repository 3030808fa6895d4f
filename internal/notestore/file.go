package notestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every note in one JSON object {id: note} at a fixed path.
// Each Save rewrites the whole file. Writers in the same process are
// serialized; writers in different processes can lose each other's updates.
type File struct {
	path  string
	mu    sync.Mutex
	newID func() (string, error)
}

func NewFile(path string) *File {
	return &File{path: path, newID: NewID}
}

func (f *File) Path() string { return f.path }

func (f *File) Save(_ context.Context, note string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	notes, err := f.read()
	if err != nil {
		return "", err
	}
	id, err := f.newID()
	if err != nil {
		return "", err
	}
	notes[id] = note

	raw, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode notes file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return "", fmt.Errorf("create notes dir: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write notes file: %w", err)
	}
	return id, nil
}

func (f *File) Get(_ context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	notes, err := f.read()
	if err != nil {
		return "", false, err
	}
	note, ok := notes[id]
	return note, ok, nil
}

func (f *File) Close() error { return nil }

// read loads the notes file; a missing or empty file is an empty set.
func (f *File) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes file: %w", err)
	}
	notes := map[string]string{}
	if len(raw) == 0 {
		return notes, nil
	}
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("decode notes file %s: %w", f.path, err)
	}
	if notes == nil {
		notes = map[string]string{}
	}
	return notes, nil
}
