package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileBackend persists sessions as a JSON file under the user cache
// directory. Writes are last-writer-wins; two processes racing on the file
// at worst overwrite each other's fresh session, costing one handshake.
type FileBackend struct {
	path string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend returns a backend storing sessions at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the session file. A missing, corrupt, or unreadable file is an
// empty store, never an error.
func (b *FileBackend) Load(_ context.Context) (map[string]Record, error) {
	buf, err := os.ReadFile(b.path)
	if err != nil {
		return map[string]Record{}, nil
	}
	var records map[string]Record
	if err := json.Unmarshal(buf, &records); err != nil {
		return map[string]Record{}, nil
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records, nil
}

// Save writes the session file, creating the directory if needed.
func (b *FileBackend) Save(_ context.Context, records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return err
	}
	buf, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, buf, 0o600)
}
