package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"expensetracker/internal/core"
)

const (
	jsonIndent = "    "
	// mode of a newly created expense file
	defaultFileMode fs.FileMode = 0o644
)

// JSONStore keeps the collection in a single pretty-printed JSON array.
type JSONStore struct {
	path string
}

var _ Store = (*JSONStore)(nil)

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load(ctx context.Context) (core.Collection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.DebugContext(ctx, "Expense file does not exist, starting empty", "path", s.path)
		return core.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read expense file %s: %w", s.path, err)
	}

	var c core.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode expense file %s: %w: %v", s.path, ErrMalformed, err)
	}
	if c == nil {
		// a literal null
		return nil, fmt.Errorf("decode expense file %s: %w: not an array", s.path, ErrMalformed)
	}

	slog.DebugContext(ctx, "Loaded expenses", "path", s.path, "count", len(c))
	return c, nil
}

// Save writes to a temporary file next to the target and renames it into place,
// so readers see either the previous document or the new one.
func (s *JSONStore) Save(ctx context.Context, c core.Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write expense file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync expense file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close expense file: %w", err)
	}
	if err := os.Chmod(tmpName, s.fileMode()); err != nil {
		return fmt.Errorf("chmod expense file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace expense file %s: %w", s.path, err)
	}

	slog.DebugContext(ctx, "Saved expenses", "path", s.path, "count", len(c))
	return nil
}

// fileMode keeps the permissions of an existing file.
func (s *JSONStore) fileMode() fs.FileMode {
	if info, err := os.Stat(s.path); err == nil {
		return info.Mode().Perm()
	}
	return defaultFileMode
}

func encodeCollection(c core.Collection) ([]byte, error) {
	if c == nil {
		c = core.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
