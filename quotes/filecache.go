package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileCache is a MemoryCache persisted to a single JSON file so cached
// history survives restarts.
type FileCache struct {
	*MemoryCache
	path string
}

// NewFileCache loads path if it exists. A missing file starts empty.
func NewFileCache(path string) (*FileCache, error) {
	c := &FileCache{MemoryCache: NewMemoryCache(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entries map[string]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	for sym, e := range entries {
		if e.DayKey != "" && len(e.Rows) > 0 {
			c.entries[sym] = e
		}
	}
	return c, nil
}

func (c *FileCache) Set(ctx context.Context, symbol, dayKey string, rows []Row) error {
	if err := c.MemoryCache.Set(ctx, symbol, dayKey, rows); err != nil {
		return err
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return writeFileAtomic(c.path, data, 0o644)
}

// writeFileAtomic writes data to path via a synced temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
