// Package storage archives debug screenshots taken during apply runs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalArchive writes screenshots under a directory.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) (*LocalArchive, error) {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &LocalArchive{dir: dir}, nil
}

func (a *LocalArchive) Save(ctx context.Context, key string, png []byte) (string, error) {
	// rooting the key before Clean drops any leading ".."
	path := filepath.Join(a.dir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
