package certificates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists rendered certificate artifacts. Saving twice under
// the same name overwrites, which is what makes regeneration idempotent.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DiskStore writes artifacts under a base directory.
type DiskStore struct {
	BaseDir string
}

func NewDiskStore(baseDir string) *DiskStore {
	return &DiskStore{BaseDir: baseDir}
}

func (s *DiskStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.BaseDir, "certificates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("certificates: create dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("certificates: write artifact: %w", err)
	}
	return path, nil
}
