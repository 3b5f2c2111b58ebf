package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalVault keeps blobs on the local filesystem, one subdirectory per
// category. Meant for development when no MinIO endpoint is configured.
type LocalVault struct {
	root string
}

func NewLocal(root string) (*LocalVault, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &LocalVault{root: root}, nil
}

func (v *LocalVault) Store(_ context.Context, content []byte, name, category string) (string, error) {
	dir := filepath.Join(v.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}
	fileID := fmt.Sprintf("%s/%s_%s", category, uuid.New(), sanitizeName(name))
	if err := os.WriteFile(filepath.Join(v.root, filepath.FromSlash(fileID)), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fileID, nil
}

func (v *LocalVault) Retrieve(_ context.Context, fileID string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(fileID))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid file id %q", fileID)
	}
	data, err := os.ReadFile(filepath.Join(v.root, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
