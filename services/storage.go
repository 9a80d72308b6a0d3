package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore spools uploaded files to disk so async ingestion tasks can carry
// a path instead of the file bytes.
type FileStore struct {
	dir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	dir := filepath.Join(baseDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Store writes data to a uniquely named file and returns its path. The
// original filename only contributes the extension; identity comes from the
// content fingerprint, never from the name.
func (fs *FileStore) Store(data []byte, originalName string) (string, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	path := filepath.Join(fs.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

func (fs *FileStore) Read(path string) ([]byte, error) {
	// Refuse paths outside the spool dir
	clean := filepath.Clean(path)
	if filepath.Dir(clean) != fs.dir {
		return nil, fmt.Errorf("path %s outside upload dir", path)
	}
	return os.ReadFile(clean)
}

func (fs *FileStore) Cleanup(path string) {
	if path == "" {
		return
	}
	os.Remove(filepath.Clean(path))
}
