package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage defines the interface for attachment storage backends
type Storage interface {
	Put(ctx context.Context, objectName string, reader io.Reader) (int64, error)
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
	ResourceURL(objectName string) string
}

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates a new local filesystem storage backend
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

func (s *LocalStorage) Put(ctx context.Context, objectName string, reader io.Reader) (int64, error) {
	fullPath := filepath.Join(s.baseDir, objectName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return written, nil
}

func (s *LocalStorage) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.baseDir, objectName)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, objectName string) error {
	fullPath := filepath.Join(s.baseDir, objectName)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ResourceURL returns the public URL for a stored object.
func (s *LocalStorage) ResourceURL(objectName string) string {
	return fmt.Sprintf("%s/files/%s", s.baseURL, objectName)
}
