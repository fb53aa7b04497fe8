package blob

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem stores objects as plain files under a root directory.
// The default driver for single-node deployments and local development.
type Filesystem struct {
	root    string
	baseURL string
}

// NewFilesystem creates a filesystem store rooted at root (default
// ./blobdata). baseURL, when set, prefixes returned object URLs.
func NewFilesystem(root, baseURL string) (*Filesystem, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &Filesystem{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (f *Filesystem) objectPath(container, path string) string {
	return filepath.Join(f.root, container, filepath.FromSlash(path))
}

func (f *Filesystem) url(container, path string) string {
	if f.baseURL != "" {
		return f.baseURL + "/" + container + "/" + path
	}
	abs, err := filepath.Abs(f.objectPath(container, path))
	if err != nil {
		abs = f.objectPath(container, path)
	}
	return "file://" + filepath.ToSlash(abs)
}

func (f *Filesystem) Put(ctx context.Context, container, path string, data []byte, contentType string) (string, error) {
	full := f.objectPath(container, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return f.url(container, path), nil
}

func (f *Filesystem) Get(ctx context.Context, container, path string) ([]byte, string, error) {
	data, err := os.ReadFile(f.objectPath(container, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (f *Filesystem) Delete(ctx context.Context, container, path string) error {
	err := os.Remove(f.objectPath(container, path))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
