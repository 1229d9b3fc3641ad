package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DiskStore keeps blobs in a local directory served under PublicURL
type DiskStore struct {
	dir       string
	publicURL string
}

// NewDiskStore creates dir if needed
func NewDiskStore(dir, publicURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &DiskStore{dir: dir, publicURL: publicURL}, nil
}

// Dir returns the directory the store writes into
func (d *DiskStore) Dir() string {
	return d.dir
}

// Put writes r to a temporary file and renames it into place
func (d *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("short write: %d of %d bytes", written, size)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, key)); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	slog.Debug("blob stored", "bucket", Bucket, "key", key, "content_type", contentType, "bytes", written)
	return d.publicURL + "/" + key, nil
}

// List returns every stored blob, skipping in-flight temp files
func (d *DiskStore) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage dir: %w", err)
	}

	var out []Object
	for _, e := range entries {
		if e.IsDir() || !validKey(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{
			Key:     e.Name(),
			URL:     d.publicURL + "/" + e.Name(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// Delete removes one blob; a missing blob is not an error
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := os.Remove(filepath.Join(d.dir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
