// Package blobstore stores payment proof images and returns their public URLs.
package blobstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bucket is the logical name payment proofs are stored under
const Bucket = "payment-screenshots"

var ErrInvalidKey = errors.New("invalid blob key")

// Store is the write side used by the registration workflow
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// Object is one stored blob
type Object struct {
	Key     string
	URL     string
	ModTime time.Time
}

// Lister is implemented by backends the janitor can sweep
type Lister interface {
	List(ctx context.Context) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a random object name keeping the extension of the uploaded file
func NewKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return uuid.New().String() + ext
}

// KeyFromURL recovers the object key from a URL returned by Put. Disk URLs end
// in the key; Google Drive links carry the file ID as an id parameter or after /d/.
// The host is ignored so keys survive a change of public URL.
func KeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	if strings.HasSuffix(u.Hostname(), "google.com") {
		if id := u.Query().Get("id"); id != "" {
			return id
		}
		for i := 0; i+1 < len(segments); i++ {
			if segments[i] == "d" {
				return segments[i+1]
			}
		}
	}

	key := segments[len(segments)-1]
	if !validKey(key) {
		return ""
	}
	return key
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && !strings.HasPrefix(key, ".")
}

// Backend is a store the janitor can also sweep
type Backend interface {
	Store
	Lister
}
