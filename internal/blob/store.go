// Package blob abstracts the external object store used for message file
// attachments. Messages persist only the returned URL, never raw bytes.
package blob

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrEmptyBlob is returned when a caller tries to store zero bytes.
var ErrEmptyBlob = errors.New("blob is empty")

// Store uploads an opaque blob under a hierarchical key (e.g. "<chatId>/<id>")
// and returns a URL clients can fetch it from. Implementations must be safe
// for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// DiskStore writes blobs under a local directory that the HTTP layer serves
// statically. It stands in for a hosted object store in single-process
// deployments; swapping in a cloud-backed Store is a wiring change only.
type DiskStore struct {
	// Dir is the root directory blobs are written to.
	Dir string
	// BaseURL prefixes returned URLs, e.g. "http://localhost:8080/uploads".
	BaseURL string
}

// NewDiskStore constructs a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes data under key and returns its public URL. Keys are cleaned and
// confined to the store root; a key escaping the root is rejected.
func (s *DiskStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	clean := path.Clean("/" + key) // forces the key under the root
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", errors.New("invalid blob key")
	}

	dst := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + rel, nil
}
