package objectstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Object is an upload to persist. Size may be -1 when unknown.
type Object struct {
	OwnerID     int64
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists raw material bytes and returns the location they can be
// read back from later.
type Store interface {
	Save(ctx context.Context, obj Object) (string, error)
	// Delete removes a location returned by Save. A missing object is not
	// an error.
	Delete(ctx context.Context, location string) error
	Backend() string
}

// storedName is a random hex name that keeps the original extension.
func storedName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "") + ext
}
