package storage

import (
	"context"
	"io"
)

// Uploader mirrors a processing artifact to remote storage and returns
// its stored location.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
