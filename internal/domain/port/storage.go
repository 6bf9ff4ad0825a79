package port

import (
	"context"
	"io"
)

type ArtifactStore interface {
	PutArtifact(ctx context.Context, key string, reader io.Reader, size int64) error
	GetArtifact(ctx context.Context, key string) (io.ReadCloser, error)
}
