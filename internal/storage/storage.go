package storage

import (
	"context"
	"io"
)

// ObjectStore persists uploaded media and hands back a durable public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
