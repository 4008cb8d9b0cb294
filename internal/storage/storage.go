package storage

import "context"

// Storage persists uploaded document artifacts. The returned reference
// is an opaque string recorded on the request's file fields; the core
// never interprets it.
type Storage interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
}
