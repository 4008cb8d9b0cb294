package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Local writes artifacts to a directory on disk. The directory is
// served statically under /uploads, so the returned reference doubles
// as a URL path.
type Local struct {
	Dir string
}

// NewLocal creates the uploads directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// Save writes the artifact under a collision-free name and returns the
// /uploads path reference.
func (l *Local) Save(_ context.Context, data []byte, filename string) (string, error) {
	name := uuid.NewString() + "-" + filepath.Base(filename)
	path := filepath.Join(l.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return "/uploads/" + name, nil
}
