package avatar

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"passage/cmd/security/token"
)

// DiskStore keeps profile images in a flat directory under random names.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed and returns a disk-backed
// store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the image under a fresh random name.
func (s *DiskStore) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := sniff(data); err != nil {
		return "", err
	}

	name, err := token.NewAlphanumeric(32)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return "", err
	}
	return name, nil
}

// Delete removes the named image; a missing file is not an error.
func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// References are generated names only; reject anything path-like.
	if ref == "" || ref != filepath.Base(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
