// Package avatar stores profile images behind a small Store boundary with
// disk and S3 backends.
package avatar

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrTooLarge is returned for images over the size cap.
	ErrTooLarge = errors.New("avatar: image too large")

	// ErrUnsupportedType is returned for anything that is not PNG or JPEG.
	ErrUnsupportedType = errors.New("avatar: unsupported image type")
)

// MaxSize caps uploaded profile images at 2 MiB.
const MaxSize = 2 << 20

// Store persists profile images and hands back an opaque reference that the
// account row carries.
type Store interface {
	// Save validates and persists the image, returning its reference.
	Save(ctx context.Context, data []byte) (string, error)

	// Delete removes a stored image. Deleting an absent reference is not an
	// error.
	Delete(ctx context.Context, ref string) error
}

// sniff validates size and content type, returning the MIME type.
func sniff(data []byte) (string, error) {
	if len(data) == 0 || len(data) > MaxSize {
		return "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if ct != "image/png" && ct != "image/jpeg" {
		return "", ErrUnsupportedType
	}
	return ct, nil
}
