// Package images decodes inline base64 images and stores them in object storage.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes bounds the decoded size of an inline image.
const MaxImageBytes = 10 << 20

var (
	// ErrInvalidImage is returned when the payload is not base64 image data.
	ErrInvalidImage = errors.New("upload a valid image")
	// ErrImageTooLarge is returned when the decoded payload exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image is too large")
)

// Image is a decoded inline image.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Decode accepts either a data URI (data:image/png;base64,...) or bare
// base64 and verifies the bytes are an image.
func Decode(raw string) (Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Image{}, ErrInvalidImage
	}

	payload := raw
	if strings.HasPrefix(raw, "data:") {
		header, body, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return Image{}, ErrInvalidImage
		}
		payload = body
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return Image{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, ErrInvalidImage
		}
	}
	return FromBytes(data)
}

// FromBytes wraps raw file contents, rejecting anything that does not sniff
// as an image.
func FromBytes(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return Image{}, ErrInvalidImage
	}

	return Image{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

// NewKey returns a fresh object key under prefix, e.g. recipes/<uuid>.png.
func NewKey(prefix, extension string) string {
	return fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.New().String(), extension)
}

// ObjectStore is the subset of storage operations images need.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Store saves decoded images under a key prefix.
type Store struct {
	objects ObjectStore
}

// NewStore constructs a Store on top of object storage.
func NewStore(objects ObjectStore) *Store {
	return &Store{objects: objects}
}

// Save stores img under prefix and returns its object key.
func (s *Store) Save(ctx context.Context, prefix string, img Image) (string, error) {
	key := NewKey(prefix, img.Extension)
	if err := s.objects.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// Delete removes a stored image. Empty keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.objects.Delete(ctx, key)
}
