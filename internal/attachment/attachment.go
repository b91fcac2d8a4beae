// Package attachment stores receipts and invoice documents uploaded by users.
package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

// MaxSize is the largest accepted upload in bytes.
const MaxSize = 10 * 1024 * 1024

var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
}

var (
	ErrNotFound        = errors.New("attachment not found")
	ErrTooLarge        = validation.New("File size exceeds 10MB limit")
	ErrUnsupportedType = validation.New("File type not allowed")
	ErrEmpty           = validation.New("File is empty")
)

// Store is the blob backend. Names are opaque and unique per upload.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, string, error)
}

type Object struct {
	Name        string
	ContentType string
	Size        int
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Upload reads at most MaxSize bytes from r, checks the sniffed content type
// against AllowedTypes and stores the file under a fresh name derived from
// filename.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	switch {
	case len(data) == 0:
		return nil, ErrEmpty
	case len(data) > MaxSize:
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)

	contentType, ok := allowed(mt)
	if !ok {
		return nil, ErrUnsupportedType
	}

	obj := &Object{
		Name:        objectName(filename, mt.Extension()),
		ContentType: contentType,
		Size:        len(data),
	}

	if err := s.store.Put(ctx, obj.Name, obj.ContentType, data); err != nil {
		return nil, fmt.Errorf("storing %s: %w", obj.Name, err)
	}

	return obj, nil
}

func (s *Service) Download(ctx context.Context, name string) (io.Reader, string, error) {
	data, contentType, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, "", err
	}

	return bytes.NewReader(data), contentType, nil
}

// allowed reports the first entry of AllowedTypes matching the detected type
// or one of its ancestors.
func allowed(mt *mimetype.MIME) (string, bool) {
	for m := mt; m != nil; m = m.Parent() {
		for _, t := range AllowedTypes {
			if m.Is(t) {
				return t, true
			}
		}
	}

	return "", false
}

func objectName(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	name := uuid.NewString()
	if s := slug.Make(base); s != "" && s != "." {
		name += "-" + s
	}

	return name + ext
}
