// Package assets stores listing images. Objects are addressed by a flat
// name produced by Name; backends never accept names with path elements.
package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("assets: not found")
	ErrInvalidName = errors.New("assets: invalid name")
)

// Object describes a stored asset.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

type Store interface {
	// Save writes r under name, replacing any previous object.
	Save(ctx context.Context, name string, r io.Reader) error

	// Open returns the object's content. ErrNotFound when missing.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Remove deletes the object. ErrNotFound when missing.
	Remove(ctx context.Context, name string) error

	List(ctx context.Context) ([]Object, error)

	// Check reports whether the backend is usable, for readiness probes.
	Check(ctx context.Context) error

	Close(ctx context.Context) error
}

// imageTypes maps sniffed content types to the extension stored names get.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DetectImage sniffs data and returns the content type and file extension
// for the supported image formats.
func DetectImage(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	ext, ok = imageTypes[contentType]
	return contentType, ext, ok
}

// ContentType returns the content type served for a stored name.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for ct, e := range imageTypes {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// ValidName reports whether name is a single, non-hidden path element.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.IsLocal(name)
}
