// Package storage keeps uploaded blobs (place photos, profile photos and
// travel documents) behind a small interface so the database only holds keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roadrunner/api-go/config"
)

var ErrInvalidKey = errors.New("storage: invalid key")

// Storage is implemented by every blob backend.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// IsImage reports whether fileName has one of the accepted photo extensions.
func IsImage(fileName string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// NewKey builds a unique object key such as "places/12/1718000000_<uuid>.jpg".
func NewKey(prefix string, ownerID uint, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%d/%d_%s%s", prefix, ownerID, time.Now().Unix(), uuid.NewString(), ext)
}

// New returns the backend selected by cfg.Driver.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageR2:
		return NewR2(cfg.R2, cfg.PublicURL), nil
	case config.StorageLocal, "":
		return NewLocal(cfg.LocalDir, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + key
}
