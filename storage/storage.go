package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DocumentStore persists contract documents by opaque storage key
type DocumentStore interface {
	// Upload stores a document and returns its storage key
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download streams a document back by storage key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a document by storage key
	Delete(ctx context.Context, key string) error
}

// Backend selects the document store implementation
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config holds document store settings
type Config struct {
	Backend      Backend
	LocalDir     string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// Open creates a document store for the configured backend
func Open(cfg Config) (DocumentStore, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStore(cfg.LocalDir)
	case BackendS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// OpenFromEnv creates a document store from environment variables.
// Defaults to local storage so development needs no AWS setup.
func OpenFromEnv() (DocumentStore, error) {
	backend := Backend(os.Getenv("STORAGE_TYPE"))
	if backend == "" {
		backend = BackendLocal
	}

	switch backend {
	case BackendLocal:
		dir := os.Getenv("STORAGE_LOCAL_PATH")
		if dir == "" {
			dir = "./storage/documents"
		}
		return NewLocalStore(dir)

	case BackendS3:
		cfg := Config{
			Backend:      BackendS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// documentKey builds the storage key for an uploaded document. The key is
// derived from the file ID rather than the client filename, so untrusted
// names never become path components. Keys shard on the first two hex
// characters of the ID to keep directory listings small.
func documentKey(fileID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".txt":
	default:
		ext = ".bin"
	}
	id := fileID.String()
	return fmt.Sprintf("documents/%s/%s%s", id[:2], id, ext)
}

// contentTypeForKey maps a storage key to its MIME type
func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
