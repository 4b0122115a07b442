// Package staging implements the local holding area for uploaded bytes
// before they are promoted to the remote store.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// DefaultMaxBytes caps a single staged payload at 30 MB.
const DefaultMaxBytes int64 = 30 * 1024 * 1024

// Config options for the staging area
type Config struct {
	Dir      string // Directory for staged files (default: os.TempDir())
	MaxBytes int64  // Maximum payload size in bytes (default: DefaultMaxBytes)
}

// Stager writes payloads to a local directory and removes them on discard.
type Stager struct {
	dir      string
	maxBytes int64
}

// New creates a staging area rooted at config.Dir.
func New(config Config) (*Stager, error) {
	if config.Dir == "" {
		config.Dir = filepath.Join(os.TempDir(), "simple-library-staging")
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Stager{dir: config.Dir, maxBytes: config.MaxBytes}, nil
}

// Stage copies the payload to local storage. A payload larger than the
// configured maximum fails with simplelibrary.ErrPayloadTooLarge before any
// remote or metadata operation could begin, and leaves nothing behind.
func (s *Stager) Stage(reader io.Reader, declaredMimeType string) (*simplelibrary.StagedUpload, error) {
	file, err := os.CreateTemp(s.dir, "staged-*")
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	// Copy one byte past the cap so an exactly-at-limit payload still passes.
	written, err := io.Copy(file, io.LimitReader(reader, s.maxBytes+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(file.Name())
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(file.Name())
		return nil, &simplelibrary.ValidationError{Field: "payload", Err: simplelibrary.ErrPayloadTooLarge}
	}

	return &simplelibrary.StagedUpload{
		LocalPath:        file.Name(),
		DeclaredMimeType: declaredMimeType,
		SizeBytes:        written,
	}, nil
}

// Discard removes a staged file. It is idempotent: discarding an
// already-removed file is not an error.
func (s *Stager) Discard(staged *simplelibrary.StagedUpload) error {
	if staged == nil || staged.LocalPath == "" {
		return nil
	}
	if err := os.Remove(staged.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}
