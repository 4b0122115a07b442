// Package fs provides a filesystem blob store.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// Backend is a filesystem implementation of the simplelibrary.BlobStore
// interface. The resource kind is ignored: the filesystem keeps a single
// namespace, so the folder segment of the object key is the only separation.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimRight(config.URLPrefix, "/"),
	}, nil
}

func (b *Backend) path(objectKey string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params simplelibrary.UploadParams) error {
	filePath := b.path(params.ObjectKey)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(filePath)
		return fmt.Errorf("failed to write object file: %w", err)
	}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(b.path(objectKey))
	if errors.Is(err, os.ErrNotExist) {
		return nil, simplelibrary.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open object file: %w", err)
	}
	return file, nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string, kind simplelibrary.ResourceKind) error {
	err := os.Remove(b.path(objectKey))
	if errors.Is(err, os.ErrNotExist) {
		return simplelibrary.ErrObjectNotFound
	} else if err != nil {
		return fmt.Errorf("failed to delete object file: %w", err)
	}
	return nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplelibrary.ObjectMeta, error) {
	filePath := b.path(objectKey)
	info, err := os.Stat(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, simplelibrary.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat object file: %w", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil || errors.Is(err, io.EOF) {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &simplelibrary.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// GetDownloadURL returns a URL under the configured prefix
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("no URL prefix configured for filesystem backend")
	}
	downloadURL := b.urlPrefix + "/" + objectKey
	if downloadFilename != "" {
		downloadURL += "?filename=" + url.QueryEscape(downloadFilename)
	}
	return downloadURL, nil
}
