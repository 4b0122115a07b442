// Package memory provides an in-memory blob store for tests and development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// Backend is an in-memory implementation of the simplelibrary.BlobStore
// interface. Like the remote stores it stands in for, it keeps raw binaries
// in a namespace separate from images: a delete with a mismatched resource
// kind does not find the object.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	data      []byte
	mimeType  string
	kind      simplelibrary.ResourceKind
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{objects: make(map[string]object)}
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params simplelibrary.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	b.objects[params.ObjectKey] = object{
		data:      data,
		mimeType:  mimeType,
		kind:      params.Kind,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, simplelibrary.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content. The kind must match the kind recorded at upload
// time; raw and image objects do not share a namespace.
func (b *Backend) Delete(ctx context.Context, objectKey string, kind simplelibrary.ResourceKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[objectKey]
	if !exists || obj.kind != kind {
		return simplelibrary.ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplelibrary.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, simplelibrary.ErrObjectNotFound
	}
	return &simplelibrary.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		Kind:        obj.kind,
		UpdatedAt:   obj.updatedAt,
		Metadata:    map[string]string{"mime_type": obj.mimeType},
	}, nil
}

// GetDownloadURL returns a synthetic URL; the memory backend has no transport.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", simplelibrary.ErrObjectNotFound
	}
	url := "memory://" + strings.TrimPrefix(objectKey, "/")
	if downloadFilename != "" {
		url = fmt.Sprintf("%s?filename=%s", url, downloadFilename)
	}
	return url, nil
}
