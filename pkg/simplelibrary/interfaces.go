package simplelibrary

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for remote object storage backends. Object
// keys already carry their category folder ("book-covers/..." or
// "book-pdfs/..."); the ResourceKind hint must be passed symmetrically on
// upload and delete because some backends keep raw binaries in a separate
// namespace from images.
type BlobStore interface {
	// Upload uploads content under params.ObjectKey
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content; kind must match the kind given at upload time
	Delete(ctx context.Context, objectKey string, kind ResourceKind) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a durable URL for retrieving the object
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Kind      ResourceKind
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	Kind        ResourceKind
	UpdatedAt   time.Time
	Metadata    map[string]string
}

// AssetStore is the category-aware client for the remote asset store. Upload
// returns a durable locator; Destroy decomposes the locator with the exact
// inverse of the encoding used at upload time and threads the category's
// resource kind through to the backend.
type AssetStore interface {
	Upload(ctx context.Context, staged *StagedUpload, category AssetCategory, desiredKey string) (string, error)
	Destroy(ctx context.Context, locator string, category AssetCategory) error
}

// Repository defines the interface for book and user persistence. All
// operations are atomic at single-record granularity; no multi-record
// transactions are assumed.
type Repository interface {
	// Book operations
	CreateBook(ctx context.Context, book *Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	UpdateBook(ctx context.Context, book *Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context) ([]*Book, error)

	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Stager defines the interface for the local staging area. Discard is
// idempotent and never fails on an already-removed file.
type Stager interface {
	Stage(reader io.Reader, declaredMimeType string) (*StagedUpload, error)
	Discard(staged *StagedUpload) error
}

// Authorizer decides whether a principal may mutate a book.
type Authorizer interface {
	Authorize(principalID uuid.UUID, book *Book) error
}

// EventSink defines the interface for lifecycle event handling. Sink errors
// are logged by the service and never escalated.
type EventSink interface {
	// BookCreated is fired when a book is created
	BookCreated(ctx context.Context, book *Book) error

	// BookUpdated is fired when a book is updated
	BookUpdated(ctx context.Context, book *Book) error

	// BookDeleted is fired when a book is deleted
	BookDeleted(ctx context.Context, bookID uuid.UUID) error

	// AssetOrphaned is fired when a best-effort destroy fails and a remote
	// object may be left live without a referencing record. A reconciliation
	// sweep outside this library can use these events to garbage-collect.
	AssetOrphaned(ctx context.Context, orphan OrphanedAsset) error
}
