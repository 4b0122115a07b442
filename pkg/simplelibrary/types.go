package simplelibrary

import (
	"time"

	"github.com/google/uuid"
)

// AssetCategory is the domain type for the two kinds of remote assets a book
// owns. The category decides the remote folder, the stored format, and the
// resource kind that must be threaded through upload and destroy.
type AssetCategory string

// Asset category constants (typed).
const (
	AssetCategoryCover    AssetCategory = "cover"
	AssetCategoryDocument AssetCategory = "document"
)

// ResourceKind is the storage-level hint distinguishing image objects from
// opaque binary ("raw") objects. Some remote stores keep the two in separate
// namespaces; a destroy with the wrong kind targets nothing.
type ResourceKind string

// Resource kind constants (typed).
const (
	ResourceKindImage ResourceKind = "image"
	ResourceKindRaw   ResourceKind = "raw"
)

// CoverFormat is the stored format for a cover image, derived from the
// declared MIME subtype at upload time.
type CoverFormat string

// Book represents a published work. CoverLocator and DocumentLocator are
// durable references into the remote object store; once a book is persisted
// they always resolve, or the record does not exist.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Genre           string    `json:"genre"`
	AuthorID        uuid.UUID `json:"author_id"`
	CoverLocator    string    `json:"cover_locator"`
	DocumentLocator string    `json:"document_locator"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// User represents an account that can own books.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StagedUpload is an ephemeral record of a received binary payload held on
// local storage until it is promoted to the remote store or discarded. It is
// owned exclusively by the request that staged it.
type StagedUpload struct {
	LocalPath        string
	DeclaredMimeType string
	SizeBytes        int64
}

// OrphanedAsset describes a remote object that is (or may be) live without a
// referencing metadata record, produced when a best-effort destroy fails.
type OrphanedAsset struct {
	Locator  string        `json:"locator"`
	Category AssetCategory `json:"category"`
	Op       string        `json:"op"`
	Err      error         `json:"-"`
}
