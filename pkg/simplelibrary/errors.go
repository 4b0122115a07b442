package simplelibrary

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrBookNotFound indicates a book was not found
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrNotAuthorized indicates the acting principal does not own the book
	ErrNotAuthorized = errors.New("principal is not the book owner")

	// ErrMissingCover indicates a create request arrived without a cover image
	ErrMissingCover = errors.New("cover image is required")

	// ErrMissingDocument indicates a create request arrived without a document file
	ErrMissingDocument = errors.New("document file is required")

	// ErrPayloadTooLarge indicates a staged payload exceeded the configured maximum
	ErrPayloadTooLarge = errors.New("payload exceeds maximum allowed size")

	// ErrEmailTaken indicates a registration attempt with an already-registered email
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials indicates a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrObjectNotFound indicates a remote object was not found
	ErrObjectNotFound = errors.New("object not found")
)

// ValidationError represents a request that was rejected before any remote or
// metadata operation began.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RemoteStoreError represents a failed upload or destroy against the remote
// object store. Locator is the locator that was being written or destroyed.
type RemoteStoreError struct {
	Locator  string
	Category AssetCategory
	Op       string
	Err      error
}

func (e *RemoteStoreError) Error() string {
	return fmt.Sprintf("remote store %s failed for %s locator %q: %v", e.Op, e.Category, e.Locator, e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

// MetadataError represents a failed operation against the metadata repository.
type MetadataError struct {
	BookID uuid.UUID
	Op     string
	Err    error
}

func (e *MetadataError) Error() string {
	if e.BookID == uuid.Nil {
		return fmt.Sprintf("metadata operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("metadata operation %s failed for book %s: %v", e.Op, e.BookID, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
