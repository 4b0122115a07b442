package simplelibrary

import "github.com/google/uuid"

// CreateBookRequest contains parameters for creating a book. PrincipalID is
// the authenticated principal; it becomes the book's AuthorID. Both staged
// uploads are required and are discarded before CreateBook returns, whatever
// the outcome.
type CreateBookRequest struct {
	PrincipalID uuid.UUID
	Title       string
	Genre       string
	Cover       *StagedUpload
	Document    *StagedUpload
}

// UpdateBookRequest contains parameters for updating a book. Nil fields are
// left unchanged; a non-nil staged upload replaces the corresponding remote
// asset. Staged uploads are discarded before UpdateBook returns, whatever the
// outcome.
type UpdateBookRequest struct {
	BookID      uuid.UUID
	PrincipalID uuid.UUID
	Title       *string
	Genre       *string
	Cover       *StagedUpload
	Document    *StagedUpload
}

// RegisterUserRequest contains parameters for registering a user account.
type RegisterUserRequest struct {
	Name     string
	Email    string
	Password string
}
