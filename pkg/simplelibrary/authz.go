package simplelibrary

import "github.com/google/uuid"

// ownerAuthorizer allows mutation iff the principal created the book.
type ownerAuthorizer struct{}

// NewOwnerAuthorizer returns the default Authorizer: a principal may mutate a
// book only when it equals the book's AuthorID.
func NewOwnerAuthorizer() Authorizer {
	return ownerAuthorizer{}
}

func (ownerAuthorizer) Authorize(principalID uuid.UUID, book *Book) error {
	if principalID != book.AuthorID {
		return ErrNotAuthorized
	}
	return nil
}
