package simplelibrary

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-library library
type Service interface {
	// Book lifecycle operations
	CreateBook(ctx context.Context, req CreateBookRequest) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	UpdateBook(ctx context.Context, req UpdateBookRequest) (*Book, error)
	DeleteBook(ctx context.Context, bookID, principalID uuid.UUID) error

	// User account operations
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*User, error)
}
