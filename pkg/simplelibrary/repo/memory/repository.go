// Package memory provides an in-memory metadata repository for tests and
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// Repository implements simplelibrary.Repository using in-memory storage
type Repository struct {
	mu           sync.RWMutex
	books        map[uuid.UUID]*simplelibrary.Book
	users        map[uuid.UUID]*simplelibrary.User
	usersByEmail map[string]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		books:        make(map[uuid.UUID]*simplelibrary.Book),
		users:        make(map[uuid.UUID]*simplelibrary.User),
		usersByEmail: make(map[string]uuid.UUID),
	}
}

// Book operations

func (r *Repository) CreateBook(ctx context.Context, book *simplelibrary.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	bookCopy := *book
	r.books[book.ID] = &bookCopy
	return nil
}

func (r *Repository) GetBook(ctx context.Context, id uuid.UUID) (*simplelibrary.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, exists := r.books[id]
	if !exists {
		return nil, simplelibrary.ErrBookNotFound
	}
	bookCopy := *book
	return &bookCopy, nil
}

func (r *Repository) UpdateBook(ctx context.Context, book *simplelibrary.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[book.ID]; !exists {
		return simplelibrary.ErrBookNotFound
	}
	bookCopy := *book
	r.books[book.ID] = &bookCopy
	return nil
}

func (r *Repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[id]; !exists {
		return simplelibrary.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *Repository) ListBooks(ctx context.Context) ([]*simplelibrary.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]*simplelibrary.Book, 0, len(r.books))
	for _, book := range r.books {
		bookCopy := *book
		books = append(books, &bookCopy)
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.Before(books[j].CreatedAt)
	})
	return books, nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simplelibrary.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.usersByEmail[email]; exists {
		return simplelibrary.ErrEmailTaken
	}
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[email] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simplelibrary.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, simplelibrary.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplelibrary.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, simplelibrary.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}
