// Package postgres provides a PostgreSQL metadata repository. The expected
// schema is in schema.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplelibrary.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// translateError maps driver errors onto the repository's error vocabulary.
func translateError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			return simplelibrary.ErrEmailTaken
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", op, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", op, err)
}

// Book operations

func (r *Repository) CreateBook(ctx context.Context, book *simplelibrary.Book) error {
	query := `
		INSERT INTO books (id, title, genre, author_id, cover_locator, document_locator, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		book.ID, book.Title, book.Genre, book.AuthorID,
		book.CoverLocator, book.DocumentLocator, book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return translateError("create_book", err)
	}
	return nil
}

func (r *Repository) GetBook(ctx context.Context, id uuid.UUID) (*simplelibrary.Book, error) {
	query := `
		SELECT id, title, genre, author_id, cover_locator, document_locator, created_at, updated_at
		FROM books WHERE id = $1`

	var book simplelibrary.Book
	err := r.db.QueryRow(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Genre, &book.AuthorID,
		&book.CoverLocator, &book.DocumentLocator, &book.CreatedAt, &book.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplelibrary.ErrBookNotFound
	} else if err != nil {
		return nil, translateError("get_book", err)
	}
	return &book, nil
}

func (r *Repository) UpdateBook(ctx context.Context, book *simplelibrary.Book) error {
	query := `
		UPDATE books
		SET title = $2, genre = $3, cover_locator = $4, document_locator = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		book.ID, book.Title, book.Genre,
		book.CoverLocator, book.DocumentLocator, book.UpdatedAt)
	if err != nil {
		return translateError("update_book", err)
	}
	if tag.RowsAffected() == 0 {
		return simplelibrary.ErrBookNotFound
	}
	return nil
}

func (r *Repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return translateError("delete_book", err)
	}
	if tag.RowsAffected() == 0 {
		return simplelibrary.ErrBookNotFound
	}
	return nil
}

func (r *Repository) ListBooks(ctx context.Context) ([]*simplelibrary.Book, error) {
	query := `
		SELECT id, title, genre, author_id, cover_locator, document_locator, created_at, updated_at
		FROM books ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translateError("list_books", err)
	}
	defer rows.Close()

	var books []*simplelibrary.Book
	for rows.Next() {
		var book simplelibrary.Book
		if err := rows.Scan(
			&book.ID, &book.Title, &book.Genre, &book.AuthorID,
			&book.CoverLocator, &book.DocumentLocator, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, translateError("list_books", err)
		}
		books = append(books, &book)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("list_books", err)
	}
	return books, nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simplelibrary.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateError("create_user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simplelibrary.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1`

	var user simplelibrary.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplelibrary.ErrUserNotFound
	} else if err != nil {
		return nil, translateError("get_user", err)
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplelibrary.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE lower(email) = lower($1)`

	var user simplelibrary.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplelibrary.ErrUserNotFound
	} else if err != nil {
		return nil, translateError("get_user_by_email", err)
	}
	return &user, nil
}
