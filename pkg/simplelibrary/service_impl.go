package simplelibrary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-library/pkg/simplelibrary/auth"
)

// service implements the Service interface
type service struct {
	repository Repository
	assets     AssetStore
	stager     Stager
	authorizer Authorizer
	eventSink  EventSink
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithAssetStore sets the remote asset store client for the service
func WithAssetStore(store AssetStore) Option {
	return func(s *service) {
		s.assets = store
	}
}

// WithStager sets the local staging area for the service
func WithStager(stager Stager) Option {
	return func(s *service) {
		s.stager = stager
	}
}

// WithAuthorizer overrides the default owner-only authorizer
func WithAuthorizer(authorizer Authorizer) Option {
	return func(s *service) {
		s.authorizer = authorizer
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		authorizer: NewOwnerAuthorizer(),
		eventSink:  NewNoopEventSink(),
		logger:     slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}
	if s.stager == nil {
		return nil, fmt.Errorf("stager is required")
	}

	return s, nil
}

// discard removes staged uploads. It runs on every exit path of the mutating
// operations; a leaked staging file is a bug, not a cosmetic issue.
func (s *service) discard(staged ...*StagedUpload) {
	for _, su := range staged {
		if su == nil {
			continue
		}
		if err := s.stager.Discard(su); err != nil {
			s.logger.Error("failed to discard staged upload", "path", su.LocalPath, "error", err)
		}
	}
}

// compensate issues a best-effort destroy for a remote object that is no
// longer (or never was) referenced by a metadata record. Its own failure is
// logged and reported as an orphaned-asset event, never escalated: the
// primary error must not be masked.
func (s *service) compensate(ctx context.Context, locator string, category AssetCategory, op string) {
	if locator == "" {
		return
	}
	if err := s.assets.Destroy(ctx, locator, category); err != nil {
		s.logger.Error("compensating destroy failed",
			"locator", locator, "category", category, "op", op, "error", err)
		s.fireOrphaned(ctx, OrphanedAsset{Locator: locator, Category: category, Op: op, Err: err})
	}
}

func (s *service) fireOrphaned(ctx context.Context, orphan OrphanedAsset) {
	if err := s.eventSink.AssetOrphaned(ctx, orphan); err != nil {
		s.logger.Error("event sink rejected orphaned-asset event", "locator", orphan.Locator, "error", err)
	}
}

// CreateBook stages-to-remote promotion happens before the metadata write, so
// a persisted locator always resolves. The only risk window is a metadata
// write whose failure leaves both uploads live; both are compensated.
func (s *service) CreateBook(ctx context.Context, req CreateBookRequest) (*Book, error) {
	defer s.discard(req.Cover, req.Document)

	if req.Cover == nil || req.Cover.SizeBytes == 0 {
		return nil, &ValidationError{Field: "coverImage", Err: ErrMissingCover}
	}
	if req.Document == nil || req.Document.SizeBytes == 0 {
		return nil, &ValidationError{Field: "file", Err: ErrMissingDocument}
	}

	coverLocator, err := s.assets.Upload(ctx, req.Cover, AssetCategoryCover, uuid.New().String())
	if err != nil {
		return nil, err
	}

	documentLocator, err := s.assets.Upload(ctx, req.Document, AssetCategoryDocument, uuid.New().String())
	if err != nil {
		// The cover now exists remotely but nothing references it.
		s.compensate(ctx, coverLocator, AssetCategoryCover, "create")
		return nil, err
	}

	now := time.Now().UTC()
	book := &Book{
		ID:              uuid.New(),
		Title:           req.Title,
		Genre:           req.Genre,
		AuthorID:        req.PrincipalID,
		CoverLocator:    coverLocator,
		DocumentLocator: documentLocator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repository.CreateBook(ctx, book); err != nil {
		s.compensate(ctx, coverLocator, AssetCategoryCover, "create")
		s.compensate(ctx, documentLocator, AssetCategoryDocument, "create")
		return nil, &MetadataError{BookID: book.ID, Op: "create", Err: err}
	}

	if err := s.eventSink.BookCreated(ctx, book); err != nil {
		s.logger.Error("event sink rejected book-created event", "book_id", book.ID, "error", err)
	}
	return book, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book, err := s.repository.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, err
		}
		return nil, &MetadataError{BookID: id, Op: "get", Err: err}
	}
	return book, nil
}

func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	books, err := s.repository.ListBooks(ctx)
	if err != nil {
		return nil, &MetadataError{Op: "list", Err: err}
	}
	return books, nil
}

// UpdateBook replaces assets new-before-old: the new object is uploaded, the
// record moves to the new locator, then the old object is destroyed
// best-effort. A failed upload leaves the old asset untouched. A metadata
// write failure after replacement is reported but not compensated; reverting
// would reopen the same partial-failure window it tried to close.
func (s *service) UpdateBook(ctx context.Context, req UpdateBookRequest) (*Book, error) {
	defer s.discard(req.Cover, req.Document)

	book, err := s.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(req.PrincipalID, book); err != nil {
		return nil, err
	}

	if req.Cover != nil {
		newLocator, err := s.assets.Upload(ctx, req.Cover, AssetCategoryCover, uuid.New().String())
		if err != nil {
			return nil, err
		}
		oldLocator := book.CoverLocator
		book.CoverLocator = newLocator
		s.compensate(ctx, oldLocator, AssetCategoryCover, "update")
	}

	if req.Document != nil {
		newLocator, err := s.assets.Upload(ctx, req.Document, AssetCategoryDocument, uuid.New().String())
		if err != nil {
			return nil, err
		}
		oldLocator := book.DocumentLocator
		book.DocumentLocator = newLocator
		s.compensate(ctx, oldLocator, AssetCategoryDocument, "update")
	}

	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.Genre != nil {
		book.Genre = strings.TrimSpace(*req.Genre)
	}
	book.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateBook(ctx, book); err != nil {
		return nil, &MetadataError{BookID: book.ID, Op: "update", Err: err}
	}

	if err := s.eventSink.BookUpdated(ctx, book); err != nil {
		s.logger.Error("event sink rejected book-updated event", "book_id", book.ID, "error", err)
	}
	return book, nil
}

// DeleteBook prefers "metadata removed, remote object orphaned" over a record
// that can never be deleted because a remote store is unreachable: both
// destroys are best-effort and never block record deletion.
func (s *service) DeleteBook(ctx context.Context, bookID, principalID uuid.UUID) error {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(principalID, book); err != nil {
		return err
	}

	s.compensate(ctx, book.CoverLocator, AssetCategoryCover, "delete")
	s.compensate(ctx, book.DocumentLocator, AssetCategoryDocument, "delete")

	if err := s.repository.DeleteBook(ctx, bookID); err != nil {
		return &MetadataError{BookID: bookID, Op: "delete", Err: err}
	}

	if err := s.eventSink.BookDeleted(ctx, bookID); err != nil {
		s.logger.Error("event sink rejected book-deleted event", "book_id", bookID, "error", err)
	}
	return nil
}

// User account operations

func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, &ValidationError{Field: "user", Err: errors.New("name, email and password are required")}
	}

	if _, err := s.repository.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, &MetadataError{Op: "get_user", Err: err}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, &MetadataError{Op: "create_user", Err: err}
	}
	return user, nil
}

func (s *service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &MetadataError{Op: "get_user", Err: err}
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
