package simplelibrary_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-library/pkg/simplelibrary"
	repomemory "github.com/tendant/simple-library/pkg/simplelibrary/repo/memory"
	"github.com/tendant/simple-library/pkg/simplelibrary/staging"
	memorystorage "github.com/tendant/simple-library/pkg/simplelibrary/storage/memory"
)

// stubBlobStore wraps the memory backend to record calls and inject failures.
type stubBlobStore struct {
	inner *memorystorage.Backend

	mu              sync.Mutex
	uploads         []simplelibrary.UploadParams
	deletes         []string
	failUploadAfter int // fail uploads once this many have succeeded; -1 disables
	failDeletes     bool
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{inner: memorystorage.New(), failUploadAfter: -1}
}

func (s *stubBlobStore) Upload(ctx context.Context, reader io.Reader, params simplelibrary.UploadParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUploadAfter >= 0 && len(s.uploads) >= s.failUploadAfter {
		return errors.New("injected upload failure")
	}
	if err := s.inner.Upload(ctx, reader, params); err != nil {
		return err
	}
	s.uploads = append(s.uploads, params)
	return nil
}

func (s *stubBlobStore) Delete(ctx context.Context, objectKey string, kind simplelibrary.ResourceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, objectKey)
	if s.failDeletes {
		return errors.New("injected delete failure")
	}
	return s.inner.Delete(ctx, objectKey, kind)
}

func (s *stubBlobStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	return s.inner.Download(ctx, objectKey)
}

func (s *stubBlobStore) GetObjectMeta(ctx context.Context, objectKey string) (*simplelibrary.ObjectMeta, error) {
	return s.inner.GetObjectMeta(ctx, objectKey)
}

func (s *stubBlobStore) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return s.inner.GetDownloadURL(ctx, objectKey, downloadFilename)
}

// recordingEventSink captures lifecycle events for assertions.
type recordingEventSink struct {
	simplelibrary.NoopEventSink
	mu      sync.Mutex
	orphans []simplelibrary.OrphanedAsset
}

func (r *recordingEventSink) AssetOrphaned(ctx context.Context, orphan simplelibrary.OrphanedAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orphans = append(r.orphans, orphan)
	return nil
}

func (r *recordingEventSink) orphanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orphans)
}

// failingRepository injects a failure on CreateBook.
type failingRepository struct {
	simplelibrary.Repository
}

func (f *failingRepository) CreateBook(ctx context.Context, book *simplelibrary.Book) error {
	return errors.New("injected metadata failure")
}

type testEnv struct {
	svc    simplelibrary.Service
	repo   *repomemory.Repository
	store  *stubBlobStore
	sink   *recordingEventSink
	stager *staging.Stager
}

func setupTestService(t *testing.T, opts ...simplelibrary.Option) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:  repomemory.New(),
		store: newStubBlobStore(),
		sink:  &recordingEventSink{},
	}

	stager, err := staging.New(staging.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	env.stager = stager

	options := append([]simplelibrary.Option{
		simplelibrary.WithRepository(env.repo),
		simplelibrary.WithAssetStore(simplelibrary.NewAssetStore(env.store, "local://assets")),
		simplelibrary.WithStager(stager),
		simplelibrary.WithEventSink(env.sink),
	}, opts...)

	svc, err := simplelibrary.New(options...)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func (e *testEnv) stage(t *testing.T, content, mimeType string) *simplelibrary.StagedUpload {
	t.Helper()
	staged, err := e.stager.Stage(strings.NewReader(content), mimeType)
	require.NoError(t, err)
	return staged
}

func assertStagedGone(t *testing.T, staged ...*simplelibrary.StagedUpload) {
	t.Helper()
	for _, su := range staged {
		if su == nil {
			continue
		}
		_, err := os.Stat(su.LocalPath)
		assert.ErrorIs(t, err, os.ErrNotExist, "staged file %s should be gone", su.LocalPath)
	}
}

func TestServiceCreation(t *testing.T) {
	repo := repomemory.New()
	store := simplelibrary.NewAssetStore(memorystorage.New(), "local://assets")
	stager, err := staging.New(staging.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	tests := []struct {
		name        string
		options     []simplelibrary.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simplelibrary.Option{},
			expectError: true,
		},
		{
			name: "missing stager should fail",
			options: []simplelibrary.Option{
				simplelibrary.WithRepository(repo),
				simplelibrary.WithAssetStore(store),
			},
			expectError: true,
		},
		{
			name: "repository, asset store and stager should succeed",
			options: []simplelibrary.Option{
				simplelibrary.WithRepository(repo),
				simplelibrary.WithAssetStore(store),
				simplelibrary.WithStager(stager),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simplelibrary.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateBook(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()

	cover := env.stage(t, "cover bytes", "image/png")
	document := env.stage(t, "%PDF-1.4 document bytes", "application/pdf")

	book, err := env.svc.CreateBook(ctx, simplelibrary.CreateBookRequest{
		PrincipalID: author,
		Title:       "The Go Programming Language",
		Genre:       "programming",
		Cover:       cover,
		Document:    document,
	})
	require.NoError(t, err)
	require.NotNil(t, book)

	assert.Equal(t, author, book.AuthorID)
	assert.NotEqual(t, uuid.Nil, book.ID)

	// Both locators decompose back to objects holding the submitted bytes.
	folder, key, err := simplelibrary.DecomposeLocator(book.CoverLocator, simplelibrary.AssetCategoryCover)
	require.NoError(t, err)
	assert.Equal(t, simplelibrary.CoverFolder, folder)
	reader, err := env.store.Download(ctx, folder+"/"+key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "cover bytes", string(data))

	folder, key, err = simplelibrary.DecomposeLocator(book.DocumentLocator, simplelibrary.AssetCategoryDocument)
	require.NoError(t, err)
	assert.Equal(t, simplelibrary.DocumentFolder, folder)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	reader, err = env.store.Download(ctx, folder+"/"+key)
	require.NoError(t, err)
	data, err = io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 document bytes", string(data))

	// The record is persisted and the staging area is clean.
	stored, err := env.repo.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.CoverLocator, stored.CoverLocator)
	assertStagedGone(t, cover, document)
}

func TestCreateBookMissingAssets(t *testing.T) {
	tests := []struct {
		name     string
		cover    bool
		document bool
		wantErr  error
	}{
		{name: "missing cover", cover: false, document: true, wantErr: simplelibrary.ErrMissingCover},
		{name: "missing document", cover: true, document: false, wantErr: simplelibrary.ErrMissingDocument},
		{name: "missing both", cover: false, document: false, wantErr: simplelibrary.ErrMissingCover},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestService(t)
			ctx := context.Background()

			req := simplelibrary.CreateBookRequest{PrincipalID: uuid.New(), Title: "t", Genre: "g"}
			if tt.cover {
				req.Cover = env.stage(t, "cover bytes", "image/png")
			}
			if tt.document {
				req.Document = env.stage(t, "document bytes", "application/pdf")
			}

			book, err := env.svc.CreateBook(ctx, req)
			assert.Nil(t, book)

			var validationErr *simplelibrary.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.ErrorIs(t, err, tt.wantErr)

			// Fail-fast: zero remote uploads, zero metadata writes.
			assert.Empty(t, env.store.uploads)
			books, listErr := env.repo.ListBooks(ctx)
			require.NoError(t, listErr)
			assert.Empty(t, books)

			// Staged uploads do not leak even on the validation path.
			assertStagedGone(t, req.Cover, req.Document)
		})
	}
}

func TestCreateBookDocumentUploadFailureCompensatesCover(t *testing.T) {
	env := setupTestService(t)
	env.store.failUploadAfter = 1 // cover succeeds, document fails
	ctx := context.Background()

	cover := env.stage(t, "cover bytes", "image/png")
	document := env.stage(t, "document bytes", "application/pdf")

	book, err := env.svc.CreateBook(ctx, simplelibrary.CreateBookRequest{
		PrincipalID: uuid.New(),
		Title:       "t",
		Genre:       "g",
		Cover:       cover,
		Document:    document,
	})
	assert.Nil(t, book)

	var remoteErr *simplelibrary.RemoteStoreError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, simplelibrary.AssetCategoryDocument, remoteErr.Category)

	// The orphaned cover object is targeted by exactly one compensating destroy.
	require.Len(t, env.store.uploads, 1)
	require.Len(t, env.store.deletes, 1)
	assert.Equal(t, env.store.uploads[0].ObjectKey, env.store.deletes[0])

	// Compensation succeeded, so no orphan event fires.
	assert.Zero(t, env.sink.orphanCount())
	assertStagedGone(t, cover, document)
}

func TestCreateBookMetadataFailureCompensatesBoth(t *testing.T) {
	env := setupTestService(t)
	svc, err := simplelibrary.New(
		simplelibrary.WithRepository(&failingRepository{Repository: env.repo}),
		simplelibrary.WithAssetStore(simplelibrary.NewAssetStore(env.store, "local://assets")),
		simplelibrary.WithStager(env.stager),
		simplelibrary.WithEventSink(env.sink),
	)
	require.NoError(t, err)
	ctx := context.Background()

	cover := env.stage(t, "cover bytes", "image/png")
	document := env.stage(t, "document bytes", "application/pdf")

	book, err := svc.CreateBook(ctx, simplelibrary.CreateBookRequest{
		PrincipalID: uuid.New(),
		Title:       "t",
		Genre:       "g",
		Cover:       cover,
		Document:    document,
	})
	assert.Nil(t, book)

	var metadataErr *simplelibrary.MetadataError
	require.ErrorAs(t, err, &metadataErr)

	// Both uploaded objects are compensated.
	require.Len(t, env.store.uploads, 2)
	require.Len(t, env.store.deletes, 2)
	assert.ElementsMatch(t,
		[]string{env.store.uploads[0].ObjectKey, env.store.uploads[1].ObjectKey},
		env.store.deletes)
	assertStagedGone(t, cover, document)
}

func createTestBook(t *testing.T, env *testEnv, author uuid.UUID) *simplelibrary.Book {
	t.Helper()
	book, err := env.svc.CreateBook(context.Background(), simplelibrary.CreateBookRequest{
		PrincipalID: author,
		Title:       "original title",
		Genre:       "original genre",
		Cover:       env.stage(t, "original cover", "image/jpeg"),
		Document:    env.stage(t, "original document", "application/pdf"),
	})
	require.NoError(t, err)
	return book
}

func TestUpdateBookByNonOwner(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	book := createTestBook(t, env, uuid.New())

	uploadsBefore := len(env.store.uploads)
	cover := env.stage(t, "new cover", "image/png")
	title := "hijacked"

	updated, err := env.svc.UpdateBook(ctx, simplelibrary.UpdateBookRequest{
		BookID:      book.ID,
		PrincipalID: uuid.New(), // not the author
		Title:       &title,
		Cover:       cover,
	})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, simplelibrary.ErrNotAuthorized)

	// Remote assets and the record are untouched.
	assert.Len(t, env.store.uploads, uploadsBefore)
	assert.Empty(t, env.store.deletes)
	stored, err := env.repo.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "original title", stored.Title)
	assert.Equal(t, book.CoverLocator, stored.CoverLocator)

	// Staged uploads were written before the authorization check ran and
	// must not leak.
	assertStagedGone(t, cover)
}

func TestUpdateBookCoverOnly(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()
	book := createTestBook(t, env, author)

	oldCoverFolder, oldCoverKey, err := simplelibrary.DecomposeLocator(book.CoverLocator, simplelibrary.AssetCategoryCover)
	require.NoError(t, err)

	cover := env.stage(t, "new cover", "image/webp")
	updated, err := env.svc.UpdateBook(ctx, simplelibrary.UpdateBookRequest{
		BookID:      book.ID,
		PrincipalID: author,
		Cover:       cover,
	})
	require.NoError(t, err)

	assert.NotEqual(t, book.CoverLocator, updated.CoverLocator)
	assert.Equal(t, book.DocumentLocator, updated.DocumentLocator)

	// Exactly one destroy, for the old cover, after the new upload.
	require.Len(t, env.store.deletes, 1)
	assert.Equal(t, oldCoverFolder+"/"+oldCoverKey, env.store.deletes[0])

	// The new locator carries the webp extension resolved from the MIME type.
	assert.True(t, strings.HasSuffix(updated.CoverLocator, ".webp"))
	assertStagedGone(t, cover)
}

func TestUpdateBookUploadFailureLeavesOldAsset(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()
	book := createTestBook(t, env, author)

	env.store.failUploadAfter = len(env.store.uploads) // next upload fails
	cover := env.stage(t, "new cover", "image/png")

	updated, err := env.svc.UpdateBook(ctx, simplelibrary.UpdateBookRequest{
		BookID:      book.ID,
		PrincipalID: author,
		Cover:       cover,
	})
	assert.Nil(t, updated)

	var remoteErr *simplelibrary.RemoteStoreError
	require.ErrorAs(t, err, &remoteErr)

	// Old cover untouched, record unchanged.
	assert.Empty(t, env.store.deletes)
	stored, err := env.repo.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.CoverLocator, stored.CoverLocator)
	assertStagedGone(t, cover)
}

func TestUpdateBookScalarFields(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()
	book := createTestBook(t, env, author)

	genre := "systems"
	updated, err := env.svc.UpdateBook(ctx, simplelibrary.UpdateBookRequest{
		BookID:      book.ID,
		PrincipalID: author,
		Genre:       &genre,
	})
	require.NoError(t, err)

	assert.Equal(t, "original title", updated.Title) // only provided fields change
	assert.Equal(t, "systems", updated.Genre)
	assert.Equal(t, book.CoverLocator, updated.CoverLocator)
	assert.Equal(t, book.DocumentLocator, updated.DocumentLocator)
	assert.Empty(t, env.store.deletes)
}

func TestUpdateBookNotFound(t *testing.T) {
	env := setupTestService(t)
	title := "t"

	_, err := env.svc.UpdateBook(context.Background(), simplelibrary.UpdateBookRequest{
		BookID:      uuid.New(),
		PrincipalID: uuid.New(),
		Title:       &title,
	})
	assert.ErrorIs(t, err, simplelibrary.ErrBookNotFound)
}

func TestDeleteBook(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()
	book := createTestBook(t, env, author)

	require.NoError(t, env.svc.DeleteBook(ctx, book.ID, author))

	_, err := env.repo.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, simplelibrary.ErrBookNotFound)
	assert.Len(t, env.store.deletes, 2)

	// Both remote objects are gone.
	for _, locator := range []string{book.CoverLocator, book.DocumentLocator} {
		category := simplelibrary.AssetCategoryCover
		if locator == book.DocumentLocator {
			category = simplelibrary.AssetCategoryDocument
		}
		folder, key, err := simplelibrary.DecomposeLocator(locator, category)
		require.NoError(t, err)
		_, err = env.store.GetObjectMeta(ctx, folder+"/"+key)
		assert.ErrorIs(t, err, simplelibrary.ErrObjectNotFound)
	}
}

func TestDeleteBookByNonOwner(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	book := createTestBook(t, env, uuid.New())

	err := env.svc.DeleteBook(ctx, book.ID, uuid.New())
	assert.ErrorIs(t, err, simplelibrary.ErrNotAuthorized)

	_, getErr := env.repo.GetBook(ctx, book.ID)
	assert.NoError(t, getErr)
	assert.Empty(t, env.store.deletes)
}

func TestDeleteBookSurvivesDestroyFailure(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	author := uuid.New()
	book := createTestBook(t, env, author)

	env.store.failDeletes = true
	require.NoError(t, env.svc.DeleteBook(ctx, book.ID, author))

	// Metadata removed even though both destroys failed; the objects are
	// reported as orphans instead.
	_, err := env.repo.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, simplelibrary.ErrBookNotFound)
	assert.Equal(t, 2, env.sink.orphanCount())
}

func TestRegisterUser(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	user, err := env.svc.RegisterUser(ctx, simplelibrary.RegisterUserRequest{
		Name:     "Jamie",
		Email:    "jamie@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	_, err = env.svc.RegisterUser(ctx, simplelibrary.RegisterUserRequest{
		Name:     "Other",
		Email:    "jamie@example.com",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, simplelibrary.ErrEmailTaken)
}

func TestAuthenticateUser(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	registered, err := env.svc.RegisterUser(ctx, simplelibrary.RegisterUserRequest{
		Name:     "Jamie",
		Email:    "jamie@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	user, err := env.svc.AuthenticateUser(ctx, "jamie@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = env.svc.AuthenticateUser(ctx, "jamie@example.com", "wrong-pass")
	assert.ErrorIs(t, err, simplelibrary.ErrInvalidCredentials)

	_, err = env.svc.AuthenticateUser(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, simplelibrary.ErrInvalidCredentials)
}
