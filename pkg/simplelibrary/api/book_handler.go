package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// multipartMemory is how much of a parsed multipart form is held in memory
// before spilling to disk.
const multipartMemory = 10 << 20

// Multipart field names, kept compatible with the original elib API clients.
const (
	coverField    = "coverImage"
	documentField = "file"
)

// BookHandler handles HTTP requests for the book lifecycle.
type BookHandler struct {
	service   simplelibrary.Service
	stager    simplelibrary.Stager
	tokenAuth *jwtauth.JWTAuth
}

// NewBookHandler creates a new book handler
func NewBookHandler(service simplelibrary.Service, stager simplelibrary.Stager, tokenAuth *jwtauth.JWTAuth) *BookHandler {
	return &BookHandler{
		service:   service,
		stager:    stager,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the routes for books. Reads are public; mutations require a
// valid access token.
func (h *BookHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListBooks)
	r.Get("/{bookID}", h.GetBook)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator)
		r.Use(Principal)

		r.Post("/", h.CreateBook)
		r.Patch("/{bookID}", h.UpdateBook)
		r.Delete("/{bookID}", h.DeleteBook)
	})

	return r
}

// stageFormFile stages the named multipart file if the request carries one.
// A missing file is not an error here; presence requirements belong to the
// service.
func (h *BookHandler) stageFormFile(r *http.Request, field string) (*simplelibrary.StagedUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	} else if err != nil {
		return nil, &simplelibrary.ValidationError{Field: field, Err: err}
	}
	defer file.Close()

	return h.stager.Stage(file, header.Header.Get("Content-Type"))
}

func closeForm(form *multipart.Form) {
	if form != nil {
		if err := form.RemoveAll(); err != nil {
			slog.Error("failed to remove multipart temp files", "error", err)
		}
	}
}

// CreateBook creates a book from a multipart form: title, genre, coverImage,
// file.
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	principalID, ok := PrincipalFromContext(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "expected multipart form data"})
		return
	}
	defer closeForm(r.MultipartForm)

	cover, err := h.stageFormFile(r, coverField)
	if err != nil {
		writeError(w, r, err)
		return
	}
	document, err := h.stageFormFile(r, documentField)
	if err != nil {
		// The cover is already staged; the service will not run, so clean up here.
		if discardErr := h.stager.Discard(cover); discardErr != nil {
			slog.Error("failed to discard staged cover", "error", discardErr)
		}
		writeError(w, r, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), simplelibrary.CreateBookRequest{
		PrincipalID: principalID,
		Title:       r.FormValue("title"),
		Genre:       r.FormValue("genre"),
		Cover:       cover,
		Document:    document,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, book)
}

// UpdateBook applies a partial update from a multipart form; every part is
// optional.
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	principalID, ok := PrincipalFromContext(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, r, simplelibrary.ErrBookNotFound)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "expected multipart form data"})
		return
	}
	defer closeForm(r.MultipartForm)

	req := simplelibrary.UpdateBookRequest{
		BookID:      bookID,
		PrincipalID: principalID,
	}
	if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
		req.Title = &values[0]
	}
	if values, ok := r.MultipartForm.Value["genre"]; ok && len(values) > 0 {
		req.Genre = &values[0]
	}

	if req.Cover, err = h.stageFormFile(r, coverField); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Document, err = h.stageFormFile(r, documentField); err != nil {
		if discardErr := h.stager.Discard(req.Cover); discardErr != nil {
			slog.Error("failed to discard staged cover", "error", discardErr)
		}
		writeError(w, r, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, book)
}

// GetBook returns a single book
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, r, simplelibrary.ErrBookNotFound)
		return
	}

	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, book)
}

// ListBooks returns all books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, books)
}

// DeleteBook deletes a book and its remote assets
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	principalID, ok := PrincipalFromContext(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, r, simplelibrary.ErrBookNotFound)
		return
	}

	if err := h.service.DeleteBook(r.Context(), bookID, principalID); err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}
