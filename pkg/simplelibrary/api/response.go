package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError maps the library's error taxonomy onto HTTP status codes and
// renders a single structured error. Partial successes surface as the
// specific failed step's error, so callers can tell which half of a
// multi-asset update landed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var validationErr *simplelibrary.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, simplelibrary.ErrEmailTaken):
		status = http.StatusBadRequest
	case errors.Is(err, simplelibrary.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, simplelibrary.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, simplelibrary.ErrBookNotFound), errors.Is(err, simplelibrary.ErrUserNotFound):
		status = http.StatusNotFound
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}
