package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-library/pkg/simplelibrary"
)

// DefaultTokenTTL is how long issued access tokens stay valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// UserHandler handles registration and login, issuing JWT access tokens with
// the user id as subject.
type UserHandler struct {
	service   simplelibrary.Service
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
}

// NewUserHandler creates a new user handler
func NewUserHandler(service simplelibrary.Service, tokenAuth *jwtauth.JWTAuth) *UserHandler {
	return &UserHandler{
		service:   service,
		tokenAuth: tokenAuth,
		tokenTTL:  DefaultTokenTTL,
	}
}

// Routes returns the routes for users
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.RegisterUser)
	r.Post("/login", h.LoginUser)
	return r
}

// RegisterUserRequest is the request body for registering a user
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUserRequest is the request body for logging in
type LoginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterUser creates a new user account and returns an access token
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.service.RegisterUser(r.Context(), simplelibrary.RegisterUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, TokenResponse{AccessToken: token})
}

// LoginUser verifies credentials and returns an access token
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req LoginUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, TokenResponse{AccessToken: token})
}

func (h *UserHandler) issueToken(user *simplelibrary.User) (string, error) {
	claims := map[string]interface{}{"sub": user.ID.String()}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, h.tokenTTL)

	_, token, err := h.tokenAuth.Encode(claims)
	return token, err
}
