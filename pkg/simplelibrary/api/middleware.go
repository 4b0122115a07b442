package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type contextKey string

const principalCtxKey contextKey = "principal"

// Principal resolves the authenticated principal from the verified token's
// "sub" claim and stores it on the request context as a uuid.UUID. It must
// run after jwtauth.Verifier/Authenticator. Downstream code receives the
// principal as a typed value, never by re-inspecting the token.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			renderUnauthorized(w, r)
			return
		}

		sub, _ := claims["sub"].(string)
		principalID, err := uuid.Parse(sub)
		if err != nil {
			renderUnauthorized(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the principal stored by the Principal
// middleware.
func PrincipalFromContext(ctx context.Context) (uuid.UUID, bool) {
	principalID, ok := ctx.Value(principalCtxKey).(uuid.UUID)
	return principalID, ok
}

func renderUnauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, ErrorResponse{Error: "invalid or missing access token"})
}
