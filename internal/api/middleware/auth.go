package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ZertGraf/observ/internal/api/handler"
	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
)

const bearerPrefix = "bearer "

// TokenVerifier maps a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UserLookup loads the user a token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Authenticate resolves the acting user. Requests without an
// Authorization header continue anonymously; a present but invalid
// token, or one naming an unknown user, is rejected.
func Authenticate(tokens TokenVerifier, users UserLookup, logger *logger.Logger) func(next http.Handler) http.Handler {
	log := logger.Component("middleware/auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				handler.WriteError(w, domain.ErrUnauthenticated, log)
				return
			}

			userID, err := tokens.Verify(header[len(bearerPrefix):])
			if err != nil {
				handler.WriteError(w, domain.ErrUnauthenticated, log)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					handler.WriteError(w, domain.ErrUnauthenticated, log)
					return
				}
				handler.WriteError(w, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithActor(r.Context(), user)))
		})
	}
}
