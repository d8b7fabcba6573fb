// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ugcampus/grouphub/internal/app/features/shared/api"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserFetcher loads a user document by ID. Satisfied by userstore.Store;
// the middleware fetches fresh user data on each request so profile updates
// and deletions take effect immediately.
type UserFetcher interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// RequireAuth returns middleware that validates the bearer token, loads the
// user, and stores it in the request context for CurrentUser.
func RequireAuth(issuer *Issuer, users UserFetcher, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			userID, err := issuer.Validate(tokenString)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "token expired, please sign in again")
				} else {
					unauthorized(w, "invalid token")
				}
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, mongo.ErrNoDocuments) {
					logger.Error("load request user failed",
						zap.String("user_id", userID.Hex()), zap.Error(err))
					api.WriteInternal(w)
					return
				}
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user placed in the context by
// RequireAuth. The bool is false on routes without the middleware.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}

// WithUser returns a request whose context carries the given user.
// Intended for handler tests.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, message)
}
