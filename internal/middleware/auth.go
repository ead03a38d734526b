package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// AccessTokenCookie is the cookie the access token is delivered in.
const AccessTokenCookie = "accessToken"

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(accessToken string) (auth.AccessClaims, error)
}

// UserFinder loads the account an access token belongs to.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

type userCtxKey struct{}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// CurrentUser returns the user placed on the context by RequireUser.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(models.User)
	return user, ok
}

// RequireUser rejects requests without a valid access token. The token is read from the
// Authorization bearer header first and the accessToken cookie second.
func RequireUser(authn Authenticator, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := AccessToken(r)
			if token == "" {
				api.WriteError(ctx, w, api.Unauthorized("Unauthorized request"))
				return
			}

			claims, err := authn.Authenticate(token)
			if err != nil {
				logger.Warn("access token rejected", "error", err)
				api.WriteError(ctx, w, api.Unauthorized("Invalid Access Token"))
				return
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				logger.Warn("access token user lookup failed", "userId", claims.UserID, "error", err)
				api.WriteError(ctx, w, api.Unauthorized("Invalid Access Token"))
				return
			}

			ctx = WithUser(ctx, user)
			ctx = logging.WithUserID(ctx, user.ID)
			ctx = logging.WithLogger(ctx, logger.With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken extracts the presented access token, if any.
func AccessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
			return strings.TrimSpace(header[len("Bearer "):])
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
