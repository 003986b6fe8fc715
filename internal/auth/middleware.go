package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hiroshandev/media-gallery-api/internal/model"
	"github.com/hiroshandev/media-gallery-api/internal/repository"
)

// ErrNoToken means the request carried no Authorization header at all.
// Kept distinct from ErrInvalidToken so the middleware can tell "anonymous
// visitor" (normal, no log) from "presented a bad credential" (logged).
var ErrNoToken = errors.New("auth: no token provided")

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// identity in the context — no collisions with other packages' keys.
type contextKey string

const userKey contextKey = "user"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header,
// validates it, then RE-FETCHES the user from the store. The token's
// claims are not trusted for role or active-state: a token minted before
// an account was deactivated or demoted would otherwise stay privileged
// until it expires. Missing, invalid, or expired tokens — and valid tokens
// for deactivated or deleted accounts — all stop the chain with 401.
func RequireAuth(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				msg := "Invalid token."
				if errors.Is(err, ErrNoToken) {
					msg = "Access denied. No token provided."
				} else {
					// Something was presented and rejected — worth a log
					// line; anonymous requests are just noise.
					logger.Warn("auth: rejected token",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
				}
				writeAuthError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user identity if a valid token is present but
// never blocks the request. Anonymous requests pass through untouched; a
// presented-but-invalid token is logged for observability and otherwise
// treated the same as no token.
func OptionalAuth(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user))
			case !errors.Is(err, ErrNoToken):
				// A token was presented and failed — worth noticing,
				// not worth failing the request over.
				logger.Warn("optional auth: rejected token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route to admin accounts. It composes over
// RequireAuth and fails closed: no attached identity is a 403, not a pass.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusForbidden, "Authentication required.")
			return
		}
		if user.Role != model.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "Admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerifiedEmail gates a route to accounts that completed OTP email
// verification (or signed in via Google, which pre-verifies).
func RequireVerifiedEmail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusForbidden, "Authentication required.")
			return
		}
		if !user.IsEmailVerified {
			writeAuthError(w, http.StatusForbidden, "Email verification required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request
// context. Returns (nil, false) for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// authenticate is the shared path of RequireAuth and OptionalAuth:
// extract the bearer token, validate it, re-fetch the user, check active.
func authenticate(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	tokenStr, err := extractBearer(r)
	if err != nil {
		return nil, err
	}

	userID, err := tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// extractBearer pulls the token out of the Authorization header.
// Absence is ErrNoToken; a malformed scheme counts as invalid, since
// something was presented.
func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// writeAuthError emits the fixed-shape failure body the auth middleware
// uses. It duplicates a sliver of the handler package's response helper on
// purpose: importing handler from here would be an import cycle.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
