package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/AnshRaj112/pixora-backend/internal/services"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID primitive.ObjectID
	User   *models.User
	Token  string
}

type SessionValidator interface {
	Validate(ctx context.Context, token string) (*services.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// TokenFromRequest reads the session token from the Authorization bearer
// header, falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "loggedout" {
		return c.Value
	}
	return ""
}

// Authenticate rejects requests without a valid session whose user still
// exists, and stores the Principal in the request context.
func Authenticate(sessions SessionValidator, users UserFinder, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				respond.Error(w, nil, apperror.Auth("You are not logged in. Please log in to access"))
				return
			}

			claims, err := sessions.Validate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrInvalidSession) {
					log.WithError(err).Warn("session validation failed")
				}
				respond.Error(w, nil, apperror.Auth("Invalid or expired session. Please log in again"))
				return
			}

			user, err := users.FindByID(r.Context(), claims.ObjectID())
			if err != nil {
				respond.Error(w, nil, apperror.Auth("The user belonging to this token no longer exists"))
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{UserID: user.ID, User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
