// Package auth resolves bearer tokens into user identities for the API.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"blockmart/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// IdentityClient is the slice of the identity provider the middleware needs.
type IdentityClient interface {
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
}

// DemoUserID is the identity assumed for unauthenticated requests in demo
// mode.
const DemoUserID = "demo-user-1"

// Auth authenticates requests by forwarding the opaque bearer token to the
// external identity provider. The token format is never inspected locally.
type Auth struct {
	identity IdentityClient
	logger   Logger
	demoMode bool
}

// New creates an Auth. With demoMode set, requests without a bearer token
// proceed as the demo user instead of being rejected.
func New(identity IdentityClient, logger Logger, demoMode bool) *Auth {
	return &Auth{
		identity: identity,
		logger:   logger,
		demoMode: demoMode,
	}
}

// RequireAuth is middleware that resolves the Authorization header into a
// user and injects the user ID into the request context.
func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			if a.demoMode {
				demo := &models.User{ID: DemoUserID, Email: "demo@example.com", Name: "Demo User"}
				a.inject(c, demo)
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authorization header")
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := a.identity.GetUser(c.Request().Context(), token)
		if err != nil {
			a.logger.Debug("token rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		a.inject(c, user)
		return next(c)
	}
}

func (a *Auth) inject(c echo.Context, user *models.User) {
	ctx := context.WithValue(c.Request().Context(), userIDKey{}, user.ID)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("user", user)
}

type userIDKey struct{}

// UserID returns the authenticated caller's user ID from the request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// CurrentUser returns the authenticated user record attached by RequireAuth.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok
}
