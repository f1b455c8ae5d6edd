package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"blockmart/backend/internal/auth"
	"blockmart/backend/internal/identity"
	"blockmart/backend/pkg/models"
)

// IdentityService is the slice of the identity provider the auth handlers
// forward to.
type IdentityService interface {
	SignUp(ctx context.Context, email, password, name string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User    *models.User      `json:"user"`
	Session *identity.Session `json:"session"`
}

// Signup registers a new user with the identity provider and provisions the
// local profile row
// (POST /api/auth/signup)
func (s *Server) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email, password, and name are required")
	}

	session, err := s.Identity.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusBadRequest, "Signup failed")
		}
		s.Logger.Error("signup failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "identity provider unavailable")
	}

	if session.User != nil {
		profile := *session.User
		if profile.CreatedAt.IsZero() {
			profile.CreatedAt = time.Now().UTC()
		}
		if err := s.Users.UpsertUser(ctx, &profile); err != nil {
			s.Logger.Error("failed to provision user profile", "user_id", profile.ID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, sessionResponse{User: session.User, Session: session})
}

// Signin exchanges credentials for a session with a bearer token
// (POST /api/auth/signin)
func (s *Server) Signin(c echo.Context) error {
	ctx := c.Request().Context()

	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	session, err := s.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusBadRequest, "Sign in failed")
		}
		s.Logger.Error("signin failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "identity provider unavailable")
	}

	return c.JSON(http.StatusOK, sessionResponse{User: session.User, Session: session})
}

// Me returns the authenticated caller
// (GET /api/auth/me)
func (s *Server) Me(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
