package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"blockmart/backend/internal/auth"
	"blockmart/backend/internal/repository"
)

type updateProfileRequest struct {
	Name string `json:"name"`
}

// GetProfile returns the caller's profile
// (GET /api/users/profile)
func (s *Server) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	profile, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Profile not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage temporarily unavailable")
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes the caller's display name, the only mutable field
// (PATCH /api/users/profile)
func (s *Server) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}

	profile, err := s.Users.UpdateUserName(ctx, userID, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Profile not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage temporarily unavailable")
	}
	return c.JSON(http.StatusOK, profile)
}
