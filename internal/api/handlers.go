// Package api contains the HTTP handlers for the marketplace backend
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"blockmart/backend/internal/billing"
	"blockmart/backend/internal/graph"
	"blockmart/backend/internal/repository"
	"blockmart/backend/internal/services"
)

// Server holds the dependencies for the API handlers.
type Server struct {
	Workflows *services.WorkflowService
	Users     repository.UserStore
	Identity  IdentityService
	Billing   billing.Client
	Logger    Logger
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService, users repository.UserStore, identity IdentityService, billingClient billing.Client, logger Logger) *Server {
	return &Server{
		Workflows: workflows,
		Users:     users,
		Identity:  identity,
		Billing:   billingClient,
		Logger:    logger,
	}
}

// Register mounts all API routes on e. Everything under /api except the
// signup and signin passthroughs requires authentication.
func (s *Server) Register(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.GET("/health", s.HandleHealth)

	api := e.Group("/api")
	api.POST("/auth/signup", s.Signup)
	api.POST("/auth/signin", s.Signin)

	protected := api.Group("", requireAuth)
	protected.GET("/auth/me", s.Me)

	protected.POST("/workflows", s.CreateWorkflow)
	protected.GET("/workflows", s.ListWorkflows)
	protected.GET("/workflows/:id", s.GetWorkflow)
	protected.PATCH("/workflows/:id", s.UpdateWorkflow)
	protected.DELETE("/workflows/:id", s.DeleteWorkflow)

	protected.GET("/users/profile", s.GetProfile)
	protected.PATCH("/users/profile", s.UpdateProfile)

	protected.GET("/products", s.ListProducts)
	protected.GET("/entitlements", s.GetEntitlements)
	protected.POST("/run-block", s.RunBlock)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "blockmart-backend",
		Version:   "1.0.0",
	})
}

// mutationHTTPError maps a workflow mutation failure to an HTTP error.
// targetID is the workflow named in the URL, so a NotFound for the target
// becomes 404 while a NotFound for a proposed include stays 400; creates pass
// an empty targetID since only includes can be missing there.
func mutationHTTPError(targetID string, err error) error {
	if errors.Is(err, services.ErrNameRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rejection, ok := graph.AsRejection(err)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	switch rejection.Reason {
	case graph.ReasonSelfReference, graph.ReasonCycleDetected:
		return echo.NewHTTPError(http.StatusBadRequest, rejection.Error())
	case graph.ReasonNotFound:
		if targetID != "" && rejection.WorkflowID == targetID {
			return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, rejection.Error())
	case graph.ReasonForbidden:
		return echo.NewHTTPError(http.StatusForbidden, rejection.Error())
	case graph.ReasonStoreUnavailable:
		// Never leak the underlying store error to the client.
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, rejection.Error())
	}
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// ProblemDetailsHandler is an echo.HTTPErrorHandler that renders errors as
// RFC 7807 Problem Details.
func ProblemDetailsHandler(err error, c echo.Context) {
	status := http.StatusInternalServerError
	detail := "internal server error"
	if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		}
	}
	if c.Response().Committed {
		return
	}
	problem := ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	c.Response().WriteHeader(status)
	_ = json.NewEncoder(c.Response()).Encode(problem)
}
