package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"blockmart/backend/internal/auth"
	"blockmart/backend/pkg/models"
)

type createWorkflowRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Definition  map[string]any `json:"definition"`
	Includes    []string       `json:"includes"`
}

// CreateWorkflow creates a new workflow for the caller
// (POST /api/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	var req createWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	workflow, err := s.Workflows.Create(ctx, userID, req.Name, req.Description, req.Definition, req.Includes)
	if err != nil {
		return mutationHTTPError("", err)
	}
	return c.JSON(http.StatusCreated, workflow)
}

// ListWorkflows returns all of the caller's workflows
// (GET /api/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	workflows, err := s.Workflows.ListByOwner(ctx, userID)
	if err != nil {
		return mutationHTTPError("", err)
	}
	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow returns one of the caller's workflows
// (GET /api/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}
	workflowID := c.Param("id")

	workflow, err := s.Workflows.Get(ctx, userID, workflowID)
	if err != nil {
		return mutationHTTPError(workflowID, err)
	}
	return c.JSON(http.StatusOK, workflow)
}

// UpdateWorkflow applies a partial patch to one of the caller's workflows.
// An includes field, when present, is the full replacement list.
// (PATCH /api/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}
	workflowID := c.Param("id")

	var patch models.WorkflowPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	workflow, err := s.Workflows.Update(ctx, userID, workflowID, patch)
	if err != nil {
		return mutationHTTPError(workflowID, err)
	}
	return c.JSON(http.StatusOK, workflow)
}

// DeleteWorkflow removes one of the caller's workflows
// (DELETE /api/workflows/:id)
func (s *Server) DeleteWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}
	workflowID := c.Param("id")

	if err := s.Workflows.Delete(ctx, userID, workflowID); err != nil {
		return mutationHTTPError(workflowID, err)
	}
	return c.NoContent(http.StatusNoContent)
}
