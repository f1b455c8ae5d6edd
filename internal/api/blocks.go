package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"blockmart/backend/internal/auth"
	"blockmart/backend/internal/billing"
	"blockmart/backend/internal/observability"
	"blockmart/backend/internal/services"
	"blockmart/backend/pkg/models"
)

// productResponse is a catalog block enriched with pricing from the billing
// provider, when it could be resolved.
type productResponse struct {
	models.Block
	PriceUnitAmount *int    `json:"price_unit_amount,omitempty"`
	PriceCurrency   *string `json:"price_currency,omitempty"`
	PriceName       *string `json:"price_name,omitempty"`
	PriceType       *string `json:"price_type,omitempty"`
}

// ListProducts returns the block catalog with resolved prices. A billing
// outage degrades to the bare catalog rather than failing the request.
// (GET /api/products)
func (s *Server) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserID(ctx)

	var snapshot *billing.Billing
	if userID != "" {
		var err error
		snapshot, err = s.Billing.GetBilling(ctx, userID)
		if err != nil {
			s.Logger.Warn("unable to resolve pricing for request", "error", err)
		}
	}

	products := make([]productResponse, 0, len(models.BlockDefinitions))
	for _, block := range models.BlockDefinitions {
		product := productResponse{Block: block}
		if price, ok := snapshot.GetPrice(block.PriceSlug); ok {
			product.PriceUnitAmount = &price.UnitAmount
			product.PriceCurrency = &price.Currency
			product.PriceName = &price.Name
			product.PriceType = &price.Type
		}
		products = append(products, product)
	}
	return c.JSON(http.StatusOK, map[string]any{"products": products})
}

// GetEntitlements answers, per catalog block, whether the caller has access
// (GET /api/entitlements)
func (s *Server) GetEntitlements(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	snapshot, err := s.Billing.GetBilling(ctx, userID)
	if err != nil {
		s.Logger.Error("entitlements lookup failed", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "billing provider unavailable")
	}

	access := make(map[string]bool, len(models.BlockDefinitions))
	for _, block := range models.BlockDefinitions {
		access[block.FeatureSlug] = block.FeatureSlug == models.FeatureSlugFree ||
			snapshot.CheckFeatureAccess(block.FeatureSlug)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"entitlements": access,
		"billing":      map[string]any{"subscriptions": snapshot.Subscriptions},
	})
}

type runBlockRequest struct {
	BlockID string            `json:"block_id"`
	Inputs  map[string]string `json:"inputs"`
}

// RunBlock executes a catalog block for the caller, gated on entitlement
// (POST /api/run-block)
func (s *Server) RunBlock(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}

	var req runBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.BlockID == "" || req.Inputs == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "block_id and inputs required")
	}

	block := models.GetBlockByID(req.BlockID)
	if block == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Block not found")
	}

	if block.FeatureSlug != models.FeatureSlugFree {
		snapshot, err := s.Billing.GetBilling(ctx, userID)
		if err != nil {
			s.Logger.Error("billing check failed", "user_id", userID, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "billing provider unavailable")
		}
		if !snapshot.CheckFeatureAccess(block.FeatureSlug) {
			observability.BlockRuns.WithLabelValues(block.ID, "locked").Inc()
			return echo.NewHTTPError(http.StatusForbidden, "Purchase or subscribe to unlock this block")
		}
	}

	outputs, err := services.RunBlock(ctx, block, req.Inputs)
	if err != nil {
		observability.BlockRuns.WithLabelValues(block.ID, "error").Inc()
		s.Logger.Error("block run failed", "block", block.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to run block")
	}

	observability.BlockRuns.WithLabelValues(block.ID, "ok").Inc()
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"outputs": outputs,
	})
}
