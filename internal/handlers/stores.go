package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/rye/internal/repositories/store"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// StoreHandler handles store directory endpoints
type StoreHandler struct {
	repo   store.StoreRepository
	logger ectologger.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(repo store.StoreRepository, logger ectologger.Logger) *StoreHandler {
	return &StoreHandler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers store routes
func (h *StoreHandler) Register(g *echo.Group) {
	g.GET("", h.List)
}

// List returns the store directory, optionally filtered by region
func (h *StoreHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StoreHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	stores, err := h.repo.List(ctx, c.QueryParam("region"))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list stores")
		return err
	}

	return SuccessResponse(c, stores)
}
