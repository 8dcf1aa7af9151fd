package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/rye/internal/services/watchlist"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
	"github.com/Ramsey-B/rye/pkg/utils"
)

// WatchlistHandler handles watchlist API endpoints
type WatchlistHandler struct {
	service *watchlist.Service
	logger  ectologger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(service *watchlist.Service, logger ectologger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		service: service,
		logger:  logger,
	}
}

// ImportRequest represents the import request body
type ImportRequest struct {
	Preferences []*models.Preference `json:"preferences" validate:"required"`
}

// Register registers watchlist routes
func (h *WatchlistHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/catalog", h.Catalog)
	g.GET("/search", h.Search)
	g.POST("", h.Add)
	g.PUT("/:watch_id", h.Update)
	g.DELETE("/:plu", h.Remove)
	g.POST("/bulk/toggle", h.BulkToggle)
	g.GET("/export", h.Export)
	g.POST("/import", h.Import)
	g.POST("/reset", h.Reset)
}

// List returns the caller's effective watchlist
func (h *WatchlistHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	entries, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list watchlist")
		return err
	}

	return SuccessResponse(c, entries)
}

// Catalog returns the catalog browse view with the caller's toggle state
func (h *WatchlistHandler) Catalog(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Catalog")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Catalog(ctx, userID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build catalog view")
		return err
	}

	return SuccessResponse(c, view)
}

// Search finds catalog products by brand name or PLU
func (h *WatchlistHandler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Search")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	if _, err := RequireUserID(c); err != nil {
		return err
	}

	products, err := h.service.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return err
	}

	return SuccessResponse(c, products)
}

// Add places a watch or exclusion marker on a product
func (h *WatchlistHandler) Add(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Add")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[watchlist.AddRequest](c)
	if err != nil {
		return err
	}

	pref, err := h.service.Add(ctx, userID, req)
	if err != nil {
		return err
	}

	return CreatedResponse(c, pref)
}

// Update mutates custom fields and notify flags on an owned preference
func (h *WatchlistHandler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Update")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	watchID, err := ParseIntParam(c, "watch_id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[watchlist.UpdateRequest](c)
	if err != nil {
		return err
	}

	pref, err := h.service.Update(ctx, userID, int64(watchID), req)
	if err != nil {
		return err
	}

	return SuccessResponse(c, pref)
}

// Remove deletes the caller's preference on a product
func (h *WatchlistHandler) Remove(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Remove")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	plu, err := ParseIntParam(c, "plu")
	if err != nil {
		return err
	}

	if err := h.service.Remove(ctx, userID, plu); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// BulkToggle applies one marker to several products at once
func (h *WatchlistHandler) BulkToggle(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.BulkToggle")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[watchlist.BulkToggleRequest](c)
	if err != nil {
		return err
	}

	if err := h.service.BulkToggle(ctx, userID, req); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// Export returns the caller's preferences as a portable snapshot
func (h *WatchlistHandler) Export(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Export")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	snapshot, err := h.service.Export(ctx, userID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to export watchlist")
		return err
	}

	return SuccessResponse(c, snapshot)
}

// Import loads preferences from a snapshot, skipping products the caller
// already has a preference for
func (h *WatchlistHandler) Import(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Import")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[ImportRequest](c)
	if err != nil {
		return err
	}

	result, err := h.service.Import(ctx, userID, req.Preferences)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// Reset deactivates every preference for the caller
func (h *WatchlistHandler) Reset(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "WatchlistHandler.Reset")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	count, err := h.service.Reset(ctx, userID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]any{"deactivated": count})
}
