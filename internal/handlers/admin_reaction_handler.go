package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminReactionHandler serves the moderation endpoints
type AdminReactionHandler struct {
	moderation *services.ModerationService
	registry   *services.Registry
	logger     *zap.Logger
}

// NewAdminReactionHandler creates a new AdminReactionHandler
func NewAdminReactionHandler(moderation *services.ModerationService, registry *services.Registry, logger *zap.Logger) *AdminReactionHandler {
	return &AdminReactionHandler{moderation: moderation, registry: registry, logger: logger}
}

// RegisterAdminReactionRoutes registers moderation routes on an admin group
func (h *AdminReactionHandler) RegisterAdminReactionRoutes(g *echo.Group) {
	g.GET("/reactions", h.ListReactions)
	g.GET("/reactions/stats", h.GetStats)
	g.DELETE("/reactions/bulk", h.BulkDeleteReactions)
	g.GET("/reactions/:id", h.GetReaction)
	g.DELETE("/reactions/:id", h.DeleteReaction)
}

// ListReactions lists reactions across every kind with filters, search and paging
func (h *AdminReactionHandler) ListReactions(c echo.Context) error {
	var req models.ListReactionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	filter, err := services.FilterFromRequest(&req, h.registry)
	if err != nil {
		return httpError(h.logger, err)
	}

	page, err := h.moderation.List(c.Request().Context(), filter, req.Page, req.Limit)
	if err != nil {
		return httpError(h.logger, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       page.Rows,
		"pagination": page.Pagination,
		"warnings":   page.Warnings,
	})
}

// GetReaction returns one reaction with its user and target
func (h *AdminReactionHandler) GetReaction(c echo.Context) error {
	id, err := reactionID(c)
	if err != nil {
		return err
	}
	row, warnings, err := h.moderation.Detail(c.Request().Context(), id)
	if err != nil {
		return httpError(h.logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": row, "warnings": warnings})
}

// DeleteReaction removes one reaction
func (h *AdminReactionHandler) DeleteReaction(c echo.Context) error {
	id, err := reactionID(c)
	if err != nil {
		return err
	}
	result, err := h.moderation.Delete(c.Request().Context(), id)
	if err != nil {
		return httpError(h.logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// BulkDeleteReactions removes reactions by ids, user, kind or target
func (h *AdminReactionHandler) BulkDeleteReactions(c echo.Context) error {
	var req models.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sel := models.ReactionSelector{IDs: req.ReactionIDs, UserID: req.UserID, EntityID: req.TargetID}
	if kind, ok := services.ParseKind(req.Type); ok {
		sel.Kind = kind
	}

	result, err := h.moderation.BulkDelete(c.Request().Context(), sel)
	if err != nil {
		return httpError(h.logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// GetStats returns grouped reaction statistics over a trailing window of days
func (h *AdminReactionHandler) GetStats(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = n
	}
	stats, err := h.moderation.Stats(c.Request().Context(), days)
	if err != nil {
		return httpError(h.logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}

func reactionID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid reaction ID")
	}
	return uint(id), nil
}
