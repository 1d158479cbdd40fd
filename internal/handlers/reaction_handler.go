package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReactionHandler serves like/dislike toggles for every registered kind
type ReactionHandler struct {
	ledger   *services.ReactionLedger
	counts   *services.CountAggregator
	registry *services.Registry
	logger   *zap.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(ledger *services.ReactionLedger, counts *services.CountAggregator, registry *services.Registry, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{ledger: ledger, counts: counts, registry: registry, logger: logger}
}

// RegisterReactionRoutes registers reaction routes on an authenticated group
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/:kind/:id/like", h.Like)
	g.POST("/:kind/:id/dislike", h.Dislike)
	g.GET("/:kind/:id/reactions", h.GetReactions)
}

// Like toggles a LIKE of the caller
func (h *ReactionHandler) Like(c echo.Context) error {
	return h.toggle(c, models.ActionLike)
}

// Dislike toggles a DISLIKE of the caller
func (h *ReactionHandler) Dislike(c echo.Context) error {
	return h.toggle(c, models.ActionDislike)
}

func (h *ReactionHandler) toggle(c echo.Context, action models.ReactionAction) error {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	kind, err := h.kindParam(c)
	if err != nil {
		return err
	}
	entityID := c.Param("id")
	if err := h.ledger.Validate(claims.UserID, kind, entityID, action); err != nil {
		return httpError(h.logger, err)
	}

	ctx := c.Request().Context()
	store, _ := h.registry.Store(kind)
	exists, err := store.Exists(ctx, entityID)
	if err != nil {
		h.logger.Error("entity lookup failed", zap.String("kind", string(kind)), zap.String("entity_id", entityID), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, fmt.Sprintf("%s store unavailable", kind))
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s not found", kind))
	}

	result, err := h.ledger.Toggle(ctx, claims.UserID, kind, entityID, action)
	if err != nil {
		return httpError(h.logger, err)
	}
	h.counts.Sync(ctx, kind, entityID, models.ReactionCounts{Likes: result.Likes, Dislikes: result.Dislikes})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// GetReactions returns the counts of a target and the caller's own state
func (h *ReactionHandler) GetReactions(c echo.Context) error {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	kind, err := h.kindParam(c)
	if err != nil {
		return err
	}
	entityID := c.Param("id")
	store, _ := h.registry.Store(kind)
	if !store.ValidID(entityID) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid %s ID format", kind))
	}

	ctx := c.Request().Context()
	counts, err := h.counts.Counts(ctx, kind, entityID)
	if err != nil {
		return httpError(h.logger, err)
	}
	state, err := h.counts.UserState(ctx, kind, entityID, claims.UserID)
	if err != nil {
		return httpError(h.logger, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"kind":      kind,
		"entity_id": entityID,
		"likes":     counts.Likes,
		"dislikes":  counts.Dislikes,
		"liked":     state.Liked,
		"disliked":  state.Disliked,
	}})
}

func (h *ReactionHandler) kindParam(c echo.Context) (models.EntityKind, error) {
	raw := c.Param("kind")
	kind, ok := services.ParseKind(raw)
	if !ok || !h.registry.Has(kind) {
		return "", echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Unknown content kind %q", raw))
	}
	return kind, nil
}
