package services

import (
	"context"
	"errors"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
	"go.uber.org/zap"
)

// CountAggregator derives like/dislike totals from the ledger. Reads have no
// side effects. Sync is the only write and targets the advisory mirrors.
type CountAggregator struct {
	reactions repositories.ReactionRepository
	registry  *Registry
	logger    *zap.Logger
}

// NewCountAggregator creates a new CountAggregator
func NewCountAggregator(reactions repositories.ReactionRepository, registry *Registry, logger *zap.Logger) *CountAggregator {
	return &CountAggregator{reactions: reactions, registry: registry, logger: logger}
}

// Counts returns the likes and dislikes recorded for one target
func (a *CountAggregator) Counts(ctx context.Context, kind models.EntityKind, entityID string) (models.ReactionCounts, error) {
	counts, err := a.reactions.CountByAction(ctx, kind, entityID)
	if err != nil {
		return models.ReactionCounts{}, storeErr("count", err)
	}
	return counts, nil
}

// UserState tells whether userID liked or disliked the target
func (a *CountAggregator) UserState(ctx context.Context, kind models.EntityKind, entityID string, userID uint) (models.UserReaction, error) {
	reaction, err := a.reactions.FindReaction(ctx, userID, kind, entityID)
	if errors.Is(err, repositories.ErrReactionNotFound) {
		return models.UserReaction{}, nil
	}
	if err != nil {
		return models.UserReaction{}, storeErr("find", err)
	}
	return userReaction(reaction), nil
}

// UserStates answers UserState for a whole listing page of one kind in one query.
// Targets without a reaction are present with both flags false.
func (a *CountAggregator) UserStates(ctx context.Context, kind models.EntityKind, entityIDs []string, userID uint) (map[string]models.UserReaction, error) {
	states := make(map[string]models.UserReaction, len(entityIDs))
	for _, id := range entityIDs {
		states[id] = models.UserReaction{}
	}
	if userID == 0 || len(entityIDs) == 0 {
		return states, nil
	}
	reactions, err := a.reactions.FindUserReactions(ctx, userID, kind, entityIDs)
	if err != nil {
		return nil, storeErr("find user reactions", err)
	}
	for i := range reactions {
		states[reactions[i].EntityID] = userReaction(&reactions[i])
	}
	return states, nil
}

// Sync pushes counts onto the mirror of the owning store. Failures are logged only.
func (a *CountAggregator) Sync(ctx context.Context, kind models.EntityKind, entityID string, counts models.ReactionCounts) {
	store, err := a.registry.Store(kind)
	if err != nil {
		a.logger.Warn("counter sync skipped", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	if err := store.SyncCounters(ctx, entityID, counts.Likes, counts.Dislikes); err != nil {
		a.logger.Warn("counter sync failed",
			zap.String("kind", string(kind)),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func userReaction(r *models.Reaction) models.UserReaction {
	return models.UserReaction{
		Liked:    r.Action == models.ActionLike,
		Disliked: r.Action == models.ActionDislike,
	}
}
