package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
	"go.uber.org/zap"
)

// ReactionLedger records reactions and enforces the toggle state machine:
//
//	NONE     --LIKE-->    LIKED    --LIKE-->    NONE
//	NONE     --DISLIKE--> DISLIKED --DISLIKE--> NONE
//	LIKED    --DISLIKE--> DISLIKED --LIKE-->    LIKED
//
// At most one record exists per (user, kind, entity); the store's unique
// index is the final guard against concurrent creates.
type ReactionLedger struct {
	reactions repositories.ReactionRepository
	registry  *Registry
	counts    *CountAggregator
	logger    *zap.Logger
}

// NewReactionLedger creates a new ReactionLedger
func NewReactionLedger(reactions repositories.ReactionRepository, registry *Registry, counts *CountAggregator, logger *zap.Logger) *ReactionLedger {
	return &ReactionLedger{reactions: reactions, registry: registry, counts: counts, logger: logger}
}

// Validate checks a toggle request without touching any store
func (l *ReactionLedger) Validate(userID uint, kind models.EntityKind, entityID string, action models.ReactionAction) error {
	if userID == 0 {
		return invalid("user_id", "is required")
	}
	if !action.Valid() {
		return invalid("action", fmt.Sprintf("%q is not LIKE or DISLIKE", action))
	}
	store, err := l.registry.Store(kind)
	if err != nil {
		return err
	}
	if entityID == "" || !store.ValidID(entityID) {
		return invalid("entity_id", fmt.Sprintf("%q is not a valid %s id", entityID, kind))
	}
	return nil
}

// Toggle applies action for userID on (kind, entityID) and returns the new
// state with the recomputed counts. Entity existence is the caller's concern.
func (l *ReactionLedger) Toggle(ctx context.Context, userID uint, kind models.EntityKind, entityID string, action models.ReactionAction) (*models.ToggleResult, error) {
	if err := l.Validate(userID, kind, entityID, action); err != nil {
		return nil, err
	}

	current, err := l.transition(ctx, userID, kind, entityID, action)
	if err != nil {
		return nil, err
	}

	counts, err := l.counts.Counts(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}

	state := models.StateOf(current)
	return &models.ToggleResult{
		State:    state,
		Liked:    state == models.StateLiked,
		Disliked: state == models.StateDisliked,
		Likes:    counts.Likes,
		Dislikes: counts.Dislikes,
	}, nil
}

// transition returns the record left after the call, nil when the state is NONE
func (l *ReactionLedger) transition(ctx context.Context, userID uint, kind models.EntityKind, entityID string, action models.ReactionAction) (*models.Reaction, error) {
	existing, err := l.reactions.FindReaction(ctx, userID, kind, entityID)
	switch {
	case errors.Is(err, repositories.ErrReactionNotFound):
		return l.create(ctx, userID, kind, entityID, action)
	case err != nil:
		return nil, storeErr("find", err)
	case existing.Action == action:
		if err := l.reactions.DeleteReaction(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrReactionNotFound) {
			return nil, storeErr("delete", err)
		}
		return nil, nil
	default:
		return l.update(ctx, existing, action)
	}
}

func (l *ReactionLedger) create(ctx context.Context, userID uint, kind models.EntityKind, entityID string, action models.ReactionAction) (*models.Reaction, error) {
	reaction := &models.Reaction{
		UserID:     userID,
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
	}
	switch kind {
	case models.KindVideo:
		reaction.VideoRef = &entityID
	case models.KindPost:
		reaction.PostRef = &entityID
	}

	err := l.reactions.CreateReaction(ctx, reaction)
	if err == nil {
		return reaction, nil
	}
	if !errors.Is(err, repositories.ErrDuplicateReaction) {
		return nil, storeErr("create", err)
	}

	// Another request created the record between our read and write.
	l.logger.Debug("reaction create raced, retrying as update",
		zap.Uint("user_id", userID),
		zap.String("kind", string(kind)),
		zap.String("entity_id", entityID))

	winner, err := l.reactions.FindReaction(ctx, userID, kind, entityID)
	if errors.Is(err, repositories.ErrReactionNotFound) {
		return nil, fmt.Errorf("%w: reaction of user %d on %s %s vanished during retry", ErrConflict, userID, kind, entityID)
	}
	if err != nil {
		return nil, storeErr("find", err)
	}
	if winner.Action == action {
		return winner, nil
	}
	return l.update(ctx, winner, action)
}

func (l *ReactionLedger) update(ctx context.Context, reaction *models.Reaction, action models.ReactionAction) (*models.Reaction, error) {
	if err := l.reactions.UpdateReactionAction(ctx, reaction.ID, action); err != nil {
		if errors.Is(err, repositories.ErrReactionNotFound) {
			return nil, fmt.Errorf("%w: reaction %d deleted during update", ErrConflict, reaction.ID)
		}
		return nil, storeErr("update", err)
	}
	reaction.Action = action
	return reaction, nil
}
