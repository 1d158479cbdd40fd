package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrReactionNotFound is returned when no reaction matches a lookup
	ErrReactionNotFound = errors.New("reaction not found")

	// ErrDuplicateReaction is returned when a create hits the (user, kind, entity) unique index
	ErrDuplicateReaction = errors.New("reaction already exists for user and entity")
)

// ReactionRepository defines the ledger store operations
type ReactionRepository interface {
	FindReaction(ctx context.Context, userID uint, kind models.EntityKind, entityID string) (*models.Reaction, error)
	GetReactionByID(ctx context.Context, id uint) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	UpdateReactionAction(ctx context.Context, id uint, action models.ReactionAction) error
	DeleteReaction(ctx context.Context, id uint) error
	CountByAction(ctx context.Context, kind models.EntityKind, entityID string) (models.ReactionCounts, error)
	FindUserReactions(ctx context.Context, userID uint, kind models.EntityKind, entityIDs []string) ([]models.Reaction, error)
	ListReactions(ctx context.Context, q models.ReactionQuery) ([]models.Reaction, int64, error)
	DeleteReactions(ctx context.Context, sel models.ReactionSelector) ([]models.Reaction, error)
	Stats(ctx context.Context, since time.Time) (*models.ReactionStats, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL.
// The gorm handle must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// FindReaction retrieves the reaction of a user on one entity
func (r *PostgresReactionRepository) FindReaction(ctx context.Context, userID uint, kind models.EntityKind, entityID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_kind = ? AND entity_id = ?", userID, kind, entityID).
		First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReactionNotFound
		}
		return nil, err
	}
	return &reaction, nil
}

// GetReactionByID retrieves a reaction by its primary key
func (r *PostgresReactionRepository) GetReactionByID(ctx context.Context, id uint) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReactionNotFound
		}
		return nil, err
	}
	return &reaction, nil
}

// CreateReaction inserts a new reaction
func (r *PostgresReactionRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReaction
		}
		return err
	}
	return nil
}

// UpdateReactionAction flips the action of an existing reaction
func (r *PostgresReactionRepository) UpdateReactionAction(ctx context.Context, id uint, action models.ReactionAction) error {
	res := r.db.WithContext(ctx).Model(&models.Reaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"action":     action,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReactionNotFound
	}
	return nil
}

// DeleteReaction physically deletes one reaction
func (r *PostgresReactionRepository) DeleteReaction(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reaction{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReactionNotFound
	}
	return nil
}

// CountByAction counts the likes and dislikes of one entity
func (r *PostgresReactionRepository) CountByAction(ctx context.Context, kind models.EntityKind, entityID string) (models.ReactionCounts, error) {
	var groups []models.GroupCount
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select(`action AS "key", COUNT(*) AS "count"`).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Group("action").
		Scan(&groups).Error
	if err != nil {
		return models.ReactionCounts{}, err
	}
	var counts models.ReactionCounts
	for _, g := range groups {
		switch models.ReactionAction(g.Key) {
		case models.ActionLike:
			counts.Likes = g.Count
		case models.ActionDislike:
			counts.Dislikes = g.Count
		}
	}
	return counts, nil
}

// FindUserReactions retrieves a user's reactions on a set of entities of one kind
func (r *PostgresReactionRepository) FindUserReactions(ctx context.Context, userID uint, kind models.EntityKind, entityIDs []string) ([]models.Reaction, error) {
	var reactions []models.Reaction
	if len(entityIDs) == 0 {
		return reactions, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_kind = ? AND entity_id IN ?", userID, kind, entityIDs).
		Find(&reactions).Error
	return reactions, err
}

// ListReactions returns one page of reactions matching q and the total match count
func (r *PostgresReactionRepository) ListReactions(ctx context.Context, q models.ReactionQuery) ([]models.Reaction, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reactions []models.Reaction
	tx := r.filtered(ctx, q)
	for _, o := range orderFor(q.Sort) {
		tx = tx.Order(o)
	}
	if err := tx.Offset(q.Offset).Limit(q.Limit).Find(&reactions).Error; err != nil {
		return nil, 0, err
	}
	return reactions, total, nil
}

// DeleteReactions deletes every reaction matching sel and returns the deleted rows
func (r *PostgresReactionRepository) DeleteReactions(ctx context.Context, sel models.ReactionSelector) ([]models.Reaction, error) {
	var deleted []models.Reaction
	if sel.Empty() {
		return deleted, nil
	}
	tx := r.db.WithContext(ctx).Clauses(clause.Returning{})
	if len(sel.IDs) > 0 {
		tx = tx.Where("id IN ?", sel.IDs)
	}
	if sel.UserID != 0 {
		tx = tx.Where("user_id = ?", sel.UserID)
	}
	if sel.Kind != "" {
		tx = tx.Where("entity_kind = ?", sel.Kind)
	}
	if sel.EntityID != "" {
		tx = tx.Where("entity_id = ?", sel.EntityID)
	}
	if err := tx.Delete(&deleted).Error; err != nil {
		return nil, err
	}
	return deleted, nil
}

// Stats groups the ledger by kind, by action and by day since the given time
func (r *PostgresReactionRepository) Stats(ctx context.Context, since time.Time) (*models.ReactionStats, error) {
	stats := &models.ReactionStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Reaction{}).
		Select(`entity_kind AS "key", COUNT(*) AS "count"`).
		Group("entity_kind").Order(`"count" DESC`).
		Scan(&stats.ByKind).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Reaction{}).
		Select(`action AS "key", COUNT(*) AS "count"`).
		Group("action").Order(`"count" DESC`).
		Scan(&stats.ByAction).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Reaction{}).
		Select(`to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS "key", COUNT(*) AS "count"`).
		Where("created_at >= ?", since).
		Group(`"key"`).Order(`"key" ASC`).
		Scan(&stats.Daily).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Reaction{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresReactionRepository) filtered(ctx context.Context, q models.ReactionQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Reaction{})
	if q.Kind != "" {
		tx = tx.Where("entity_kind = ?", q.Kind)
	}
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if q.UserID != 0 {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.EntityID != "" {
		tx = tx.Where("entity_id = ?", q.EntityID)
	}
	if q.DateFrom != nil {
		tx = tx.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("created_at <= ?", *q.DateTo)
	}
	if q.Search != nil {
		cond, args := searchCondition(q.Search)
		tx = tx.Where(cond, args...)
	}
	return tx
}

// searchCondition compiles a search clause into one parenthesized OR condition
func searchCondition(s *models.SearchClause) (string, []interface{}) {
	var parts []string
	var args []interface{}

	if s.Pattern != "" {
		pattern := "%" + escapeLike(s.Pattern) + "%"
		parts = append(parts, "entity_kind ILIKE ?", "action ILIKE ?")
		args = append(args, pattern, pattern)
	}
	if len(s.UserIDs) > 0 {
		parts = append(parts, "user_id IN ?")
		args = append(args, s.UserIDs)
	}

	kinds := make([]string, 0, len(s.EntityIDs))
	for k, ids := range s.EntityIDs {
		if len(ids) > 0 {
			kinds = append(kinds, string(k))
		}
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		parts = append(parts, "(entity_kind = ? AND entity_id IN ?)")
		args = append(args, k, s.EntityIDs[models.EntityKind(k)])
	}

	if s.DirectEntityID != "" {
		parts = append(parts, "entity_id = ?")
		args = append(args, s.DirectEntityID)
	}

	if len(parts) == 0 {
		return "1 = 0", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func orderFor(s models.ReactionSort) []string {
	switch s {
	case models.SortOldest:
		return []string{"created_at ASC", "id ASC"}
	case models.SortMostActive:
		return []string{"entity_kind ASC", "entity_id ASC", "created_at DESC", "id DESC"}
	default:
		return []string{"created_at DESC", "id DESC"}
	}
}
