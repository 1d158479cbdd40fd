package repositories

import (
	"context"
	"strconv"

	"github.com/anonto42/reaction-ledger/internal/models"
	"gorm.io/gorm"
)

// PostgresCommentRepository serves COMMENT targets from PostgreSQL
type PostgresCommentRepository struct {
	db          *gorm.DB
	searchLimit int
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB, searchLimit int) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db, searchLimit: searchLimit}
}

// Kind returns the content kind served by the store
func (r *PostgresCommentRepository) Kind() models.EntityKind {
	return models.KindComment
}

// ValidID reports whether id is a positive integer key
func (r *PostgresCommentRepository) ValidID(id string) bool {
	_, ok := parseUintID(id)
	return ok
}

// Exists checks whether a comment exists and is not soft deleted
func (r *PostgresCommentRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, ok := parseUintID(id)
	if !ok {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", n).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// BulkGet retrieves comments by id in one query
func (r *PostgresCommentRepository) BulkGet(ctx context.Context, ids []string) (map[string]any, error) {
	result := make(map[string]any, len(ids))
	keys := make([]uint, 0, len(ids))
	for _, id := range ids {
		if n, ok := parseUintID(id); ok {
			keys = append(keys, n)
		}
	}
	if len(keys) == 0 {
		return result, nil
	}
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("id IN ?", keys).Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		result[strconv.FormatUint(uint64(c.ID), 10)] = c
	}
	return result, nil
}

// Search returns the ids of comments whose content contains query (case-insensitive)
func (r *PostgresCommentRepository) Search(ctx context.Context, query string) ([]string, error) {
	var keys []uint
	tx := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("content ILIKE ?", "%"+escapeLike(query)+"%")
	if r.searchLimit > 0 {
		tx = tx.Limit(r.searchLimit)
	}
	if err := tx.Pluck("id", &keys).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strconv.FormatUint(uint64(k), 10)
	}
	return ids, nil
}

// SyncCounters overwrites the mirrored like/dislike counters of a comment
func (r *PostgresCommentRepository) SyncCounters(ctx context.Context, id string, likes, dislikes int64) error {
	n, ok := parseUintID(id)
	if !ok {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", n).Updates(map[string]interface{}{
		"likes_count":    likes,
		"dislikes_count": dislikes,
	}).Error
}

// DecrementCounters lowers the mirrored counters of a comment
func (r *PostgresCommentRepository) DecrementCounters(ctx context.Context, id string, likes, dislikes int64) error {
	n, ok := parseUintID(id)
	if !ok || (likes == 0 && dislikes == 0) {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", n).Updates(map[string]interface{}{
		"likes_count":    gorm.Expr("likes_count - ?", likes),
		"dislikes_count": gorm.Expr("dislikes_count - ?", dislikes),
	}).Error
}

func parseUintID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
