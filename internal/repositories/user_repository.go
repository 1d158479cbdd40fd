package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/reaction-ledger/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no user matches a lookup
var ErrUserNotFound = errors.New("user not found")

// PostgresUserRepository is the user directory backed by PostgreSQL
type PostgresUserRepository struct {
	db          *gorm.DB
	searchLimit int
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB, searchLimit int) *PostgresUserRepository {
	return &PostgresUserRepository{db: db, searchLimit: searchLimit}
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// BulkGet retrieves the compact profile of every user in ids
func (r *PostgresUserRepository) BulkGet(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error) {
	result := make(map[uint]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = users[i].ToCompact()
	}
	return result, nil
}

// Search returns the ids of users whose name or email contains query (case-insensitive)
func (r *PostgresUserRepository) Search(ctx context.Context, query string) ([]uint, error) {
	var ids []uint
	pattern := "%" + escapeLike(query) + "%"
	tx := r.db.WithContext(ctx).Model(&models.User{}).
		Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	if r.searchLimit > 0 {
		tx = tx.Limit(r.searchLimit)
	}
	if err := tx.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
