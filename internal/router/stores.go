package router

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/anonto42/reaction-ledger/pkg/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Stores are the persistence adapters the reaction core runs on
type Stores struct {
	Reactions repositories.ReactionRepository
	Entities  []services.EntityStore
	Users     services.UserDirectory
	// UserLookup backs Firebase auth. nil when no user table exists.
	UserLookup middleware.UserLookup
}

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

// PostgresStores migrates PostgreSQL and builds the database backed adapters
func PostgresStores(ctx context.Context, db *config.DB, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if err := db.Postgres.AutoMigrate(&models.User{}, &models.Comment{}, &models.Reaction{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("PostgreSQL auto-migrations completed")

	limit := cfg.Reactions.SearchMatchLimit
	mongoLimit := int64(limit)
	entities := []services.EntityStore{
		repositories.NewMongoEntityStore[models.Video](db.Database, repositories.VideoSpec, mongoLimit),
		repositories.NewMongoEntityStore[models.Post](db.Database, repositories.PostSpec, mongoLimit),
		repositories.NewMongoEntityStore[models.Memory](db.Database, repositories.MemorySpec, mongoLimit),
		repositories.NewMongoEntityStore[models.Playlist](db.Database, repositories.PlaylistSpec, mongoLimit),
		repositories.NewMongoEntityStore[models.Podcast](db.Database, repositories.PodcastSpec, mongoLimit),
		repositories.NewPostgresCommentRepository(db.Postgres, limit),
	}
	for _, s := range entities {
		if ix, ok := s.(indexed); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				// Search still works without the indexes, only slower.
				logger.Warn("creating search indexes", zap.String("kind", string(s.Kind())), zap.Error(err))
			}
		}
	}

	users := repositories.NewPostgresUserRepository(db.Postgres, limit)
	return &Stores{
		Reactions:  repositories.NewPostgresReactionRepository(db.Postgres),
		Entities:   entities,
		Users:      users,
		UserLookup: users,
	}, nil
}

// MemoryStores builds empty in-process adapters for every kind. SeedMemoryStores fills them.
func MemoryStores() *Stores {
	entities := make([]services.EntityStore, 0, len(models.AllKinds))
	for _, k := range models.AllKinds {
		entities = append(entities, memory.NewEntityStore(k, idValidator(k)))
	}
	return &Stores{
		Reactions: memory.NewReactionRepository(),
		Entities:  entities,
		Users:     memory.NewUserDirectory(),
	}
}

// idValidator mirrors the id format of the database backed store of k
func idValidator(k models.EntityKind) func(string) bool {
	if k == models.KindComment {
		return func(id string) bool {
			n, err := strconv.ParseUint(id, 10, 64)
			return err == nil && n > 0
		}
	}
	return primitive.IsValidObjectID
}
