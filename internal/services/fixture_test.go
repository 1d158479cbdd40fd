package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testTimeout = 100 * time.Millisecond

type fixture struct {
	repo       *memory.ReactionRepository
	stores     map[models.EntityKind]*memory.EntityStore
	users      *memory.UserDirectory
	registry   *Registry
	counts     *CountAggregator
	ledger     *ReactionLedger
	resolver   *EntityResolver
	planner    *SearchPlanner
	moderation *ModerationService

	nextComment int
}

func numericID(id string) bool {
	n, err := strconv.ParseUint(id, 10, 64)
	return err == nil && n > 0
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, nil)
}

// newFixtureWithRepo wires every service on reactions, or on a fresh memory
// repository when reactions is nil
func newFixtureWithRepo(t *testing.T, reactions repositories.ReactionRepository) *fixture {
	t.Helper()
	f := &fixture{
		repo:   memory.NewReactionRepository(),
		stores: make(map[models.EntityKind]*memory.EntityStore),
		users: memory.NewUserDirectory(
			models.UserCompact{ID: 1, Name: "Xavier", Email: "x@example.com"},
			models.UserCompact{ID: 2, Name: "Yasmin", Email: "y@example.com"},
		),
	}
	if reactions == nil {
		reactions = f.repo
	}

	var stores []EntityStore
	for _, k := range models.AllKinds {
		validID := primitive.IsValidObjectID
		if k == models.KindComment {
			validID = numericID
		}
		s := memory.NewEntityStore(k, validID)
		f.stores[k] = s
		stores = append(stores, s)
	}

	registry, err := NewRegistry(stores...)
	require.NoError(t, err)
	f.registry = registry

	logger := zap.NewNop()
	f.counts = NewCountAggregator(reactions, registry, logger)
	f.ledger = NewReactionLedger(reactions, registry, f.counts, logger)
	f.resolver = NewEntityResolver(registry, f.users, testTimeout, logger)
	f.planner = NewSearchPlanner(registry, f.users, testTimeout, logger)
	f.moderation = NewModerationService(reactions, registry, f.resolver, f.planner, ModerationConfig{
		AdapterTimeout: testTimeout,
	}, logger)
	return f
}

func oid() string {
	return primitive.NewObjectID().Hex()
}

// put stores a target document under a fresh valid id of kind
func (f *fixture) put(kind models.EntityKind, text ...string) string {
	id := oid()
	if kind == models.KindComment {
		f.nextComment++
		id = strconv.Itoa(f.nextComment)
	}
	f.stores[kind].Put(id, map[string]string{"id": id}, text...)
	return id
}

// react toggles and fails the test on error
func (f *fixture) react(t *testing.T, userID uint, kind models.EntityKind, id string, action models.ReactionAction) *models.ToggleResult {
	t.Helper()
	res, err := f.ledger.Toggle(context.Background(), userID, kind, id, action)
	require.NoError(t, err)
	return res
}

// records returns every ledger record of one triple
func (f *fixture) records(t *testing.T, userID uint, kind models.EntityKind, id string) []models.Reaction {
	t.Helper()
	rows, _, err := f.repo.ListReactions(context.Background(), models.ReactionQuery{UserID: userID, Kind: kind, EntityID: id})
	require.NoError(t, err)
	return rows
}
