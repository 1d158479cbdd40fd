package services

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EntityResolver enriches a page of reactions with their targets and users.
// It issues one bulk fetch per kind present on the page, all concurrently.
type EntityResolver struct {
	registry *Registry
	users    UserDirectory
	timeout  time.Duration
	logger   *zap.Logger
}

// NewEntityResolver creates a resolver. users may be nil to skip user enrichment.
// timeout bounds every single adapter call independently.
func NewEntityResolver(registry *Registry, users UserDirectory, timeout time.Duration, logger *zap.Logger) *EntityResolver {
	return &EntityResolver{registry: registry, users: users, timeout: timeout, logger: logger}
}

// Resolve returns one row per reaction, in input order. A target that no
// longer exists, or whose store failed, leaves Target nil.
func (r *EntityResolver) Resolve(ctx context.Context, reactions []models.Reaction) ([]models.ReactionRow, []models.Degradation) {
	idsByKind := partitionByKind(reactions)
	userIDs := distinctUsers(reactions)

	var (
		mu       sync.Mutex
		targets  = make(map[models.EntityKind]map[string]any, len(idsByKind))
		users    map[uint]models.UserCompact
		warnings []models.Degradation
	)

	// A plain Group: one failing kind must not cancel its siblings.
	var g errgroup.Group
	for kind, ids := range idsByKind {
		g.Go(func() error {
			docs, err := r.fetch(ctx, kind, ids)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, degrade(r.logger, StageResolve, kind, err))
				return nil
			}
			targets[kind] = docs
			return nil
		})
	}
	if r.users != nil && len(userIDs) > 0 {
		g.Go(func() error {
			cctx, cancel := bounded(ctx, r.timeout)
			defer cancel()
			found, err := r.users.BulkGet(cctx, userIDs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, degrade(r.logger, StageUsers, "", err))
				return nil
			}
			users = found
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]models.ReactionRow, len(reactions))
	for i, reaction := range reactions {
		row := models.ReactionRow{Reaction: reaction}
		if doc, ok := targets[reaction.EntityKind][reaction.EntityID]; ok {
			row.Target = doc
		}
		if u, ok := users[reaction.UserID]; ok {
			row.User = &u
		}
		rows[i] = row
	}
	sortDegradations(warnings)
	return rows, warnings
}

// ResolveOne enriches a single reaction
func (r *EntityResolver) ResolveOne(ctx context.Context, reaction models.Reaction) (models.ReactionRow, []models.Degradation) {
	rows, warnings := r.Resolve(ctx, []models.Reaction{reaction})
	return rows[0], warnings
}

func (r *EntityResolver) fetch(ctx context.Context, kind models.EntityKind, ids []string) (map[string]any, error) {
	store, err := r.registry.Store(kind)
	if err != nil {
		return nil, err
	}
	cctx, cancel := bounded(ctx, r.timeout)
	defer cancel()
	return store.BulkGet(cctx, ids)
}

// partitionByKind groups distinct entity ids by kind, keeping first-seen order
func partitionByKind(reactions []models.Reaction) map[models.EntityKind][]string {
	out := make(map[models.EntityKind][]string)
	seen := make(map[models.EntityKind]map[string]bool)
	for _, r := range reactions {
		if r.EntityID == "" {
			continue
		}
		if seen[r.EntityKind] == nil {
			seen[r.EntityKind] = make(map[string]bool)
		}
		if seen[r.EntityKind][r.EntityID] {
			continue
		}
		seen[r.EntityKind][r.EntityID] = true
		out[r.EntityKind] = append(out[r.EntityKind], r.EntityID)
	}
	return out
}

func distinctUsers(reactions []models.Reaction) []uint {
	seen := make(map[uint]bool, len(reactions))
	var out []uint
	for _, r := range reactions {
		if r.UserID == 0 || seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, r.UserID)
	}
	return out
}
