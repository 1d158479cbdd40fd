package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchPlanner turns free text into a filter over the ledger's id space.
// The ledger holds no searchable content, so matching is pushed down to every
// entity store and the user directory, in parallel.
type SearchPlanner struct {
	registry *Registry
	users    UserDirectory
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSearchPlanner creates a planner. users may be nil to skip user matching.
func NewSearchPlanner(registry *Registry, users UserDirectory, timeout time.Duration, logger *zap.Logger) *SearchPlanner {
	return &SearchPlanner{registry: registry, users: users, timeout: timeout, logger: logger}
}

// Plan returns nil for a blank query. Adapters that fail or time out
// contribute no matches and are reported as degradations.
func (p *SearchPlanner) Plan(ctx context.Context, query string) (*models.SearchClause, []models.Degradation) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	clause := &models.SearchClause{
		Pattern:   q,
		EntityIDs: make(map[models.EntityKind][]string),
	}
	if p.registry.ValidAnyID(q) {
		clause.DirectEntityID = q
	}

	var (
		mu       sync.Mutex
		warnings []models.Degradation
	)
	var g errgroup.Group
	for _, kind := range p.registry.Kinds() {
		store, _ := p.registry.Store(kind)
		g.Go(func() error {
			cctx, cancel := bounded(ctx, p.timeout)
			defer cancel()
			ids, err := store.Search(cctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, degrade(p.logger, StageSearch, kind, err))
				return nil
			}
			if len(ids) > 0 {
				clause.EntityIDs[kind] = ids
			}
			return nil
		})
	}
	if p.users != nil {
		g.Go(func() error {
			cctx, cancel := bounded(ctx, p.timeout)
			defer cancel()
			ids, err := p.users.Search(cctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, degrade(p.logger, StageUsers, "", err))
				return nil
			}
			clause.UserIDs = ids
			return nil
		})
	}
	_ = g.Wait()

	sortDegradations(warnings)
	return clause, warnings
}
