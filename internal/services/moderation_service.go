package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Upper bound of the stats window, in days
const maxStatsWindow = 365

// ModerationConfig tunes paging, stats and counter reconciliation
type ModerationConfig struct {
	DefaultPageSize   int
	MaxPageSize       int
	StatsWindowDays   int
	AdapterTimeout    time.Duration
	ReconcileParallel int
}

func (c ModerationConfig) withDefaults() ModerationConfig {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	if c.StatsWindowDays <= 0 {
		c.StatsWindowDays = 7
	}
	if c.ReconcileParallel <= 0 {
		c.ReconcileParallel = 8
	}
	return c
}

// ModerationService serves the admin surface: listing, detail, deletion and stats
type ModerationService struct {
	reactions repositories.ReactionRepository
	registry  *Registry
	resolver  *EntityResolver
	planner   *SearchPlanner
	cfg       ModerationConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewModerationService creates a new ModerationService
func NewModerationService(
	reactions repositories.ReactionRepository,
	registry *Registry,
	resolver *EntityResolver,
	planner *SearchPlanner,
	cfg ModerationConfig,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		reactions: reactions,
		registry:  registry,
		resolver:  resolver,
		planner:   planner,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		now:       time.Now,
	}
}

// List returns one resolved page of reactions. page is 1-indexed.
func (s *ModerationService) List(ctx context.Context, filter models.ReactionFilter, page, limit int) (*models.ReactionPage, error) {
	page, limit = s.paging(page, limit)

	query := models.ReactionQuery{
		Kind:     filter.Kind,
		Action:   filter.Action,
		UserID:   filter.UserID,
		EntityID: filter.EntityID,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Sort:     filter.Sort,
		Offset:   offset(page, limit),
		Limit:    limit,
	}

	var warnings []models.Degradation
	if filter.Search != "" {
		query.Search, warnings = s.planner.Plan(ctx, filter.Search)
	}

	reactions, total, err := s.reactions.ListReactions(ctx, query)
	if err != nil {
		return nil, storeErr("list", err)
	}

	rows, resolveWarnings := s.resolver.Resolve(ctx, reactions)
	warnings = append(warnings, resolveWarnings...)

	return &models.ReactionPage{
		Rows:       rows,
		Pagination: paginate(page, limit, total),
		Warnings:   warnings,
	}, nil
}

// Detail returns one reaction with its user and target
func (s *ModerationService) Detail(ctx context.Context, id uint) (*models.ReactionRow, []models.Degradation, error) {
	reaction, err := s.reactions.GetReactionByID(ctx, id)
	if errors.Is(err, repositories.ErrReactionNotFound) {
		return nil, nil, fmt.Errorf("%w: reaction %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, storeErr("get", err)
	}
	row, warnings := s.resolver.ResolveOne(ctx, *reaction)
	return &row, warnings, nil
}

// Delete removes one reaction and reconciles the mirror of its target
func (s *ModerationService) Delete(ctx context.Context, id uint) (*models.BulkDeleteResult, error) {
	if id == 0 {
		return nil, invalid("id", "is required")
	}
	result, err := s.BulkDelete(ctx, models.ReactionSelector{IDs: []uint{id}})
	if err != nil {
		return nil, err
	}
	if result.DeletedCount == 0 {
		return nil, fmt.Errorf("%w: reaction %d", ErrNotFound, id)
	}
	return result, nil
}

// BulkDelete removes every reaction matching sel. The mirrored counters of each
// affected target are then lowered once, by the number of removed likes and dislikes.
func (s *ModerationService) BulkDelete(ctx context.Context, sel models.ReactionSelector) (*models.BulkDeleteResult, error) {
	if sel.Empty() {
		return nil, invalid("selector", "at least one of reaction_ids, user_id, type or target_id is required")
	}
	if sel.Kind != "" && !s.registry.Has(sel.Kind) {
		return nil, invalid("type", fmt.Sprintf("%q is not a registered entity kind", sel.Kind))
	}

	deleted, err := s.reactions.DeleteReactions(ctx, sel)
	if err != nil {
		return nil, storeErr("bulk delete", err)
	}

	adjusted, warnings := s.reconcile(ctx, deleted)
	s.logger.Info("reactions bulk deleted",
		zap.Int("deleted", len(deleted)),
		zap.Int("targets", len(groupDeleted(deleted))),
		zap.Int("warnings", len(warnings)))

	return &models.BulkDeleteResult{
		DeletedCount: int64(len(deleted)),
		Adjusted:     adjusted,
		Warnings:     warnings,
	}, nil
}

// Stats summarizes the ledger. The daily series covers the trailing window in
// UTC, oldest day first, with empty days present as zero.
func (s *ModerationService) Stats(ctx context.Context, windowDays int) (*models.ReactionStats, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.StatsWindowDays
	}
	if windowDays > maxStatsWindow {
		windowDays = maxStatsWindow
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(windowDays - 1))

	stats, err := s.reactions.Stats(ctx, since)
	if err != nil {
		return nil, storeErr("stats", err)
	}

	perDay := make(map[string]int64, len(stats.Daily))
	for _, d := range stats.Daily {
		perDay[d.Key] = d.Count
	}
	daily := make([]models.GroupCount, 0, windowDays)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		daily = append(daily, models.GroupCount{Key: key, Count: perDay[key]})
	}
	stats.Daily = daily
	stats.WindowDays = windowDays
	return stats, nil
}

type targetKey struct {
	kind models.EntityKind
	id   string
}

func groupDeleted(deleted []models.Reaction) map[targetKey]*models.ReactionCounts {
	groups := make(map[targetKey]*models.ReactionCounts)
	for _, r := range deleted {
		key := targetKey{kind: r.EntityKind, id: r.EntityID}
		c, ok := groups[key]
		if !ok {
			c = &models.ReactionCounts{}
			groups[key] = c
		}
		switch r.Action {
		case models.ActionLike:
			c.Likes++
		case models.ActionDislike:
			c.Dislikes++
		}
	}
	return groups
}

func (s *ModerationService) reconcile(ctx context.Context, deleted []models.Reaction) (map[models.EntityKind]int, []models.Degradation) {
	groups := groupDeleted(deleted)
	keys := make([]targetKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].id < keys[j].id
	})

	var (
		mu       sync.Mutex
		adjusted = make(map[models.EntityKind]int)
		warnings []models.Degradation
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.ReconcileParallel)
	for _, key := range keys {
		counts := groups[key]
		g.Go(func() error {
			err := s.decrement(ctx, key, *counts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, degrade(s.logger, StageReconcile, key.kind,
					fmt.Errorf("%s: %w", key.id, err)))
				return nil
			}
			adjusted[key.kind]++
			return nil
		})
	}
	_ = g.Wait()

	sortDegradations(warnings)
	return adjusted, warnings
}

func (s *ModerationService) decrement(ctx context.Context, key targetKey, counts models.ReactionCounts) error {
	store, err := s.registry.Store(key.kind)
	if err != nil {
		return err
	}
	cctx, cancel := bounded(ctx, s.cfg.AdapterTimeout)
	defer cancel()
	return store.DecrementCounters(cctx, key.id, counts.Likes, counts.Dislikes)
}

func (s *ModerationService) paging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	return page, limit
}

// offset is the row offset of page. Pages whose offset would overflow start
// past any possible row.
func offset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func paginate(page, limit int, total int64) models.Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return models.Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
