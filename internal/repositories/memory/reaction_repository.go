package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories"
)

type tripleKey struct {
	userID   uint
	kind     models.EntityKind
	entityID string
}

func keyOf(r *models.Reaction) tripleKey {
	return tripleKey{userID: r.UserID, kind: r.EntityKind, entityID: r.EntityID}
}

// ReactionRepository is an in-memory ledger store. The triple index plays the
// role of the unique index of the PostgreSQL table.
type ReactionRepository struct {
	mu       sync.RWMutex
	nextID   uint
	byID     map[uint]*models.Reaction
	byTriple map[tripleKey]uint
	now      func() time.Time
}

// NewReactionRepository creates an empty in-memory ledger store
func NewReactionRepository() *ReactionRepository {
	return &ReactionRepository{
		byID:     make(map[uint]*models.Reaction),
		byTriple: make(map[tripleKey]uint),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for created_at/updated_at
func (r *ReactionRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *ReactionRepository) FindReaction(ctx context.Context, userID uint, kind models.EntityKind, entityID string) (*models.Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTriple[tripleKey{userID: userID, kind: kind, entityID: entityID}]
	if !ok {
		return nil, repositories.ErrReactionNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *ReactionRepository) GetReactionByID(ctx context.Context, id uint) (*models.Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reaction, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrReactionNotFound
	}
	c := *reaction
	return &c, nil
}

func (r *ReactionRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(reaction)
	if _, exists := r.byTriple[k]; exists {
		return repositories.ErrDuplicateReaction
	}

	r.nextID++
	reaction.ID = r.nextID
	now := r.now()
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = now
	}
	if reaction.UpdatedAt.IsZero() {
		reaction.UpdatedAt = now
	}

	c := *reaction
	r.byID[c.ID] = &c
	r.byTriple[k] = c.ID
	return nil
}

func (r *ReactionRepository) UpdateReactionAction(ctx context.Context, id uint, action models.ReactionAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaction, ok := r.byID[id]
	if !ok {
		return repositories.ErrReactionNotFound
	}
	reaction.Action = action
	reaction.UpdatedAt = r.now()
	return nil
}

func (r *ReactionRepository) DeleteReaction(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaction, ok := r.byID[id]
	if !ok {
		return repositories.ErrReactionNotFound
	}
	delete(r.byTriple, keyOf(reaction))
	delete(r.byID, id)
	return nil
}

func (r *ReactionRepository) CountByAction(ctx context.Context, kind models.EntityKind, entityID string) (models.ReactionCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts models.ReactionCounts
	for _, reaction := range r.byID {
		if reaction.EntityKind != kind || reaction.EntityID != entityID {
			continue
		}
		switch reaction.Action {
		case models.ActionLike:
			counts.Likes++
		case models.ActionDislike:
			counts.Dislikes++
		}
	}
	return counts, nil
}

func (r *ReactionRepository) FindUserReactions(ctx context.Context, userID uint, kind models.EntityKind, entityIDs []string) ([]models.Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Reaction
	for _, id := range entityIDs {
		if rid, ok := r.byTriple[tripleKey{userID: userID, kind: kind, entityID: id}]; ok {
			out = append(out, *r.byID[rid])
		}
	}
	return out, nil
}

func (r *ReactionRepository) ListReactions(ctx context.Context, q models.ReactionQuery) ([]models.Reaction, int64, error) {
	r.mu.RLock()
	matched := make([]models.Reaction, 0, len(r.byID))
	for _, reaction := range r.byID {
		if matches(reaction, q) {
			matched = append(matched, *reaction)
		}
	}
	r.mu.RUnlock()

	sortReactions(matched, q.Sort)
	total := int64(len(matched))

	if q.Offset < 0 || q.Offset >= len(matched) {
		return []models.Reaction{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *ReactionRepository) DeleteReactions(ctx context.Context, sel models.ReactionSelector) ([]models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []models.Reaction
	if sel.Empty() {
		return deleted, nil
	}
	ids := make(map[uint]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		ids[id] = true
	}
	for id, reaction := range r.byID {
		if len(ids) > 0 && !ids[id] {
			continue
		}
		if sel.UserID != 0 && reaction.UserID != sel.UserID {
			continue
		}
		if sel.Kind != "" && reaction.EntityKind != sel.Kind {
			continue
		}
		if sel.EntityID != "" && reaction.EntityID != sel.EntityID {
			continue
		}
		deleted = append(deleted, *reaction)
		delete(r.byTriple, keyOf(reaction))
		delete(r.byID, id)
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].ID < deleted[j].ID })
	return deleted, nil
}

func (r *ReactionRepository) Stats(ctx context.Context, since time.Time) (*models.ReactionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byKind := map[string]int64{}
	byAction := map[string]int64{}
	daily := map[string]int64{}
	for _, reaction := range r.byID {
		byKind[string(reaction.EntityKind)]++
		byAction[string(reaction.Action)]++
		if !reaction.CreatedAt.Before(since) {
			daily[reaction.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	stats := &models.ReactionStats{
		ByKind:   byCountDesc(byKind),
		ByAction: byCountDesc(byAction),
		Daily:    byKeyAsc(daily),
		Total:    int64(len(r.byID)),
	}
	return stats, nil
}

func matches(r *models.Reaction, q models.ReactionQuery) bool {
	if q.Kind != "" && r.EntityKind != q.Kind {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.UserID != 0 && r.UserID != q.UserID {
		return false
	}
	if q.EntityID != "" && r.EntityID != q.EntityID {
		return false
	}
	if q.DateFrom != nil && r.CreatedAt.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && r.CreatedAt.After(*q.DateTo) {
		return false
	}
	if q.Search != nil && !matchesSearch(r, q.Search) {
		return false
	}
	return true
}

func matchesSearch(r *models.Reaction, s *models.SearchClause) bool {
	if s.Pattern != "" {
		p := strings.ToLower(s.Pattern)
		if strings.Contains(strings.ToLower(string(r.EntityKind)), p) || strings.Contains(strings.ToLower(string(r.Action)), p) {
			return true
		}
	}
	for _, id := range s.UserIDs {
		if r.UserID == id {
			return true
		}
	}
	for _, id := range s.EntityIDs[r.EntityKind] {
		if r.EntityID == id {
			return true
		}
	}
	return s.DirectEntityID != "" && r.EntityID == s.DirectEntityID
}

func sortReactions(rs []models.Reaction, by models.ReactionSort) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		switch by {
		case models.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case models.SortMostActive:
			if a.EntityKind != b.EntityKind {
				return a.EntityKind < b.EntityKind
			}
			if a.EntityID != b.EntityID {
				return a.EntityID < b.EntityID
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func byCountDesc(m map[string]int64) []models.GroupCount {
	out := make([]models.GroupCount, 0, len(m))
	for k, n := range m {
		out = append(out, models.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func byKeyAsc(m map[string]int64) []models.GroupCount {
	out := make([]models.GroupCount, 0, len(m))
	for k, n := range m {
		out = append(out, models.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
