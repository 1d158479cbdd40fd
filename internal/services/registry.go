package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anonto42/reaction-ledger/internal/models"
)

// EntityStore is the per kind adapter the reaction core reads targets through.
// Counter methods write advisory mirrors only.
type EntityStore interface {
	Kind() models.EntityKind
	ValidID(id string) bool
	Exists(ctx context.Context, id string) (bool, error)
	BulkGet(ctx context.Context, ids []string) (map[string]any, error)
	Search(ctx context.Context, query string) ([]string, error)
	SyncCounters(ctx context.Context, id string, likes, dislikes int64) error
	DecrementCounters(ctx context.Context, id string, likes, dislikes int64) error
}

// UserDirectory resolves and searches reacting users
type UserDirectory interface {
	BulkGet(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error)
	Search(ctx context.Context, query string) ([]uint, error)
}

// Registry maps every registered kind to its store. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	stores map[models.EntityKind]EntityStore
}

// NewRegistry builds a registry from stores, keyed by their own Kind()
func NewRegistry(stores ...EntityStore) (*Registry, error) {
	r := &Registry{stores: make(map[models.EntityKind]EntityStore, len(stores))}
	for _, s := range stores {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a store. Registering a kind twice is an error.
func (r *Registry) Register(s EntityStore) error {
	k := s.Kind()
	if _, dup := r.stores[k]; dup {
		return fmt.Errorf("entity kind %s registered twice", k)
	}
	r.stores[k] = s
	return nil
}

// Store returns the store of kind k or a validation error if k is unregistered
func (r *Registry) Store(k models.EntityKind) (EntityStore, error) {
	s, ok := r.stores[k]
	if !ok {
		return nil, invalid("kind", fmt.Sprintf("%q is not a registered entity kind", k))
	}
	return s, nil
}

// Has reports whether k is registered
func (r *Registry) Has(k models.EntityKind) bool {
	_, ok := r.stores[k]
	return ok
}

// Kinds returns the registered kinds sorted by name
func (r *Registry) Kinds() []models.EntityKind {
	kinds := make([]models.EntityKind, 0, len(r.stores))
	for k := range r.stores {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ValidAnyID reports whether id is syntactically valid for at least one store
func (r *Registry) ValidAnyID(id string) bool {
	for _, s := range r.stores {
		if s.ValidID(id) {
			return true
		}
	}
	return false
}

var kindAliases = map[string]models.EntityKind{
	"VIDEO": models.KindVideo, "VIDEOS": models.KindVideo,
	"POST": models.KindPost, "POSTS": models.KindPost,
	"COMMENT": models.KindComment, "COMMENTS": models.KindComment,
	"MEMORY": models.KindMemory, "MEMORIES": models.KindMemory,
	"PLAYLIST": models.KindPlaylist, "PLAYLISTS": models.KindPlaylist,
	"PODCAST": models.KindPodcast, "PODCASTS": models.KindPodcast,
}

// ParseKind normalizes a user supplied kind: any case, singular or plural.
// ok is false for anything that is not a known kind.
func ParseKind(raw string) (models.EntityKind, bool) {
	k, ok := kindAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return k, ok
}

// ParseAction normalizes a user supplied action
func ParseAction(raw string) (models.ReactionAction, bool) {
	a := models.ReactionAction(strings.ToUpper(strings.TrimSpace(raw)))
	return a, a.Valid()
}
