package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
)

// Store method names, used with Calls, Fail and SetDelay
const (
	OpExists   = "Exists"
	OpBulkGet  = "BulkGet"
	OpSearch   = "Search"
	OpSync     = "SyncCounters"
	OpDecrease = "DecrementCounters"
)

type entity struct {
	doc      any
	text     []string
	likes    int64
	dislikes int64
}

// Counters are the mirrored like/dislike counters of one entity
type Counters struct {
	Likes    int64
	Dislikes int64
}

// EntityStore is an in-memory content store of one kind
type EntityStore struct {
	kind    models.EntityKind
	validID func(string) bool

	mu       sync.RWMutex
	entities map[string]*entity
	calls    map[string]int
	failures map[string]error
	delays   map[string]time.Duration
}

// NewEntityStore creates an empty store for kind. validID may be nil, in which
// case any non-empty id is valid.
func NewEntityStore(kind models.EntityKind, validID func(string) bool) *EntityStore {
	if validID == nil {
		validID = func(id string) bool { return id != "" }
	}
	return &EntityStore{
		kind:     kind,
		validID:  validID,
		entities: make(map[string]*entity),
		calls:    make(map[string]int),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
	}
}

// Put stores doc under id. text holds the searchable fields.
func (s *EntityStore) Put(id string, doc any, text ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[id] = &entity{doc: doc, text: text}
}

// Remove deletes the entity, leaving reactions on it dangling
func (s *EntityStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, id)
}

// SetCounters seeds the mirrored counters of id
func (s *EntityStore) SetCounters(id string, c Counters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.likes, e.dislikes = c.Likes, c.Dislikes
	}
}

// Counters returns the mirrored counters of id
func (s *EntityStore) Counters(id string) Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entities[id]; ok {
		return Counters{Likes: e.likes, Dislikes: e.dislikes}
	}
	return Counters{}
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *EntityStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetDelay makes op wait d before answering, or until its context ends
func (s *EntityStore) SetDelay(op string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[op] = d
}

// Calls returns how many times op was invoked
func (s *EntityStore) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

func (s *EntityStore) Kind() models.EntityKind {
	return s.kind
}

func (s *EntityStore) ValidID(id string) bool {
	return s.validID(id)
}

func (s *EntityStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := s.enter(ctx, OpExists); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entities[id]
	return ok, nil
}

func (s *EntityStore) BulkGet(ctx context.Context, ids []string) (map[string]any, error) {
	if err := s.enter(ctx, OpBulkGet); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(ids))
	for _, id := range ids {
		if e, ok := s.entities[id]; ok {
			out[id] = e.doc
		}
	}
	return out, nil
}

func (s *EntityStore) Search(ctx context.Context, query string) ([]string, error) {
	if err := s.enter(ctx, OpSearch); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchText(s.entities, query), nil
}

func (s *EntityStore) SyncCounters(ctx context.Context, id string, likes, dislikes int64) error {
	if err := s.enter(ctx, OpSync); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.likes, e.dislikes = likes, dislikes
	}
	return nil
}

func (s *EntityStore) DecrementCounters(ctx context.Context, id string, likes, dislikes int64) error {
	if err := s.enter(ctx, OpDecrease); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.likes -= likes
		e.dislikes -= dislikes
	}
	return nil
}

// enter counts the call, applies the configured delay and failure
func (s *EntityStore) enter(ctx context.Context, op string) error {
	s.mu.Lock()
	s.calls[op]++
	delay := s.delays[op]
	err := s.failures[op]
	s.mu.Unlock()
	return wait(ctx, delay, err)
}

func wait(ctx context.Context, delay time.Duration, err error) error {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func searchText(entities map[string]*entity, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var ids []string
	for id, e := range entities {
		for _, t := range e.text {
			if strings.Contains(strings.ToLower(t), q) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}
