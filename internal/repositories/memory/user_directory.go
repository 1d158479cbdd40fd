package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
)

// UserDirectory is an in-memory user directory
type UserDirectory struct {
	mu       sync.RWMutex
	users    map[uint]models.UserCompact
	calls    map[string]int
	failures map[string]error
	delays   map[string]time.Duration
}

// NewUserDirectory creates a directory holding users
func NewUserDirectory(users ...models.UserCompact) *UserDirectory {
	d := &UserDirectory{
		users:    make(map[uint]models.UserCompact, len(users)),
		calls:    make(map[string]int),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Put adds or replaces a user
func (d *UserDirectory) Put(u models.UserCompact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Fail makes every later call of op return err. A nil err clears it.
func (d *UserDirectory) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// SetDelay makes op wait d before answering, or until its context ends
func (d *UserDirectory) SetDelay(op string, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays[op] = delay
}

// Calls returns how many times op was invoked
func (d *UserDirectory) Calls(op string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calls[op]
}

func (d *UserDirectory) BulkGet(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error) {
	if err := d.enter(ctx, OpBulkGet); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[uint]models.UserCompact, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *UserDirectory) Search(ctx context.Context, query string) ([]uint, error) {
	if err := d.enter(ctx, OpSearch); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ids []uint
	for id, u := range d.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (d *UserDirectory) enter(ctx context.Context, op string) error {
	d.mu.Lock()
	d.calls[op]++
	delay := d.delays[op]
	err := d.failures[op]
	d.mu.Unlock()
	return wait(ctx, delay, err)
}
