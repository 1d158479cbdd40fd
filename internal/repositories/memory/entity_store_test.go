package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityStore(t *testing.T) {
	s := NewEntityStore(models.KindPlaylist, nil)
	ctx := context.Background()
	s.Put("pl1", "Road Trip", "Road Trip", "summer songs")
	s.Put("pl2", "Focus", "Focus", "deep work")

	assert.True(t, s.ValidID("anything"))
	assert.False(t, s.ValidID(""))

	ok, err := s.Exists(ctx, "pl1")
	require.NoError(t, err)
	assert.True(t, ok)

	docs, err := s.BulkGet(ctx, []string{"pl1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pl1": "Road Trip"}, docs)

	ids, err := s.Search(ctx, "SUMMER")
	require.NoError(t, err)
	assert.Equal(t, []string{"pl1"}, ids)

	require.NoError(t, s.SyncCounters(ctx, "pl2", 5, 2))
	require.NoError(t, s.DecrementCounters(ctx, "pl2", 1, 2))
	assert.Equal(t, Counters{Likes: 4}, s.Counters("pl2"))

	assert.Equal(t, 1, s.Calls(OpSearch))
	assert.Equal(t, 1, s.Calls(OpDecrease))
}

func TestEntityStore_FailuresAndDelays(t *testing.T) {
	s := NewEntityStore(models.KindVideo, nil)
	boom := errors.New("boom")

	s.Fail(OpBulkGet, boom)
	_, err := s.BulkGet(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
	s.Fail(OpBulkGet, nil)
	_, err = s.BulkGet(context.Background(), []string{"x"})
	assert.NoError(t, err)

	s.SetDelay(OpSearch, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Search(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUserDirectory(t *testing.T) {
	d := NewUserDirectory(
		models.UserCompact{ID: 1, Name: "Ada", Email: "ada@example.com"},
		models.UserCompact{ID: 2, Name: "Grace", Email: "grace@navy.mil"},
	)
	ctx := context.Background()

	users, err := d.BulkGet(ctx, []uint{2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]models.UserCompact{2: {ID: 2, Name: "Grace", Email: "grace@navy.mil"}}, users)

	ids, err := d.Search(ctx, "NAVY")
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)

	d.Fail(OpSearch, errors.New("down"))
	_, err = d.Search(ctx, "ada")
	assert.Error(t, err)
}
