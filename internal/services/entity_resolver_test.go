package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPage(f *fixture, perKind int, kinds ...models.EntityKind) []models.Reaction {
	var page []models.Reaction
	for _, k := range kinds {
		for i := 0; i < perKind; i++ {
			id := f.put(k)
			// Every target twice, so ids repeat within a kind.
			page = append(page,
				models.Reaction{UserID: userX, EntityKind: k, EntityID: id, Action: models.ActionLike},
				models.Reaction{UserID: userY, EntityKind: k, EntityID: id, Action: models.ActionDislike},
			)
		}
	}
	return page
}

func TestResolve_OneBulkFetchPerKind(t *testing.T) {
	f := newFixture(t)
	page := seedPage(f, 10, models.KindVideo, models.KindPost, models.KindComment)
	require.Len(t, page, 60)

	rows, warnings := f.resolver.Resolve(context.Background(), page)
	assert.Empty(t, warnings)
	require.Len(t, rows, len(page))

	total := 0
	for _, k := range models.AllKinds {
		total += f.stores[k].Calls(memory.OpBulkGet)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, f.stores[models.KindVideo].Calls(memory.OpBulkGet))
	assert.Equal(t, 1, f.stores[models.KindPost].Calls(memory.OpBulkGet))
	assert.Equal(t, 1, f.stores[models.KindComment].Calls(memory.OpBulkGet))
	assert.Zero(t, f.stores[models.KindPodcast].Calls(memory.OpBulkGet))
	assert.Equal(t, 1, f.users.Calls(memory.OpBulkGet))

	for i, row := range rows {
		assert.Equal(t, page[i].EntityID, row.EntityID, "order kept")
		assert.NotNil(t, row.Target)
		require.NotNil(t, row.User)
		assert.Equal(t, page[i].UserID, row.User.ID)
	}
}

func TestResolve_DanglingTarget(t *testing.T) {
	f := newFixture(t)
	gone, kept := f.put(models.KindVideo), f.put(models.KindVideo)
	f.stores[models.KindVideo].Remove(gone)

	rows, warnings := f.resolver.Resolve(context.Background(), []models.Reaction{
		{UserID: userX, EntityKind: models.KindVideo, EntityID: gone, Action: models.ActionLike},
		{UserID: userX, EntityKind: models.KindVideo, EntityID: kept, Action: models.ActionLike},
	})
	assert.Empty(t, warnings)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Target)
	assert.NotNil(t, rows[1].Target)
}

func TestResolve_FailingStoreDegrades(t *testing.T) {
	f := newFixture(t)
	page := seedPage(f, 2, models.KindVideo, models.KindPost)
	f.stores[models.KindPost].Fail(memory.OpBulkGet, errors.New("mongo down"))

	rows, warnings := f.resolver.Resolve(context.Background(), page)
	require.Len(t, warnings, 1)
	assert.Equal(t, StageResolve, warnings[0].Stage)
	assert.Equal(t, models.KindPost, warnings[0].Kind)
	assert.Contains(t, warnings[0].Error, "mongo down")

	for _, row := range rows {
		if row.EntityKind == models.KindPost {
			assert.Nil(t, row.Target)
		} else {
			assert.NotNil(t, row.Target)
		}
	}
}

func TestResolve_TimeoutIsPerKind(t *testing.T) {
	f := newFixture(t)
	page := seedPage(f, 1, models.KindVideo, models.KindPodcast)
	f.stores[models.KindVideo].SetDelay(memory.OpBulkGet, time.Second)

	start := time.Now()
	rows, warnings := f.resolver.Resolve(context.Background(), page)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, warnings, 1)
	assert.Equal(t, models.KindVideo, warnings[0].Kind)
	assert.Contains(t, warnings[0].Error, context.DeadlineExceeded.Error())
	for _, row := range rows {
		if row.EntityKind == models.KindPodcast {
			assert.NotNil(t, row.Target)
		}
	}
}

func TestResolve_UserDirectoryFailure(t *testing.T) {
	f := newFixture(t)
	page := seedPage(f, 1, models.KindVideo)
	f.users.Fail(memory.OpBulkGet, errors.New("users down"))

	rows, warnings := f.resolver.Resolve(context.Background(), page)
	require.Len(t, warnings, 1)
	assert.Equal(t, StageUsers, warnings[0].Stage)
	for _, row := range rows {
		assert.Nil(t, row.User)
		assert.NotNil(t, row.Target)
	}
}

func TestResolve_EmptyPage(t *testing.T) {
	f := newFixture(t)
	rows, warnings := f.resolver.Resolve(context.Background(), nil)
	assert.Empty(t, rows)
	assert.Empty(t, warnings)
	assert.Zero(t, f.users.Calls(memory.OpBulkGet))
}
