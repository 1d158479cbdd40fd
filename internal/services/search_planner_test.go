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

func TestPlan_BlankQuery(t *testing.T) {
	f := newFixture(t)
	clause, warnings := f.planner.Plan(context.Background(), "   ")
	assert.Nil(t, clause)
	assert.Nil(t, warnings)
	assert.Zero(t, f.stores[models.KindVideo].Calls(memory.OpSearch))
}

func TestPlan_FansOutToEveryStore(t *testing.T) {
	f := newFixture(t)
	jazzVideo := f.put(models.KindVideo, "Late Night Jazz", "Quartet")
	f.put(models.KindVideo, "Metal Hour")
	jazzPodcast := f.put(models.KindPodcast, "Talking JAZZ")
	f.users.Put(models.UserCompact{ID: 7, Name: "Jazzy Jeff", Email: "jj@example.com"})

	clause, warnings := f.planner.Plan(context.Background(), "jazz")
	assert.Empty(t, warnings)
	require.NotNil(t, clause)

	assert.Equal(t, "jazz", clause.Pattern)
	assert.Equal(t, []string{jazzVideo}, clause.EntityIDs[models.KindVideo])
	assert.Equal(t, []string{jazzPodcast}, clause.EntityIDs[models.KindPodcast])
	assert.NotContains(t, clause.EntityIDs, models.KindPost)
	assert.Equal(t, []uint{7}, clause.UserIDs)
	assert.Empty(t, clause.DirectEntityID)

	for _, k := range models.AllKinds {
		assert.Equal(t, 1, f.stores[k].Calls(memory.OpSearch), k)
	}
	assert.Equal(t, 1, f.users.Calls(memory.OpSearch))
}

func TestPlan_DirectEntityID(t *testing.T) {
	f := newFixture(t)
	id := oid()

	clause, _ := f.planner.Plan(context.Background(), id)
	require.NotNil(t, clause)
	assert.Equal(t, id, clause.DirectEntityID)

	clause, _ = f.planner.Plan(context.Background(), "42")
	require.NotNil(t, clause)
	assert.Equal(t, "42", clause.DirectEntityID, "valid comment id")
}

func TestPlan_DegradesPerAdapter(t *testing.T) {
	f := newFixture(t)
	match := f.put(models.KindPost, "jazz brunch")
	f.stores[models.KindVideo].Fail(memory.OpSearch, errors.New("mongo down"))
	f.stores[models.KindPlaylist].SetDelay(memory.OpSearch, time.Second)
	f.users.Fail(memory.OpSearch, errors.New("users down"))

	start := time.Now()
	clause, warnings := f.planner.Plan(context.Background(), "jazz")
	assert.Less(t, time.Since(start), time.Second)

	require.NotNil(t, clause)
	assert.Equal(t, []string{match}, clause.EntityIDs[models.KindPost])

	require.Len(t, warnings, 3)
	assert.Equal(t, models.Degradation{Stage: StageSearch, Kind: models.KindPlaylist, Error: context.DeadlineExceeded.Error()}, warnings[0])
	assert.Equal(t, StageSearch, warnings[1].Stage)
	assert.Equal(t, models.KindVideo, warnings[1].Kind)
	assert.Equal(t, StageUsers, warnings[2].Stage)
}
