package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoCase struct {
	name string
	new  func(t *testing.T) (context.Context, MatchRepository)
}

var repoCases = []repoCase{
	{
		name: "redis",
		new: func(t *testing.T) (context.Context, MatchRepository) {
			ctx, st := suite.New(t)
			return ctx, NewMatchRepository(suite.NewLogger(), st.Storage)
		},
	},
	{
		name: "memory",
		new: func(_ *testing.T) (context.Context, MatchRepository) {
			return context.Background(), NewMemoryMatchRepository()
		},
	},
}

func newTestMatch(id string) *entity.Match {
	players := []entity.Player{
		{ID: int32(entity.White), Side: 1, Addr: "127.0.0.1:50001"},
		{ID: int32(entity.Black), Side: 1, Addr: "127.0.0.1:50002"},
	}
	return entity.NewMatch(id, players, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestMatchRepository_CreateOrUpdate(t *testing.T) {
	for _, tc := range repoCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, repo := tc.new(t)

			// Given: an ongoing match
			match := newTestMatch("m-1")

			// When: it is stored and updated
			require.NoError(t, repo.CreateOrUpdate(ctx, match))

			match.Plies = 3
			match.Finish(entity.Black, match.StartedAt.Add(time.Minute))
			require.NoError(t, repo.CreateOrUpdate(ctx, match))

			// Then: the latest version is returned
			stored, err := repo.GetByID(ctx, "m-1")
			require.NoError(t, err)
			assert.Equal(t, entity.MatchFinished, stored.Status)
			assert.Equal(t, entity.Black, stored.Winner)
			assert.Equal(t, 3, stored.Plies)
			assert.Equal(t, match.Players, stored.Players)
			assert.True(t, match.EndedAt.Equal(stored.EndedAt))
		})
	}
}

func TestMatchRepository_GetByID(t *testing.T) {
	for _, tc := range repoCases {
		t.Run(tc.name+"/not found", func(t *testing.T) {
			ctx, repo := tc.new(t)

			// When: an unknown id is requested
			match, err := repo.GetByID(ctx, "9999999")

			// Then: ErrMatchNotFound is returned with an empty match
			require.ErrorIs(t, err, ErrMatchNotFound)
			assert.Empty(t, match.ID)
		})
	}
}

func TestMatchRepository_DeleteByID(t *testing.T) {
	for _, tc := range repoCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, repo := tc.new(t)

			// Given: a stored match
			require.NoError(t, repo.CreateOrUpdate(ctx, newTestMatch("m-2")))

			// When: it is deleted
			require.NoError(t, repo.DeleteByID(ctx, "m-2"))

			// Then: it is gone, and deleting again reports it
			_, err := repo.GetByID(ctx, "m-2")
			require.ErrorIs(t, err, ErrMatchNotFound)
			require.ErrorIs(t, repo.DeleteByID(ctx, "m-2"), ErrMatchNotFound)

			ids, err := repo.ListIDs(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestMatchRepository_ListIDs(t *testing.T) {
	for _, tc := range repoCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, repo := tc.new(t)

			require.NoError(t, repo.CreateOrUpdate(ctx, newTestMatch("a")))
			require.NoError(t, repo.CreateOrUpdate(ctx, newTestMatch("b")))

			ids, err := repo.ListIDs(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b"}, ids)
		})
	}
}

func TestMatchRepository_FinishedMatchesExpire(t *testing.T) {
	ctx, st := suite.New(t)
	if st.Mini == nil {
		t.Skip("needs miniredis to move the clock")
	}

	repo := NewMatchRepository(suite.NewLogger(), st.Storage)

	// Given: one ongoing and one finished match
	ongoing := newTestMatch("ongoing")
	finished := newTestMatch("finished")
	finished.Abandon(finished.StartedAt)

	require.NoError(t, repo.CreateOrUpdate(ctx, ongoing))
	require.NoError(t, repo.CreateOrUpdate(ctx, finished))

	// When: a day passes
	st.FastForward(finishedMatchTTL + time.Second)

	// Then: only the ongoing match is left
	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ongoing"}, ids)

	_, err = repo.GetByID(ctx, "finished")
	require.ErrorIs(t, err, ErrMatchNotFound)

	// And: the expired id was pruned from the index
	members, err := st.Storage.SMembers(ctx, matchIndexKey).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"ongoing"}, members)
}
