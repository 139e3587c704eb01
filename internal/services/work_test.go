package services

import (
	"context"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWork(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceWork](env.injector)
	ctx := context.Background()

	_, err := service.CreateWork(ctx, "u1", "anime", "a cat", " ")
	assert.Error(t, err)
	count, err := env.db.NewSelect().Table("lottery_user").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected work creates no user")

	// the first work of an unseen user creates it

	work, err := service.CreateWork(ctx, "u1", "anime", "a cat", "https://img.example.com/1.png")
	require.NoError(t, err)
	assert.Len(t, work.WorkUID, WORK_UID_LENGTH)
	assert.Equal(t, "https://draw.example.com/work/"+work.WorkUID+"?ref=u1", work.ShareURL)

	user := env.user(t, "u1")
	assert.Equal(t, env.settings.StartingChances+1, user.DrawChances)
	assert.Equal(t, 1, user.DailyEarned)

	works, err := service.GetUserWorks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, work.WorkUID, works[0].WorkUID)

	require.NoError(t, service.IncrementViewCount(ctx, work.WorkUID))
	require.NoError(t, service.IncrementViewCount(ctx, work.WorkUID))
	assert.Error(t, service.IncrementViewCount(ctx, "missing"))

	works, err = service.GetUserWorks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, works[0].ViewCount)

	found, err := service.GetWork(ctx, work.WorkUID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.ViewCount)

	_, err = service.GetWork(ctx, "missing")
	assert.Error(t, err)
}
