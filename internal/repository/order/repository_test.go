package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/repairdesk/internal/entity"
	repo "github.com/Additional-Code/repairdesk/internal/repository/order"
	"github.com/Additional-Code/repairdesk/internal/testutil"
)

func fixedClock(ts ...time.Time) repo.Clock {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2022, 5, 3, 14, 30, 0, 0, time.UTC)
	r := repo.NewRepository(testutil.OpenOrdersDB(t)).WithClock(fixedClock(created))

	order := &entity.Order{ID: "a1", Patrimony: "123456", Description: "Monitor sem imagem", Status: entity.StatusClosed, Solution: "ignored"}
	require.NoError(t, r.Create(ctx, order))

	got, err := r.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Patrimony)
	assert.Equal(t, entity.StatusOpen, got.Status)
	assert.Empty(t, got.Solution)
	assert.Nil(t, got.ClosedAt)
	assert.True(t, created.Equal(got.CreatedAt), "created_at = %s", got.CreatedAt)
}

func TestGetMissing(t *testing.T) {
	r := repo.NewRepository(testutil.OpenOrdersDB(t))

	_, err := r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCloseIsOneWay(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2022, 5, 3, 14, 30, 0, 0, time.UTC)
	closed := created.Add(2 * time.Hour)
	r := repo.NewRepository(testutil.OpenOrdersDB(t)).WithClock(fixedClock(created, closed, closed.Add(time.Hour)))

	require.NoError(t, r.Create(ctx, &entity.Order{ID: "a1", Patrimony: "123", Description: "Sem rede"}))

	got, err := r.Close(ctx, "a1", "Cabo trocado")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosed, got.Status)
	assert.Equal(t, "Cabo trocado", got.Solution)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closed.Equal(*got.ClosedAt))

	again, err := r.Close(ctx, "a1", "Outra solução")
	assert.ErrorIs(t, err, repo.ErrAlreadyClosed)
	require.NotNil(t, again)
	assert.Equal(t, "Cabo trocado", again.Solution)
	assert.True(t, closed.Equal(*again.ClosedAt))
}

func TestCloseMissing(t *testing.T) {
	r := repo.NewRepository(testutil.OpenOrdersDB(t))

	_, err := r.Close(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2022, 5, 3, 8, 0, 0, 0, time.UTC)
	r := repo.NewRepository(testutil.OpenOrdersDB(t)).WithClock(fixedClock(base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour)))

	require.NoError(t, r.Create(ctx, &entity.Order{ID: "a", Patrimony: "1", Description: "a"}))
	require.NoError(t, r.Create(ctx, &entity.Order{ID: "b", Patrimony: "2", Description: "b"}))
	require.NoError(t, r.Create(ctx, &entity.Order{ID: "c", Patrimony: "3", Description: "c"}))
	_, err := r.Close(ctx, "b", "ok")
	require.NoError(t, err)

	open, err := r.List(ctx, entity.StatusOpen, 0)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "c", open[0].ID)
	assert.Equal(t, "a", open[1].ID)

	closed, err := r.List(ctx, entity.StatusClosed, 0)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "b", closed[0].ID)

	limited, err := r.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
