package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/entity"
	repo "github.com/Additional-Code/repairdesk/internal/repository/order"
	ordersvc "github.com/Additional-Code/repairdesk/internal/service/order"
	"github.com/Additional-Code/repairdesk/internal/testutil"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

type harness struct {
	svc   *ordersvc.Service
	cache *testutil.MemoryCache
	pub   *testutil.Publisher
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := repo.NewRepository(testutil.OpenOrdersDB(t))
	c := &testutil.MemoryCache{}
	pub := testutil.NewPublisher()
	return harness{
		svc:   ordersvc.New(store, c, pub, zap.NewNop(), time.Minute),
		cache: c,
		pub:   pub,
	}
}

func TestRegisterOpensOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	order, err := h.svc.Register(ctx, " 998877 ", "Impressora travando papel")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "998877", order.Patrimony)
	assert.Equal(t, entity.StatusOpen, order.Status)
	assert.False(t, order.CreatedAt.IsZero())
	assert.True(t, h.cache.Has("orders:"+order.ID))
	assert.Equal(t, []string{ordersvc.EventRegistered}, h.pub.Events())

	_, err = h.svc.Register(ctx, "", "x")
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.svc.Register(ctx, "1", "Teclado")
	require.NoError(t, err)

	got, err := h.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = h.svc.Get(ctx, "missing")
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))

	_, err = h.svc.Get(ctx, "  ")
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestCloseTransitionsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.svc.Register(ctx, "1", "Sem rede")
	require.NoError(t, err)

	closed, err := h.svc.Close(ctx, created.ID, "Porta do switch trocada")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosed, closed.Status)
	assert.Equal(t, "Porta do switch trocada", closed.Solution)
	require.NotNil(t, closed.ClosedAt)

	cached, err := h.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosed, cached.Status)

	_, err = h.svc.Close(ctx, created.ID, "de novo")
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))

	assert.Equal(t, []string{ordersvc.EventRegistered, ordersvc.EventClosed}, h.pub.Events())

	var event ordersvc.Event
	require.NoError(t, json.Unmarshal(h.pub.Published[1].Value, &event))
	assert.Equal(t, "closed", event.Status)
	assert.NotNil(t, event.ClosedAt)
	assert.Equal(t, created.ID, string(h.pub.Published[1].Key))
}

func TestCloseValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.svc.Register(ctx, "1", "Sem rede")
	require.NoError(t, err)

	_, err = h.svc.Close(ctx, created.ID, "   ")
	assert.True(t, errorbank.Is(err, errorbank.KindUnprocessableEntity))

	still, err := h.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOpen, still.Status)

	_, err = h.svc.Close(ctx, "missing", "x")
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestPublishFailureDoesNotFailClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.svc.Register(ctx, "1", "Sem rede")
	require.NoError(t, err)

	h.pub.Err = errors.New("broker down")
	_, err = h.svc.Close(ctx, created.ID, "ok")
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.Register(ctx, "1", "a")
	require.NoError(t, err)
	_, err = h.svc.Register(ctx, "2", "b")
	require.NoError(t, err)
	_, err = h.svc.Close(ctx, a.ID, "ok")
	require.NoError(t, err)

	open, err := h.svc.List(ctx, entity.StatusOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	all, err := h.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.svc.List(ctx, "pending")
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}
