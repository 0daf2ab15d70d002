package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/repairdesk/internal/messaging"
	ordersvc "github.com/Additional-Code/repairdesk/internal/service/order"
)

func closedMessage(t *testing.T, event ordersvc.Event) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{
		Topic:   "repairdesk.orders",
		Value:   raw,
		Headers: map[string]string{messaging.HeaderEvent: ordersvc.EventClosed},
	}
}

func TestClosedHandlerLogsResolutionTime(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg, err := NewClosedHandler(zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, ordersvc.EventClosed, reg.Event)

	created := time.Date(2022, 5, 3, 8, 0, 0, 0, time.UTC)
	closed := created.Add(90 * time.Minute)
	msg := closedMessage(t, ordersvc.Event{ID: "a1", Patrimony: "123", Status: "closed", CreatedAt: created, ClosedAt: &closed})

	require.NoError(t, reg.Handler(context.Background(), msg))

	entries := logs.FilterMessage("order closed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 90*time.Minute, entries[0].ContextMap()["open_for"])
}

func TestClosedHandlerRejectsGarbage(t *testing.T) {
	reg, err := NewClosedHandler(zap.NewNop())
	require.NoError(t, err)

	err = reg.Handler(context.Background(), messaging.Message{Value: []byte("nope")})
	assert.Error(t, err)
}

func TestRegisteredHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := NewRegisteredHandler(zap.New(core))
	assert.Equal(t, ordersvc.EventRegistered, reg.Event)

	raw, err := json.Marshal(ordersvc.Event{ID: "a1", Patrimony: "123", Status: "open", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Value: raw}))
	assert.Equal(t, 1, logs.FilterMessage("order registered").Len())
}
