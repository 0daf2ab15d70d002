package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/messaging"
	ordersvc "github.com/Additional-Code/repairdesk/internal/service/order"
	"github.com/Additional-Code/repairdesk/internal/worker"
)

const instrumentationName = "github.com/Additional-Code/repairdesk/worker/order"

var workerTracer = otel.Tracer(instrumentationName)

// Module registers order event handlers with the worker engine.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(NewRegisteredHandler, fx.ResultTags(`group:"worker.handlers"`)),
		fx.Annotate(NewClosedHandler, fx.ResultTags(`group:"worker.handlers"`)),
	),
)

// NewRegisteredHandler logs newly opened orders.
func NewRegisteredHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		event, err := decode(ctx, msg, logger)
		if err != nil {
			return err
		}
		logger.Info("order registered",
			zap.String("id", event.ID),
			zap.String("patrimony", event.Patrimony),
			zap.Time("created_at", event.CreatedAt),
		)
		return nil
	}
	return worker.HandlerRegistration{Event: ordersvc.EventRegistered, Handler: handler}
}

// NewClosedHandler records how long each order stayed open.
func NewClosedHandler(logger *zap.Logger) (worker.HandlerRegistration, error) {
	resolution, err := otel.Meter(instrumentationName).Float64Histogram(
		"repairdesk.orders.resolution_time",
		metric.WithUnit("s"),
		metric.WithDescription("Time between registration and closure of support orders"),
	)
	if err != nil {
		return worker.HandlerRegistration{}, err
	}

	handler := func(ctx context.Context, msg messaging.Message) error {
		event, err := decode(ctx, msg, logger)
		if err != nil {
			return err
		}
		if event.ClosedAt == nil {
			logger.Warn("closed event without closed_at", zap.String("id", event.ID))
			return nil
		}
		open := event.ClosedAt.Sub(event.CreatedAt)
		resolution.Record(ctx, open.Seconds(), metric.WithAttributes(attribute.String("order.patrimony", event.Patrimony)))
		logger.Info("order closed",
			zap.String("id", event.ID),
			zap.String("patrimony", event.Patrimony),
			zap.Duration("open_for", open),
		)
		return nil
	}
	return worker.HandlerRegistration{Event: ordersvc.EventClosed, Handler: handler}, nil
}

func decode(ctx context.Context, msg messaging.Message, logger *zap.Logger) (ordersvc.Event, error) {
	_, span := workerTracer.Start(ctx, "worker.orders.decode", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.String("messaging.event", msg.Event()),
	))
	defer span.End()

	var event ordersvc.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Error("failed to decode order event", zap.String("event", msg.Event()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return event, fmt.Errorf("decode %s: %w", msg.Event(), err)
	}
	return event, nil
}
