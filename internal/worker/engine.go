// Package worker runs the consumers that react to order events published by the service.
package worker

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds an event name to its handler.
type HandlerRegistration struct {
	Event   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Module("worker_engine",
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.StartStopHook(engine.Start, engine.Stop))
	}),
)

// Engine consumes order events and dispatches them by event name.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	enabled  bool
	workers  int
	retry    time.Duration
	handlers map[string]messaging.Handler
	handled  metric.Int64Counter

	cancel    context.CancelFunc
	consumers errgroup.Group
}

// NewEngine constructs the worker Engine. Registrations without an event or handler are dropped.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Event == "" || r.Handler == nil {
			continue
		}
		handlers[r.Event] = r.Handler
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// A noop counter is returned alongside any error, so the engine keeps working without metrics.
	handled, err := otel.Meter("github.com/Additional-Code/repairdesk/worker").Int64Counter(
		"repairdesk.worker.events",
		metric.WithDescription("Order events handled by the worker, by event and outcome"),
	)
	if err != nil {
		logger.Warn("worker metrics unavailable", zap.Error(err))
	}

	return &Engine{
		client:   p.Client,
		logger:   logger,
		enabled:  p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		workers:  max(p.Config.Messaging.Workers.Concurrency, 1),
		retry:    cmp.Or(p.Config.Messaging.Workers.RetryDelay, time.Second),
		handlers: handlers,
		handled:  handled,
	}
}

// Start launches the consumer goroutines. It returns immediately.
func (e *Engine) Start(context.Context) error {
	switch {
	case !e.enabled:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.handlers) == 0:
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for id := range e.workers {
		e.consumers.Go(func() error {
			e.consume(ctx, id)
			return nil
		})
	}

	e.logger.Info("worker engine started", zap.Int("workers", e.workers), zap.Int("events", len(e.handlers)))
	return nil
}

// Stop cancels the consumers and waits for them, bounded by ctx.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		_ = e.consumers.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// Dispatch routes one message to the handler registered for its event. Events nobody
// listens to are acknowledged and skipped. A panicking handler is reported as an error.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) (err error) {
	event := msg.Event()
	handler, ok := e.handlers[event]
	if !ok {
		e.logger.Debug("no handler for event", zap.String("event", event), zap.String("topic", msg.Topic))
		e.count(ctx, event, "skipped")
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", event, r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		e.count(ctx, event, outcome)
	}()
	return handler(ctx, msg)
}

func (e *Engine) count(ctx context.Context, event, outcome string) {
	if e.handled == nil {
		return
	}
	e.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

// consume keeps one consumer attached to the broker, backing off between failed sessions.
func (e *Engine) consume(ctx context.Context, id int) {
	wait := backoff{next: e.retry}
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message", zap.String("event", msg.Event()), zap.Int("worker", id))
			return e.Dispatch(msgCtx, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		delay := wait.step()
		e.logger.Error("consume loop error", zap.Int("worker", id), zap.Error(err), zap.Duration("backoff", delay))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// backoff doubles the delay on each step up to maxBackoff.
type backoff struct {
	next time.Duration
}

func (b *backoff) step() time.Duration {
	d := b.next
	b.next = min(b.next*2, maxBackoff)
	return d
}
