package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/cache"
	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/messaging"
	repo "github.com/Additional-Code/repairdesk/internal/repository/order"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

const (
	instrumentationName = "github.com/Additional-Code/repairdesk/service/order"
	defaultListLimit    = 100
)

var serviceTracer = otel.Tracer(instrumentationName)

// Event names published on the orders topic.
const (
	EventRegistered = "order.registered"
	EventClosed     = "order.closed"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, status entity.OrderStatus, limit int) ([]entity.Order, error)
	Close(ctx context.Context, id, solution string) (*entity.Order, error)
}

// Service encapsulates business logic around support orders.
type Service struct {
	store     Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	newID     func() string
	listLimit int

	registered metric.Int64Counter
	closed     metric.Int64Counter
}

// Module provides the orders service to Fx.
var Module = fx.Module("orders_service", fx.Provide(NewService))

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	publisher := p.Publisher
	if !p.Config.Messaging.Enabled {
		publisher = nil
	}
	svc := New(p.Repository, p.Cache, publisher, p.Logger, p.Config.Orders.CacheTTL)
	if p.Config.Orders.ListLimit > 0 {
		svc.listLimit = p.Config.Orders.ListLimit
	}
	return svc
}

// New builds a Service from explicit collaborators. A nil publisher disables events.
func New(store Store, c cache.Store, publisher messaging.Client, logger *zap.Logger, cacheTTL time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter(instrumentationName)
	registered, _ := meter.Int64Counter("repairdesk.orders.registered", metric.WithDescription("Support orders opened"))
	closed, _ := meter.Int64Counter("repairdesk.orders.closed", metric.WithDescription("Support orders closed"))

	return &Service{
		store:      store,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
		publisher:  publisher,
		newID:      func() string { return uuid.NewString() },
		listLimit:  defaultListLimit,
		registered: registered,
		closed:     closed,
	}
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errorbank.BadRequest("order id is required")
	}

	order, err := cache.GetJSON[entity.Order](ctx, s.cache, cacheKey(id))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err = s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	s.remember(ctx, order)
	return order, nil
}

// List returns orders in the given status, newest first.
func (s *Service) List(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, errorbank.BadRequest("unknown status", errorbank.WithDetail("status", string(status)))
	}

	orders, err := s.store.List(ctx, status, s.listLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Register opens a new order for a piece of equipment.
func (s *Service) Register(ctx context.Context, patrimony, description string) (*entity.Order, error) {
	patrimony = strings.TrimSpace(patrimony)
	description = strings.TrimSpace(description)
	if patrimony == "" || description == "" {
		return nil, errorbank.BadRequest("patrimony and description are required")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Register", trace.WithAttributes(attribute.String("order.patrimony", patrimony)))
	defer span.End()

	order := &entity.Order{
		ID:          s.newID(),
		Patrimony:   patrimony,
		Description: description,
	}
	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to register order", errorbank.WithCause(err))
	}

	s.remember(ctx, order)
	s.registered.Add(ctx, 1)
	s.publish(ctx, EventRegistered, order)
	return order, nil
}

// Close resolves an open order with the given solution. The closure time is taken from the store clock.
func (s *Service) Close(ctx context.Context, id, solution string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Close", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if strings.TrimSpace(solution) == "" {
		return nil, errorbank.Unprocessable("solution is required to close an order")
	}

	order, err := s.store.Close(ctx, id, solution)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, errorbank.NotFound("order not found", errorbank.WithDetail("id", id))
	case errors.Is(err, repo.ErrAlreadyClosed):
		s.remember(ctx, order)
		return nil, errorbank.Conflict("order already closed", errorbank.WithDetail("id", id))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to close order", errorbank.WithCause(err))
	}

	s.remember(ctx, order)
	s.closed.Add(ctx, 1)
	s.publish(ctx, EventClosed, order)
	return order, nil
}

func (s *Service) remember(ctx context.Context, order *entity.Order) {
	if order == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, cacheKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, name string, order *entity.Order) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(NewEvent(order))
	if err != nil {
		s.logger.Error("marshal order event", zap.String("event", name), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(order.ID),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEvent: name},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish order event", zap.String("event", name), zap.String("id", order.ID), zap.Error(err))
	}
}

func cacheKey(id string) string {
	return cache.Key("orders", id)
}

// Event is the payload of order lifecycle messages.
type Event struct {
	ID        string     `json:"id"`
	Patrimony string     `json:"patrimony"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// NewEvent snapshots order for publication.
func NewEvent(order *entity.Order) Event {
	return Event{
		ID:        order.ID,
		Patrimony: order.Patrimony,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		ClosedAt:  order.ClosedAt,
	}
}
