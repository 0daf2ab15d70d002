package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/repairdesk/internal/database"
	"github.com/Additional-Code/repairdesk/internal/entity"
)

// Module provides the orders repository to Fx.
var Module = fx.Module("orders_repository", fx.Provide(NewRepository))

var repoTracer = otel.Tracer("github.com/Additional-Code/repairdesk/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyClosed is returned when closing an order that is no longer open.
	ErrAlreadyClosed = errors.New("order already closed")
)

// Clock supplies the server timestamp written on registration and closure.
type Clock func() time.Time

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	now    Clock
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// WithClock replaces the server clock, mostly for tests.
func (r *Repository) WithClock(now Clock) *Repository {
	r.now = now
	return r
}

// Create persists a new open order stamped with the server clock.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.patrimony", order.Patrimony)))
	defer span.End()

	order.Status = entity.StatusOpen
	order.Solution = ""
	order.ClosedAt = nil
	order.CreatedAt = r.now()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by id using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	return r.get(ctx, r.reader, id, span)
}

// List returns orders with the given status, newest first. An empty status lists everything.
func (r *Repository) List(ctx context.Context, status entity.OrderStatus, limit int) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	var orders []entity.Order
	q := r.reader.NewSelect().Model(&orders).OrderExpr("created_at DESC").OrderExpr("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Close moves an open order to closed, recording the solution and the server timestamp.
// The status guard in the WHERE clause keeps the transition one-way.
func (r *Repository) Close(ctx context.Context, id, solution string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Close", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	closedAt := r.now()
	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", entity.StatusClosed).
		Set("solution = ?", solution).
		Set("closed_at = ?", closedAt).
		Where("id = ?", id).
		Where("status = ?", entity.StatusOpen).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	order, err := r.get(ctx, r.writer, id, span)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "already closed")
		return order, ErrAlreadyClosed
	}
	return order, nil
}

func (r *Repository) get(ctx context.Context, db *bun.DB, id string, span trace.Span) (*entity.Order, error) {
	order := new(entity.Order)
	err := db.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}
