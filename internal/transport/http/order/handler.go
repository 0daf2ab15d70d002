package order

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/presentation/http/response"
	service "github.com/Additional-Code/repairdesk/internal/service/order"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

// Module provides the order handlers and mounts them on the Echo instance.
var Module = fx.Module("orders_http",
	fx.Provide(func(svc *service.Service) *Handler { return NewHandler(svc) }),
	fx.Invoke(Register),
)

var httpTracer = otel.Tracer("github.com/Additional-Code/repairdesk/transport/http/order")

// OrderService is the behaviour the handlers depend on.
type OrderService interface {
	Get(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)
	Register(ctx context.Context, patrimony, description string) (*entity.Order, error)
	Close(ctx context.Context, id, solution string) (*entity.Order, error)
}

// Handler exposes the orders collection over HTTP.
type Handler struct {
	svc OrderService
}

// NewHandler constructs an order Handler.
func NewHandler(svc OrderService) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/" + dto.Collection)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
}

func (h *Handler) getByID(c echo.Context) error {
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, ToDocument(order))
}

func (h *Handler) list(c echo.Context) error {
	status := entity.OrderStatus(c.QueryParam("status"))

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	orders, err := h.svc.List(ctx, status)
	if err != nil {
		return response.Error(c, err)
	}

	docs := make([]dto.OrderDocument, 0, len(orders))
	for i := range orders {
		docs = append(docs, ToDocument(&orders[i]))
	}
	return response.Collection(c, docs)
}

func (h *Handler) create(c echo.Context) error {

	var payload dto.OrderRegistration
	if err := c.Bind(&payload); err != nil {
		return response.Error(c, errorbank.BadRequest("invalid payload", errorbank.WithCause(err)))
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(attribute.String("order.patrimony", payload.Patrimony))
	defer span.End()

	order, err := h.svc.Register(ctx, payload.Patrimony, payload.Description)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, ToDocument(order))
}

// update applies a document field update. The only transition accepted is open -> closed,
// and closed_at may only ask for the server timestamp.
func (h *Handler) update(c echo.Context) error {
	id := c.Param("id")

	var payload dto.OrderUpdate
	if err := c.Bind(&payload); err != nil {
		return response.Error(c, errorbank.BadRequest("invalid payload", errorbank.WithCause(err)))
	}
	if entity.OrderStatus(payload.Status) != entity.StatusClosed {
		return response.Error(c, errorbank.BadRequest("only status \"closed\" can be set",
			errorbank.WithDetail("status", payload.Status)))
	}
	if payload.ClosedAt != "" && payload.ClosedAt != dto.ServerTimestamp {
		return response.Error(c, errorbank.BadRequest("closed_at must be the server timestamp",
			errorbank.WithDetail("closed_at", string(payload.ClosedAt))))
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Close(ctx, id, payload.Solution)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, ToDocument(order))
}

// ToDocument renders an order as its wire document.
func ToDocument(order *entity.Order) dto.OrderDocument {
	return dto.OrderDocument{
		ID:          order.ID,
		Patrimony:   order.Patrimony,
		Description: order.Description,
		Status:      string(order.Status),
		Solution:    order.Solution,
		CreatedAt:   order.CreatedAt,
		ClosedAt:    order.ClosedAt,
	}
}
