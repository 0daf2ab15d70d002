package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/entity"
	ordersvc "github.com/Additional-Code/repairdesk/internal/service/order"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(func(svc *ordersvc.Service, logger *zap.Logger) *Seeder {
	return New(svc, logger)
})

// Registrar opens orders; satisfied by the order service.
type Registrar interface {
	Register(ctx context.Context, patrimony, description string) (*entity.Order, error)
	List(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)
}

// Sample is a demo order used for local setups.
type Sample struct {
	Patrimony   string
	Description string
}

// Samples are the demo orders opened by Orders.
var Samples = []Sample{
	{Patrimony: "284519", Description: "Computador não liga após queda de energia."},
	{Patrimony: "117203", Description: "Impressora do financeiro atolando papel na bandeja 2."},
	{Patrimony: "560981", Description: "Monitor piscando e sem sinal pela entrada HDMI."},
}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	orders Registrar
	logger *zap.Logger
}

// New constructs a Seeder on top of the order service.
func New(orders Registrar, logger *zap.Logger) *Seeder {
	return &Seeder{orders: orders, logger: logger}
}

// Orders opens the demo orders unless orders already exist.
func (s *Seeder) Orders(ctx context.Context) (int, error) {
	existing, err := s.orders.List(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("orders already present; skipping seed", zap.Int("count", len(existing)))
		return 0, nil
	}

	for _, sample := range Samples {
		if _, err := s.orders.Register(ctx, sample.Patrimony, sample.Description); err != nil {
			return 0, err
		}
	}

	s.logger.Info("seeded orders", zap.Int("count", len(Samples)))
	return len(Samples), nil
}
