package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/database"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

// OrdersServiceName is the health check service name reported for the orders API.
const OrdersServiceName = "repairdesk.orders"

const (
	storeCheckInterval = 15 * time.Second
	storeCheckTimeout  = 2 * time.Second
)

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, health.NewServer),
	fx.Invoke(Run),
)

// Pinger reports whether the orders store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds a gRPC server with logging interceptors and the standard health service.
func NewServer(logger *zap.Logger, healthSrv *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryLogger(logger)),
		grpc.ChainStreamInterceptor(streamLogger(logger)),
	)
	healthpb.RegisterHealthServer(server, healthSrv)
	return server
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		finished(logger, info.FullMethod, time.Since(start), err)
		if err != nil {
			return resp, toStatus(err)
		}
		return resp, nil
	}
}

func streamLogger(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		finished(logger, info.FullMethod, time.Since(start), err)
		if err != nil {
			return toStatus(err)
		}
		return nil
	}
}

func finished(logger *zap.Logger, method string, took time.Duration, err error) {
	if err != nil {
		logger.Warn("grpc call failed", zap.String("method", method), zap.Duration("duration", took), zap.Error(err))
		return
	}
	logger.Debug("grpc call finished", zap.String("method", method), zap.Duration("duration", took))
}

// RunParams collects what Run needs. Database is optional; without it the orders service
// is always reported as serving.
type RunParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Server    *grpc.Server
	Health    *health.Server
	Logger    *zap.Logger
	Database  *database.Connections `optional:"true"`
}

// Run binds the gRPC server to the configured host/port and keeps the orders health
// status in step with the orders store.
func Run(p RunParams) {
	addr := fmt.Sprintf("%s:%d", p.Config.GRPC.Host, p.Config.GRPC.Port)
	var (
		listener net.Listener
		cancel   context.CancelFunc = func() {}
		watching = make(chan struct{})
	)

	var store Pinger
	if p.Database != nil {
		store = p.Database
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln

			var watchCtx context.Context
			watchCtx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(watching)
				watchStore(watchCtx, p.Health, store, storeCheckInterval, p.Logger)
			}()

			p.Logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := p.Server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					p.Logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("stopping gRPC server")
			cancel()
			<-watching
			p.Health.Shutdown()

			stopped := make(chan struct{})
			go func() {
				p.Server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				p.Server.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		},
	})
}

// watchStore sets the orders health status from store pings until ctx ends.
func watchStore(ctx context.Context, healthSrv *health.Server, store Pinger, every time.Duration, logger *zap.Logger) {
	check := func() {
		state := healthpb.HealthCheckResponse_SERVING
		if store != nil {
			pingCtx, cancel := context.WithTimeout(ctx, storeCheckTimeout)
			err := store.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("orders store unreachable", zap.Error(err))
				state = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		healthSrv.SetServingStatus(OrdersServiceName, state)
	}

	check()
	if store == nil {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// toStatus converts application errors into gRPC status errors; status errors pass through.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	appErr := errorbank.From(err)
	return status.Error(appErr.GRPCCode(), appErr.Message())
}
