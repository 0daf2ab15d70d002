package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/cache"
	clientorder "github.com/Additional-Code/repairdesk/internal/client/order"
	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/database"
	"github.com/Additional-Code/repairdesk/internal/logger"
	"github.com/Additional-Code/repairdesk/internal/messaging"
	"github.com/Additional-Code/repairdesk/internal/observability"
	repositoryorder "github.com/Additional-Code/repairdesk/internal/repository/order"
	grpcserver "github.com/Additional-Code/repairdesk/internal/server/grpc"
	httpserver "github.com/Additional-Code/repairdesk/internal/server/http"
	serviceorder "github.com/Additional-Code/repairdesk/internal/service/order"
	transportorder "github.com/Additional-Code/repairdesk/internal/transport/http/order"
	"github.com/Additional-Code/repairdesk/internal/worker"
	workerorder "github.com/Additional-Code/repairdesk/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transportorder.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Client wires the terminal client. It owns the terminal, so logs go to the client log file.
var Client = fx.Options(
	config.Module,
	fx.Decorate(func(cfg config.Config) config.Config {
		cfg.Observability.LogOutput = []string{cfg.Client.LogFile}
		return cfg
	}),
	logger.Module,
	clientorder.Module,
)

// Module is the default application wiring (HTTP and gRPC).
var Module = HTTP

// EventLogger routes Fx lifecycle events through the application logger. Long-running
// processes use it; one-shot commands stay quiet.
var EventLogger = fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})
