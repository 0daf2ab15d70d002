package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/database"
	"github.com/Additional-Code/repairdesk/internal/observability"
	"github.com/Additional-Code/repairdesk/internal/presentation/http/response"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

const readinessTimeout = 2 * time.Second

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Params collects what the router needs. Observability and Database are optional.
type Params struct {
	fx.In

	Config        config.Config
	Logger        *zap.Logger
	Observability *observability.Manager `optional:"true"`
	Database      *database.Connections  `optional:"true"`
}

// NewEcho configures the Echo router with request logging, recovery and telemetry.
func NewEcho(p Params) *echo.Echo {
	var store Pinger
	if p.Database != nil {
		store = p.Database
	}
	return newRouter(p.Config, p.Observability, store, p.Logger)
}

func newRouter(cfg config.Config, obs *observability.Manager, store Pinger, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		if store == nil {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return response.Error(c, errorbank.Unavailable("orders store unreachable", errorbank.WithCause(err)))
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// errorHandler renders router level failures (unknown route, wrong method, panics) in the
// same envelope the order handlers use.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := errorbank.From(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			appErr = errorbank.New(errorbank.KindFromStatus(he.Code), fmt.Sprint(he.Message), errorbank.WithCause(err))
		}

		if appErr.StatusCode() >= http.StatusInternalServerError {
			logger.Error("http request failed", zap.Error(err), zap.String("path", c.Path()))
		} else {
			logger.Debug("http request rejected", zap.Error(err), zap.String("path", c.Path()))
		}

		if buildErr := response.Error(c, appErr); buildErr != nil {
			logger.Warn("write error response", zap.Error(buildErr))
		}
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting order service", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping order service")
			return server.Shutdown(ctx)
		},
	})
}
