// Package order is the HTTP client for the orders document collection.
package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/presentation/http/response"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

var clientTracer = otel.Tracer("github.com/Additional-Code/repairdesk/client/order")

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// Module provides the client to Fx.
var Module = fx.Provide(NewFromConfig)

// Client talks to the order service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewFromConfig builds a Client from the client section of the configuration.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Client {
	return New(cfg.Client.BaseURL, &http.Client{Timeout: cfg.Client.Timeout}, logger)
}

// New builds a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger}
}

// GetDocument fetches one document by id.
func (c *Client) GetDocument(ctx context.Context, collection, id string) (*dto.OrderDocument, error) {
	var doc dto.OrderDocument
	if err := c.do(ctx, http.MethodGet, documentPath(collection, id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument applies fields to the document with the given id.
func (c *Client) UpdateDocument(ctx context.Context, collection, id string, fields dto.OrderUpdate) error {
	return c.do(ctx, http.MethodPatch, documentPath(collection, id), fields, nil)
}

// ListDocuments lists documents, optionally filtered by status.
func (c *Client) ListDocuments(ctx context.Context, collection, status string) ([]dto.OrderDocument, error) {
	path := "/" + url.PathEscape(collection)
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}
	var docs []dto.OrderDocument
	if err := c.do(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CreateDocument registers a new document.
func (c *Client) CreateDocument(ctx context.Context, collection string, reg dto.OrderRegistration) (*dto.OrderDocument, error) {
	var doc dto.OrderDocument
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(collection), reg, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := clientTracer.Start(ctx, "OrderClient "+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("url.path", path)))
	defer span.End()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errorbank.Internal("encode request", errorbank.WithCause(err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errorbank.Internal("build request", errorbank.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.logger.Warn("order service unreachable", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return errorbank.Unavailable("order service unreachable", errorbank.WithCause(err))
	}
	defer resp.Body.Close()

	var env response.Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil && resp.StatusCode < 400 {
		span.RecordError(err)
		return errorbank.Internal("decode response", errorbank.WithCause(err))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 || !env.Success {
		appErr := env.AsError(resp.StatusCode)
		span.SetStatus(codes.Error, appErr.Message())
		c.logger.Debug("order service returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(appErr.Kind())),
		)
		return appErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errorbank.Internal("decode response data", errorbank.WithCause(err))
	}
	return nil
}

func documentPath(collection, id string) string {
	return fmt.Sprintf("/%s/%s", url.PathEscape(collection), url.PathEscape(id))
}
