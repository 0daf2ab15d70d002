package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/presentation/http/response"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

type stubService struct {
	orders   map[string]*entity.Order
	closeErr error
	closed   []string
}

func (s *stubService) Get(_ context.Context, id string) (*entity.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errorbank.NotFound("order not found")
	}
	return o, nil
}

func (s *stubService) List(_ context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubService) Register(_ context.Context, patrimony, description string) (*entity.Order, error) {
	o := &entity.Order{ID: "new", Patrimony: patrimony, Description: description, Status: entity.StatusOpen, CreatedAt: time.Now()}
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubService) Close(_ context.Context, id, solution string) (*entity.Order, error) {
	if s.closeErr != nil {
		return nil, s.closeErr
	}
	s.closed = append(s.closed, id)
	o := s.orders[id]
	now := time.Now()
	o.Status, o.Solution, o.ClosedAt = entity.StatusClosed, solution, &now
	return o, nil
}

func serve(t *testing.T, svc OrderService, method, target, body string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	e := echo.New()
	Register(e, NewHandler(svc))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func newStub() *stubService {
	return &stubService{orders: map[string]*entity.Order{
		"a1": {ID: "a1", Patrimony: "123", Description: "Sem rede", Status: entity.StatusOpen, CreatedAt: time.Now()},
	}}
}

func TestGetByID(t *testing.T) {
	rec, env := serve(t, newStub(), http.MethodGet, "/orders/a1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"patrimony":"123"`)

	rec, env = serve(t, newStub(), http.MethodGet, "/orders/zz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestListReportsCount(t *testing.T) {
	rec, env := serve(t, newStub(), http.MethodGet, "/orders?status=open", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta["count"])
}

func TestCreate(t *testing.T) {
	rec, env := serve(t, newStub(), http.MethodPost, "/orders", `{"patrimony":"9","description":"Teclado"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"open"`)
}

func TestUpdateClosesWithServerTimestamp(t *testing.T) {
	svc := newStub()
	rec, env := serve(t, svc, http.MethodPatch, "/orders/a1", `{"status":"closed","solution":"Cabo","closed_at":"server_timestamp"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"closed_at"`)
	assert.Equal(t, []string{"a1"}, svc.closed)
}

func TestUpdateRejectsOtherTransitions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"reopen", `{"status":"open","solution":"x"}`},
		{"client timestamp", `{"status":"closed","solution":"x","closed_at":"2022-01-01T00:00:00Z"}`},
		{"garbage", `{"status":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStub()
			rec, env := serve(t, svc, http.MethodPatch, "/orders/a1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", env.Error.Kind)
			assert.Empty(t, svc.closed)
		})
	}
}

func TestUpdatePropagatesServiceErrors(t *testing.T) {
	svc := newStub()
	svc.closeErr = errorbank.Conflict("order already closed")
	rec, env := serve(t, svc, http.MethodPatch, "/orders/a1", `{"status":"closed","solution":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "order already closed", env.Error.Message)
}
