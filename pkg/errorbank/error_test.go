package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestAppErrorStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   codes.Code
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{"conflict", Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{"not found", NotFound("x"), http.StatusNotFound, codes.NotFound},
		{"unprocessable", Unprocessable("x"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{"unavailable", Unavailable("x"), http.StatusServiceUnavailable, codes.Unavailable},
		{"internal", Internal("x"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	appErr := From(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("context: %w", NotFound("order not found"))
	assert.Equal(t, KindNotFound, From(wrapped).Kind())
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(cause, KindNotFound))
	assert.Nil(t, From(nil))
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindConflict, ParseKind("conflict"))
	assert.Equal(t, KindInternal, ParseKind("teapot"))
	assert.Equal(t, KindNotFound, KindFromStatus(http.StatusNotFound))
	assert.Equal(t, KindUnavailable, KindFromStatus(http.StatusBadGateway))
	assert.Equal(t, KindBadRequest, KindFromStatus(http.StatusMethodNotAllowed))
	assert.Equal(t, KindInternal, KindFromStatus(http.StatusTeapot))
}

func TestDetails(t *testing.T) {
	err := BadRequest("invalid", WithDetail("field", "status"), WithDetails(map[string]any{"allowed": "closed"}))
	assert.Equal(t, map[string]any{"field": "status", "allowed": "closed"}, err.Details())
	assert.Equal(t, "invalid", err.Error())
}
