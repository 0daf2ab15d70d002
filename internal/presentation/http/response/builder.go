// Package response renders the JSON envelope shared by every order API endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

// Envelope is the JSON body of every order API response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
	Meta    map[string]any  `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AsError rebuilds the application error carried by a failed envelope.
func (e Envelope) AsError(status int) *errorbank.AppError {
	if e.Error == nil {
		return errorbank.New(errorbank.KindFromStatus(status), http.StatusText(status))
	}
	return errorbank.New(errorbank.ParseKind(e.Error.Kind), e.Error.Message, errorbank.WithDetails(e.Error.Details))
}

// OK writes a 200 envelope around data.
func OK(c echo.Context, data any) error {
	return write(c, http.StatusOK, data, nil)
}

// Created writes a 201 envelope around a freshly registered document.
func Created(c echo.Context, data any) error {
	return write(c, http.StatusCreated, data, nil)
}

// Collection writes a 200 envelope around a document list and records its size in meta.
func Collection[T any](c echo.Context, docs []T) error {
	if docs == nil {
		docs = []T{}
	}
	return write(c, http.StatusOK, docs, map[string]any{"count": len(docs)})
}

// Error writes a failed envelope. The status follows the error kind.
func Error(c echo.Context, err error) error {
	appErr := errorbank.From(err)
	return c.JSON(appErr.StatusCode(), Envelope{
		Error: &ErrorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
	})
}

func write(c echo.Context, status int, data any, meta map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return Error(c, errorbank.Internal("encode response", errorbank.WithCause(err)))
	}
	return c.JSON(status, Envelope{Success: true, Data: raw, Meta: meta})
}
