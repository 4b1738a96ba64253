// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors to status codes in one place.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/log"
	"paycal/internal/services"
	"paycal/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.data)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// statusFor maps an error returned by the service layer to a status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyPaid),
		errors.Is(err, core.ErrInstallmentsComplete):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrInvalidMonth),
		errors.Is(err, calendar.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrUnsupportedPaymentKind),
		errors.Is(err, services.ErrInvalidWindow),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDueDay),
		errors.Is(err, core.ErrInvalidInstallmentCount),
		errors.Is(err, core.ErrPaidExceedsTotal),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrInvalidStartDate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err through the request logger and writes the JSON error.
// Internal failures are reported without their detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	logger := log.FromContext(r.Context())
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err.Error())
		msg = http.StatusText(code)
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldStatusCode, code,
			log.FieldError, err.Error())
	}
	NewJSONResponse().
		Status(code).
		Data(errorBody{Error: msg, RequestID: requestIDOf(r)}).
		Write(w)
}
