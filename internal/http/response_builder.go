package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder assembles a JSON response: status, extra headers and
// either a data payload or a one-shot feedback message.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// messageBody is the body of mutation results and errors. Clients show it
// once and drop it.
type messageBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewJSONResponse creates a builder with a 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets v as the whole response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Message sets a feedback message body, optionally carrying the created resource.
func (b *JSONResponseBuilder) Message(msg string, data any) *JSONResponseBuilder {
	b.payload = messageBody{Message: msg, Data: data}
	return b
}

// Write sends the response. Encoding errors are logged; the status is
// already on the wire by then.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// ErrorResponse creates an error response with the given message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(messageBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError asks the client to retry after a minute.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Demasiadas peticiones, inténtalo más tarde").
		Header("Retry-After", "60")
}
