// Package http serves the ledger over a JSON and CSV API.
package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"mstore/internal/core"
	"mstore/internal/ledger"
	"mstore/internal/report"
	"mstore/internal/services"
)

// ResponseBuilder is a fluent API for JSON and attachment responses.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	body        []byte
	contentType string
	err         error
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v, encoded as JSON, as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body, b.err = json.Marshal(v)
	b.contentType = "application/json"
	return b
}

// Attachment sets a text body offered for download as filename.
func (b *ResponseBuilder) Attachment(filename, contentType, body string) *ResponseBuilder {
	b.body = []byte(body)
	b.contentType = contentType
	b.headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, `{"error":"encoding response failed"}`, http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.contentType != "" {
		w.Header().Set("Content-Type", b.contentType)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ValidationErrorResponse reports every missing record field with 422.
func ValidationErrorResponse(verr *ledger.ValidationError) *ResponseBuilder {
	var fields []string
	for _, f := range []struct {
		err  error
		name string
	}{
		{core.ErrEmptyItemName, "itemName"},
		{core.ErrEmptyQuantity, "quantity"},
		{core.ErrEmptyPrice, "price"},
	} {
		if errors.Is(verr, f.err) {
			fields = append(fields, f.name)
		}
	}
	return NewResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(ErrorBody{Error: verr.Error(), Fields: fields})
}

// ErrorFor maps a domain error to its response; unknown errors become 500
// without leaking their text.
func ErrorFor(err error) *ResponseBuilder {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return ValidationErrorResponse(verr)
	case errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrInvalidDateKey),
		errors.Is(err, report.ErrUnknownPeriod):
		return BadRequestError(err.Error())
	case errors.Is(err, ledger.ErrNoBucket), errors.Is(err, ledger.ErrIndexOutOfRange):
		return NotFoundError(err.Error())
	case errors.Is(err, services.ErrNotToday):
		return ErrorResponse(http.StatusForbidden, err.Error())
	default:
		return InternalServerError("internal error")
	}
}
