// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
//
// Every error carries a stable machine-readable code plus a human-readable
// detail. Services return *Error; handlers map codes to HTTP statuses.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable kind of an API error.
type Code string

const (
	CodeUnauthorized      Code = "unauthorized"
	CodeNotFound          Code = "not_found"
	CodeValidation        Code = "validation"
	CodeConflict          Code = "conflict"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeServer            Code = "server"
)

// Error is the canonical error envelope for all 4xx/5xx HTTP responses.
type Error struct {
	Code   Code              `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
	Stock  *StockDetail      `json:"stock,omitempty"`
}

// StockDetail identifies the offending item and the shortfall on an
// insufficient-stock failure, so the operator can act (reorder, edit).
type StockDetail struct {
	RepuestoID string `json:"repuesto_id"`
	Codigo     string `json:"codigo"`
	Disponible int    `json:"disponible"`
	Solicitado int    `json:"solicitado"`
}

func (e *Error) Error() string { return e.Detail }

// Unauthorized: no/invalid identity. Never reveals whether the target exists.
func Unauthorized(detail string) *Error {
	return &Error{Code: CodeUnauthorized, Detail: detail}
}

// NotFound covers both truly absent and owned-by-someone-else — the response
// is identical so existence never leaks across owners.
func NotFound(detail string) *Error {
	return &Error{Code: CodeNotFound, Detail: detail}
}

// Validation: malformed input, illegal lifecycle transition, or the
// locked-order / immutable-parts rules.
func Validation(detail string) *Error {
	return &Error{Code: CodeValidation, Detail: detail}
}

// ValidationFields wraps per-field validation failures.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Detail: "Error de validacion", Fields: fields}
}

// Conflict: optimistic-version mismatch on a concurrent edit. The caller must
// re-fetch and retry.
func Conflict(detail string) *Error {
	return &Error{Code: CodeConflict, Detail: detail}
}

// StockInsuficiente names the item and the shortfall.
func StockInsuficiente(repuestoID, codigo string, disponible, solicitado int) *Error {
	return &Error{
		Code: CodeInsufficientStock,
		Detail: fmt.Sprintf("Stock insuficiente para %s: disponible %d, solicitado %d",
			codigo, disponible, solicitado),
		Stock: &StockDetail{
			RepuestoID: repuestoID,
			Codigo:     codigo,
			Disponible: disponible,
			Solicitado: solicitado,
		},
	}
}

// Server: storage/infrastructure fault. Safe to retry from the caller's
// perspective; the original cause is logged server-side, never exposed.
func Server(detail string) *Error {
	return &Error{Code: CodeServer, Detail: detail}
}

// From normalizes any error into an *Error. Unknown errors become a generic
// server error so internals never reach the client.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Server("Error interno del servidor")
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// HTTPStatus maps a code to its HTTP status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeConflict, CodeInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
