// Package services holds the storefront's business rules. Services take
// their repositories and collaborators through constructors and return
// *Error for anything a client should see.
package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/perennia/storefront/pkg/orm"
)

// Error is a failure with the HTTP status and detail a client receives.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string   { return e.Detail }
func (e *Error) HTTPStatus() int { return e.Status }

func NotFound(detail string) *Error     { return &Error{Status: http.StatusNotFound, Detail: detail} }
func BadRequest(detail string) *Error   { return &Error{Status: http.StatusBadRequest, Detail: detail} }
func Forbidden(detail string) *Error    { return &Error{Status: http.StatusForbidden, Detail: detail} }
func Unauthorized(detail string) *Error { return &Error{Status: http.StatusUnauthorized, Detail: detail} }
func Internal(detail string) *Error     { return &Error{Status: http.StatusInternalServerError, Detail: detail} }

// notFoundAs turns orm.ErrNotFound into a 404 with detail and wraps anything
// else with op.
func notFoundAs(err error, detail, op string) error {
	if errors.Is(err, orm.ErrNotFound) {
		return NotFound(detail)
	}
	return fmt.Errorf("services: %s: %w", op, err)
}

// StatusOf returns the HTTP status err maps to.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
