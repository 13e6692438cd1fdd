package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeInvalidAssignee   = "INVALID_ASSIGNEE"
	CodeNoEligibleStaff   = "NO_ELIGIBLE_STAFF"
	CodeValidation        = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"

	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so callers can test
// against the sentinels below with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrIllegalTransition = &DomainError{Code: CodeIllegalTransition}
	ErrConflict          = &DomainError{Code: CodeConflict}
	ErrInvalidAssignee   = &DomainError{Code: CodeInvalidAssignee}
	ErrNoEligibleStaff   = &DomainError{Code: CodeNoEligibleStaff}
	ErrValidation        = &DomainError{Code: CodeValidation}
	ErrUnauthorized      = &DomainError{Code: CodeUnauthorized}
	ErrForbidden         = &DomainError{Code: CodeForbidden}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewConflict reports a failed optimistic concurrency check.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewIllegalTransition reports an edge missing from the lifecycle table.
// allowed lists what the caller could do instead.
func NewIllegalTransition(current, target, event string, allowed []string) error {
	if allowed == nil {
		allowed = []string{}
	}
	return NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("cannot %s complaint in status %s", event, current),
		http.StatusConflict,
		map[string]any{
			"current": current,
			"target":  target,
			"event":   event,
			"allowed": allowed,
		})
}

func NewInvalidAssignee(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidAssignee, message, http.StatusUnprocessableEntity, details)
}

func NewNoEligibleStaff(details map[string]any) error {
	return NewDomainError(CodeNoEligibleStaff, "no eligible staff", http.StatusUnprocessableEntity, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < http.StatusInternalServerError {
		return fromFiber(fiberErr)
	}
	return NewInternalError(err).(*DomainError)
}

// fromFiber keeps the status of errors raised by the router and body
// parser, such as unknown routes or oversized payloads.
func fromFiber(fe *fiber.Error) *DomainError {
	code := CodeValidation
	switch fe.Code {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusConflict:
		code = CodeConflict
	case http.StatusMethodNotAllowed:
		code = CodeMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		code = CodePayloadTooLarge
	default:
		if fe.Code != http.StatusBadRequest {
			code = strings.ToUpper(strings.ReplaceAll(http.StatusText(fe.Code), " ", "_"))
		}
	}
	if code == "" {
		code = CodeValidation
	}
	return &DomainError{
		Code:       code,
		Message:    fe.Message,
		HTTPStatus: fe.Code,
		Details:    map[string]any{},
		Err:        fe,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
