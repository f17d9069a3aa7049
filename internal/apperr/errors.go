// Package apperr is the error taxonomy of the stock engine. Every error that
// crosses a use case boundary is an *AppError carrying a stable code.
package apperr

import (
	"errors"
	"fmt"
)

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNegativeStock       = "NEGATIVE_STOCK"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeInternal            = "INTERNAL_ERROR"
)

// Sentinels for errors.Is; matching is by code only.
var (
	ErrValidation          = &AppError{Code: CodeValidation}
	ErrNegativeStock       = &AppError{Code: CodeNegativeStock}
	ErrInsufficientStock   = &AppError{Code: CodeInsufficientStock}
	ErrInvalidState        = &AppError{Code: CodeInvalidState}
	ErrConcurrencyConflict = &AppError{Code: CodeConcurrencyConflict}
	ErrNotFound            = &AppError{Code: CodeNotFound}
)

type AppError struct {
	Code    string
	Message string
	Details map[string]string
	Err     error

	permanent bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// Permanent marks a conflict whose outcome a rerun of the same transaction
// cannot change. The code is kept.
func (e *AppError) Permanent() *AppError {
	e.permanent = true
	return e
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Validation(format string, args ...any) *AppError {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) *AppError {
	return New(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NegativeStock reports a change that would drive on-hand below zero.
func NegativeStock(tuple, onHand, change string) *AppError {
	return New(CodeNegativeStock, fmt.Sprintf("stock %s would go negative (on hand %s, change %s)", tuple, onHand, change)).
		WithDetail("tuple", tuple).
		WithDetail("on_hand", onHand).
		WithDetail("change", change)
}

func InsufficientStock(tuple, available, requested string) *AppError {
	return New(CodeInsufficientStock, fmt.Sprintf("stock %s has %s available, %s requested", tuple, available, requested)).
		WithDetail("tuple", tuple).
		WithDetail("available", available).
		WithDetail("requested", requested)
}

func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource)).WithDetail("id", id)
}

func Conflict(format string, args ...any) *AppError {
	return New(CodeConcurrencyConflict, fmt.Sprintf(format, args...))
}

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message).Wrap(err)
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Retryable reports whether err is a concurrency conflict that a fresh
// transaction may resolve.
func Retryable(err error) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == CodeConcurrencyConflict {
			return !appErr.permanent
		}
		err = appErr.Err
	}
	return false
}
