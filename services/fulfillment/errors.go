package main

import (
	"context"
	"errors"
)

// Erros do domínio do workflow de fulfillment
var (
	ErrInvalidOrder      = errors.New("invalid order: must be non-empty with positive quantities")
	ErrItemNotFound      = errors.New("store item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPersistence       = errors.New("failed to persist order")
	ErrWorkflowTimeout   = errors.New("workflow deadline exceeded")
	ErrInternal          = errors.New("internal error")
)

// lineCodeForError traduz um erro de decremento para o código reportado por linha
func lineCodeForError(err error) string {
	switch {
	case err == nil:
		return LineCodeDecremented
	case errors.Is(err, ErrInsufficientStock):
		return LineCodeInsufficientStock
	case errors.Is(err, ErrItemNotFound):
		return LineCodeNotFound
	case isDeadlineErr(err):
		return LineCodeTimeout
	default:
		return LineCodeError
	}
}

func isDeadlineErr(err error) bool {
	return errors.Is(err, ErrWorkflowTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
