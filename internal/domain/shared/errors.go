package shared

import (
	"errors"
	"fmt"
)

// Error codes carried by DomainError.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeAlreadyProcessed    = "ALREADY_PROCESSED"
	CodeAlreadySettled      = "ALREADY_SETTLED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeOverpayment         = "OVERPAYMENT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Sentinels for errors.Is comparisons
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrAlreadyProcessed    = NewDomainError(CodeAlreadyProcessed, "Resource has already been processed")
	ErrAlreadySettled      = NewDomainError(CodeAlreadySettled, "Invoice is already settled")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition is not allowed")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInsufficientBalance = NewDomainError(CodeInsufficientBalance, "Insufficient balance available")
	ErrOverpayment         = NewDomainError(CodeOverpayment, "Payment exceeds the amount due")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request has already been submitted")
)

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error for the given resource
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// NewAlreadyProcessedError reports a decision on a resource that already left PENDING
func NewAlreadyProcessedError(resource string, id any, status string) *DomainError {
	return NewDomainError(CodeAlreadyProcessed,
		fmt.Sprintf("%s %v has already been processed (status %s)", resource, id, status))
}

// NewAlreadySettledError reports a payment against a fully paid invoice
func NewAlreadySettledError(invoiceID any) *DomainError {
	return NewDomainError(CodeAlreadySettled, fmt.Sprintf("invoice %v is already paid", invoiceID))
}

// NewInvalidTransitionError reports a state-machine violation
func NewInvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// NewInsufficientStockError names the product whose bucket would go negative
func NewInsufficientStockError(productID any, requested int64) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for product %v: requested %d", productID, requested))
}

// NewInsufficientBalanceError reports a gift card that cannot cover a payment
func NewInsufficientBalanceError(code string) *DomainError {
	return NewDomainError(CodeInsufficientBalance,
		fmt.Sprintf("gift card %s has insufficient balance", code))
}

// NewOverpaymentError reports a payment larger than the amount due
func NewOverpaymentError(amount, due fmt.Stringer) *DomainError {
	return NewDomainError(CodeOverpayment,
		fmt.Sprintf("payment of %s exceeds amount due %s", amount, due))
}
