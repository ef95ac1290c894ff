package shared

import "maps"

// DomainError is a business rule failure that reaches the API client as
// {code, message, details}. Code is stable and is what callers match on.
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Is compares codes, so errors.Is(err, ErrNotFound) holds for any NOT_FOUND
// however its message or details differ.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return t.Code == e.Code
	}
	return false
}

// WithDetails copies e and adds details over any it already has; e is untouched
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	cp := *e
	cp.Details = maps.Clone(e.Details)
	if cp.Details == nil {
		cp.Details = make(map[string]any, len(details))
	}
	maps.Copy(cp.Details, details)
	return &cp
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)
