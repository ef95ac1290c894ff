package dto

import "net/http"

// Codes produced by the HTTP layer itself. Domain errors keep their own code.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeInternal        = "INTERNAL_ERROR"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Client-fixable and conflict kinds are 400, lookups 404, lost optimistic
// locks 409. Codes missing here are treated as internal errors.
var ErrorCodeHTTPStatus = map[string]int{
	// request shape
	CodeValidation:      http.StatusBadRequest,
	CodeBadRequest:      http.StatusBadRequest,
	CodeInvalidJSON:     http.StatusBadRequest,
	"INVALID_INPUT":     http.StatusBadRequest,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// auth
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeTokenExpired:     http.StatusUnauthorized,
	CodeInvalidToken:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	"CUSTOMER_SUSPENDED": http.StatusForbidden,

	// cart and order rules
	"EMPTY_CART":             http.StatusBadRequest,
	"PRODUCT_INACTIVE":       http.StatusBadRequest,
	"INSUFFICIENT_STOCK":     http.StatusBadRequest,
	"BELOW_MINIMUM_ORDER":    http.StatusBadRequest,
	"ABOVE_MAXIMUM_ORDER":    http.StatusBadRequest,
	"QUANTITY_EXCEEDS_MAX":   http.StatusBadRequest,
	"INVALID_QUANTITY":       http.StatusBadRequest,
	"INVALID_TRANSITION":     http.StatusBadRequest,
	"INVALID_ADDRESS":        http.StatusBadRequest,
	"INVALID_STATUS":         http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD": http.StatusBadRequest,
	"INVALID_STATE":          http.StatusBadRequest,
	"INVALID_NOTES":          http.StatusBadRequest,
	"INVALID_DISCOUNT":       http.StatusBadRequest,
	"INVALID_ORDER_NUMBER":   http.StatusBadRequest,
	"INVALID_CUSTOMER":       http.StatusBadRequest,

	// catalog and account data
	"INVALID_PRODUCT":       http.StatusBadRequest,
	"INVALID_PRODUCT_NAME":  http.StatusBadRequest,
	"INVALID_SKU":           http.StatusBadRequest,
	"INVALID_PRICE":         http.StatusBadRequest,
	"INVALID_STOCK":         http.StatusBadRequest,
	"INVALID_ORDER_BOUNDS":  http.StatusBadRequest,
	"INVALID_CUSTOMER_NAME": http.StatusBadRequest,
	"INVALID_GSTIN":         http.StatusBadRequest,

	// lookups
	CodeNotFound:         http.StatusNotFound,
	"PRODUCT_NOT_FOUND":  http.StatusNotFound,
	"CART_NOT_FOUND":     http.StatusNotFound,
	"ITEM_NOT_FOUND":     http.StatusNotFound,
	"ORDER_NOT_FOUND":    http.StatusNotFound,
	"CUSTOMER_NOT_FOUND": http.StatusNotFound,
	"ENTRY_NOT_FOUND":    http.StatusNotFound,

	// concurrency
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	CodeInternal:    http.StatusInternalServerError,
	CodeUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
