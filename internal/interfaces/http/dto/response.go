package dto

// Response wraps every body the API writes, success or not
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Meta      *Meta      `json:"meta,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo carries the domain error code. Details hold what the client
// needs to recover, such as product_name and available on a stock conflict;
// Fields lists binding failures.
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Fields  []FieldError   `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta describes the page a list response holds
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta is a list page; TotalPages rounds up and is 0 when pageSize is
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	meta := &Meta{Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		size := int64(pageSize)
		meta.TotalPages = int((total + size - 1) / size)
	}
	return Response{Success: true, Data: data, Meta: meta}
}

func NewErrorResponse(code, message, requestID string, details map[string]any) Response {
	return failure(requestID, &ErrorInfo{Code: code, Message: message, Details: details})
}

func NewValidationErrorResponse(requestID string, fields []FieldError) Response {
	return failure(requestID, &ErrorInfo{Code: CodeValidation, Message: "Request validation failed", Fields: fields})
}

func failure(requestID string, info *ErrorInfo) Response {
	return Response{Error: info, RequestID: requestID}
}
