package dto

import "github.com/retailops/backend/internal/domain/shared"

// Response is the envelope of every API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"requestId,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries pagination of list responses
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewPageResponse moves pagination of p into Meta.
func NewPageResponse[T any](p shared.Paginated[T]) Response {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Total:      p.Total,
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalPages: p.TotalPages,
		},
	}
}

// NewErrorResponse wraps info in an error envelope
func NewErrorResponse(info ErrorInfo) Response {
	return Response{Success: false, Error: &info}
}

// NewValidationErrorResponse reports rejected request fields
func NewValidationErrorResponse(requestID string, details []ValidationDetail) Response {
	return NewErrorResponse(ErrorInfo{
		Code:      shared.CodeValidation,
		Message:   "Request validation failed",
		RequestID: requestID,
		Details:   details,
	})
}
