package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInternal           = "Internal server error"
	ErrMsgInvalidStatus      = "Invalid status filter"
	ErrMsgInvalidPagination  = "Invalid pagination parameters"
)

// API path constants
const (
	APIBasePath = "/api/v1"
)

// Pagination defaults for list endpoints
const (
	defaultPageSize = 50
	maxPageSize     = 100
)
