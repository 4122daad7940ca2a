package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInvalidReviewID    = "Invalid review ID"
	ErrMsgUnauthorized       = "Unauthorized"
)

// API path constants
const (
	ReviewsAPIBasePath = "/api/v1/reviews"
)
