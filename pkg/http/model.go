package http

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error" example:"Unsupported cryptocurrency"`
}

// StatusBody acknowledges a write without returning a resource.
type StatusBody struct {
	Status string `json:"status" example:"ok"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string `json:"field,omitempty" example:"crypto"`
	Message string `json:"message,omitempty" example:"crypto is required"`
}
