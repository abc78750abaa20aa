package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string `json:"error" example:"rate limit exceeded"`
	RetryAfter string `json:"retry_after,omitempty" example:"1s"`
}

// ErrorPage holds the values rendered into the HTML error page
type ErrorPage struct {
	Status  int
	Title   string
	Message string
}
