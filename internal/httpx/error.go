package httpx

import "github.com/gin-gonic/gin"

// ErrorResponse represents a standard error in JSON.
// swagger:model ErrorResponse
type ErrorResponse struct {
	// machine readable code
	// example: not_found
	Error string `json:"error"`
	// example: order not found
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError aborts the request with the JSON error envelope.
func WriteError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: RequestIDFrom(c),
	})
}
