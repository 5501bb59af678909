package respond

import (
	"github.com/gin-gonic/gin"

	"chess-api/internal/shared/telemetry"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// Error logs the failure and aborts the request with the error envelope.
func Error(c *gin.Context, status int, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if payer := c.GetString("payer"); payer != "" {
		fields["payer"] = payer
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}
