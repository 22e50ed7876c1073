package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the payload returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error writes the standard error payload.
func Error(c *gin.Context, code int, errMsg, detail string) {
	c.JSON(code, ErrorResponse{
		Success: false,
		Error:   errMsg,
		Message: detail,
	})
}

// OK writes a success payload, merging the given fields under success=true.
func OK(c *gin.Context, code int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(code, body)
}
