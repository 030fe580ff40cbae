package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/saveurs/backend/internal/logging"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Recovery turns a panic into a JSON 500 and logs it with the request id
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.Ctx(c.Request.Context()).Error().
					Str("panic", fmt.Sprint(err)).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: "Internal Server Error",
					Code:  "internal_error",
				})
			}
		}()
		c.Next()
	}
}

// NotFound answers unknown routes with the JSON error shape
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found"})
	}
}
