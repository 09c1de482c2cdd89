// internal/apperrors/middleware.go
package apperrors

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware translates errors pushed onto the gin context into the uniform
// {status, statusCode, message} body. Unknown errors become a 500 without
// leaking detail to the client.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := AsError(err); ok {
			if appErr.Err != nil {
				log.Printf("request error: %v", appErr)
			}
			c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
				"status":     "error",
				"statusCode": appErr.StatusCode,
				"message":    appErr.Message,
			})
			return
		}

		log.Printf("unhandled error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"status":     "error",
			"statusCode": http.StatusInternalServerError,
			"message":    "Internal Server Error",
		})
	}
}
