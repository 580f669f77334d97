package response

import (
	"github.com/gin-gonic/gin"
)

// Response is the standardized API response envelope.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Payload interface{}       `json:"payload,omitempty"`
	Code    ErrCode           `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code,
// message and payload.
func Success(c *gin.Context, statusCode int, message string, payload interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Payload: payload,
	})
}

// Fail sends an error response carrying the code's standard message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	FailWithMessage(c, statusCode, code, GetMessage(code))
}

// FailWithMessage sends an error response with a specific message, used when
// the platform's own message is passed through.
func FailWithMessage(c *gin.Context, statusCode int, code ErrCode, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: GetMessage(code),
		Code:    code,
		Fields:  fields,
	})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Message: GetMessage(code),
		Code:    code,
	})
}
