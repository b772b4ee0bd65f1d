package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error writes {"error": message} with the given status.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{Error: message})
}

// Success writes data as a 200 JSON response.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, data)
}
