package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// HandleError writes a failed envelope. code is a stable machine-readable
// reason such as NO_ROUTE; it may be empty.
func HandleError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

func HandleBadRequest(c *gin.Context, msg string) {
	HandleError(c, http.StatusBadRequest, "BAD_REQUEST", msg)
}

func HandleNotFound(c *gin.Context, msg string) {
	HandleError(c, http.StatusNotFound, "NOT_FOUND", msg)
}

func HandleInternalError(c *gin.Context, msg string) {
	HandleError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", msg)
}
