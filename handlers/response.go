package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
)

// Response is the body of every successful response.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

func respond(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{Status: code, Message: message, Data: data, Success: code < 400})
}

// abort hands err to the error translator and stops the chain.
func abort(c *gin.Context, span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())
	_ = c.Error(err)
	c.Abort()
}

func invalidBody() error {
	return domain.InvalidRequest("Invalid request body")
}
