package error

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stayfinder-service/domain"
)

// ErrorMessage is the body of every failed response.
type ErrorMessage struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewErrorMessage(code int, message string) ErrorMessage {
	return ErrorMessage{StatusCode: code, Message: message, Success: false}
}

func ReturnJSONError(w http.ResponseWriter, err interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(err)
}

func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorTranslator writes the error envelope for the last error a handler
// attached with c.Error. Only AppErrors below 500 reach the client verbatim.
func ErrorTranslator(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		code, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		var appErr *domain.AppError
		if errors.As(last.Err, &appErr) && appErr.Kind != domain.KindInternal {
			code, message = StatusFor(appErr.Kind), appErr.Message
		} else {
			logger.WithFields(logrus.Fields{
				"path":   "error/translator",
				"route":  c.FullPath(),
				"method": c.Request.Method,
			}).Error(last.Err)
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.AbortWithStatusJSON(code, NewErrorMessage(code, message))
	}
}

// Recovery turns a panic into the internal error envelope.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"path":  "error/recovery",
			"route": c.FullPath(),
		}).Errorf("panic: %v", recovered)
		code := http.StatusInternalServerError
		c.AbortWithStatusJSON(code, NewErrorMessage(code, http.StatusText(code)))
	})
}
