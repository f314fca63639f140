package middleware

import (
	"errors"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/logger"
)

var exposeDetail atomic.Bool

// ExposeErrorDetail controls whether failure envelopes carry the internal
// error text. Enable it only outside production.
func ExposeErrorDetail(expose bool) {
	exposeDetail.Store(expose)
}

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// RespondOK writes a success envelope.
func RespondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// AbortWithError writes a failure envelope and aborts the chain. AppErrors
// keep their status, code and message; anything else becomes a generic
// internal error. Internal details are always logged server side.
func AbortWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if appErr.Internal != nil {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(requestIDKey),
		)
	}

	body := Envelope{Success: false, Message: appErr.Message, Code: appErr.Code}
	if exposeDetail.Load() {
		body.Detail = appErr.Detail()
	}
	c.AbortWithStatusJSON(appErr.StatusCode, body)
}
