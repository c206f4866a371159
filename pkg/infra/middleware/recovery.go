package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/nixkryption/server/pkg/errors"
)

// RecoveryConfig defines the config for Recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace includes the stack in the error response.
	EnableStackTrace bool

	// OnPanic is called when a panic occurs.
	OnPanic func(c *gin.Context, err interface{}, stack []byte)
}

// DefaultRecoveryConfig is the default Recovery middleware config.
var DefaultRecoveryConfig = RecoveryConfig{
	OnPanic: func(c *gin.Context, err interface{}, stack []byte) {
		logger.Errorw("panic recovered",
			"path", c.Request.URL.Path,
			"request_id", GetRequestID(c.Request.Context()),
			"panic", fmt.Sprint(err),
			"stack", string(stack),
		)
	},
}

// Recovery returns a middleware that turns panics into a JSON error body.
func Recovery() gin.HandlerFunc {
	return RecoveryWithConfig(DefaultRecoveryConfig)
}

// RecoveryWithConfig returns a Recovery middleware with custom config.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()
			if config.OnPanic != nil {
				config.OnPanic(c, r, stack)
			}

			msg := fmt.Sprintf("panic: %v", r)
			if config.EnableStackTrace {
				msg = fmt.Sprintf("panic: %v\n%s", r, stack)
			}
			e := errors.ErrInternal.WithMessage(msg)
			c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{"code": e.Code, "message": e.MessageEN})
		}()
		c.Next()
	}
}
