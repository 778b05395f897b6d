package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rollbar/rollbar-go"

	"learningsite/logger"
)

// ErrorReporter forwards server errors to Rollbar when a token is set.
type ErrorReporter struct {
	enabled bool
}

func NewErrorReporter(token, env, codeVersion string) *ErrorReporter {
	if token == "" {
		return &ErrorReporter{}
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetEnabled(true)
	return &ErrorReporter{enabled: true}
}

func (r *ErrorReporter) Report(req *http.Request, err error) {
	if r == nil || !r.enabled {
		return
	}
	rollbar.RequestError(rollbar.ERR, req, err)
}

// Close flushes pending reports.
func (r *ErrorReporter) Close() {
	if r != nil && r.enabled {
		rollbar.Close()
	}
}

// Recovery turns panics into 500 responses and reports every request that
// ends in a server error.
func Recovery(log *logger.Logger, reporter *ErrorReporter) gin.HandlerFunc {
	log = log.With("middleware", "Recovery")
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				log.Error("panic recovered", "path", c.Request.URL.Path, "error", err)
				reporter.Report(c.Request, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			for _, ginErr := range c.Errors {
				reporter.Report(c.Request, ginErr.Err)
			}
		}
	}
}
