// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation and the request-scoped logger:
//
//   - RequestID() propagates a well-formed X-Request-ID or mints one.
//   - Recovery() turns panics into the JSON error envelope.
//   - LoggerFrom() returns a zerolog.Logger carrying the request's
//     correlation and session fields (request_id, user_id, session_id,
//     product, step) so handler logs line up with the access log written by
//     RedactingLogger.
//
// Order: RequestID, RedactingLogger, Recovery. Identity runs later in the
// chain, so LoggerFrom resolves fields on first use rather than up front.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey caches the request-scoped logger once built.
	loggerKey = "logger"

	maxRequestIDLen = 128
)

// Incoming ids end up verbatim in logs and response headers.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// RequestID reuses the caller's X-Request-ID when it is well formed and
// otherwise generates a UUIDv4. The id is stored in the context and echoed
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	return s != "" && len(s) <= maxRequestIDLen && requestIDPattern.MatchString(s)
}

// RequestIDFrom returns the correlation id set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// Recovery logs the panic with its stack and session context, then answers
// with a JSON 500 unless the handler already started writing.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := RequestIDFrom(c)
				lg := LoggerFrom(c)
				lg.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				SetErrorCode(c, "internal_error")
				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, rid)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": rid,
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, building it on first use from
// the correlation id, the resolved user and the session route parameters.
// Fields that are unknown at that point are omitted. Outside a request
// pipeline it degrades to the global logger.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	lc := log.With()
	for _, f := range []struct{ key, val string }{
		{"request_id", RequestIDFrom(c)},
		{"user_id", UserID(c)},
		{"session_id", c.Param("id")},
		{"product", c.Param("slug")},
		{"step", c.Param("step")},
	} {
		if f.val != "" {
			lc = lc.Str(f.key, f.val)
		}
	}
	l := lc.Logger()
	// Cache only once identity is resolved so early callers do not pin a
	// logger without user_id.
	if UserID(c) != "" {
		c.Set(loggerKey, &l)
	}
	return &l
}

// asString returns v when it is a string and "" otherwise.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
