// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. Authentication happens upstream
// (gateway or auth proxy); the authenticated user id arrives in X-User-ID and
// every session operation is filtered by it.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the authenticated user id.
	HeaderUserID = "X-User-ID"
	// UserIDKey is the Gin context key holding the resolved user id.
	UserIDKey = "userID"

	maxUserIDLen = 64
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@|:\-]+$`)

// Identity stores a well-formed X-User-ID in the context under UserIDKey.
// Malformed or missing values are ignored here; RequireUser rejects them.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); validUserID(uid) {
			c.Set(UserIDKey, uid)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless Identity resolved a user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			SetErrorCode(c, "unauthorized")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid " + HeaderUserID,
			})
			return
		}
		c.Next()
	}
}

// UserID returns the resolved user id or "".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func validUserID(s string) bool {
	return s != "" && len(s) <= maxUserIDLen && userIDPattern.MatchString(s)
}
