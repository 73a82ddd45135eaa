// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. Besides the usual API hardening headers
// it marks session routes as per-user content: placements and deliverables are
// personal data, so shared caches must never store them and private caches
// must revalidate (the versions list relies on ETag revalidation).
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultExposeHeaders are the response headers browser clients of the
// alignment API need to read.
var DefaultExposeHeaders = []string{
	requestIDHeader,
	"ETag",
	"Idempotency-Replayed",
	"Retry-After",
}

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge time.Duration // defaults to 180 days

	// PrivatePrefixes are path prefixes whose responses depend on the caller's
	// identity. They get Cache-Control: private, no-cache and Vary on the
	// identity header.
	PrivatePrefixes []string

	// ExposeHeaders are merged into Access-Control-Expose-Headers.
	// Nil means DefaultExposeHeaders.
	ExposeHeaders []string

	EnablePolicy bool // Permissions-Policy and X-Permitted-Cross-Domain-Policies
}

// SecurityHeaders returns a middleware that sets hardening, caching and
// exposure headers before the handler runs.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"
	expose := opt.ExposeHeaders
	if expose == nil {
		expose = DefaultExposeHeaders
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if isPrivatePath(c.Request.URL.Path, opt.PrivatePrefixes) {
			h.Set("Cache-Control", "private, no-cache")
			h.Add("Vary", HeaderUserID)
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		mergeExposed(h, expose)
		c.Next()
	}
}

func isPrivatePath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// mergeExposed appends names to Access-Control-Expose-Headers, skipping any
// already listed (CORS middleware may have set some).
func mergeExposed(h http.Header, names []string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	seen := map[string]bool{}
	for _, n := range strings.Split(cur, ",") {
		if n = strings.TrimSpace(n); n != "" {
			seen[strings.ToLower(n)] = true
		}
	}
	out := cur
	for _, n := range names {
		if seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		if out == "" {
			out = n
		} else {
			out += ", " + n
		}
	}
	if out != "" {
		h.Set(hdr, out)
	}
}

// isHTTPS reports whether the request arrived over TLS directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
