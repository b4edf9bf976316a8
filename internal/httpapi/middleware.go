// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/urang-market/accounts/internal/auth"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// IdentityFromContext returns the authenticated identity set by RequireSession.
// The second return is false when the request never passed the guard.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// sessionToken extracts the presented token: the session cookie for browsers,
// falling back to an Authorization bearer header for API clients.
func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession guards API routes. Missing, malformed, expired, and
// tampered tokens all produce the same 401 response. The guard fails closed:
// no identity, no pass-through.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		identity, err := s.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RedirectAnonymous guards HTML pages. Requests without a valid session are
// answered with a 303 redirect to the login page before any page content is
// produced.
func (s *Server) RedirectAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Redirect(http.StatusSeeOther, "/auth")
			c.Abort()
			return
		}

		identity, err := s.tokens.Validate(token)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/auth")
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// requestTimeout bounds each request with a deadline so a stalled backend
// cannot hold connections open indefinitely.
func (s *Server) requestTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// recordMetrics counts requests and measures latency per route.
func (s *Server) recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.opts.Metrics.RequestsTotal.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		s.opts.Metrics.RequestDuration.
			WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
