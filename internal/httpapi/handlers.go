// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urang-market/accounts/internal/auth"
	"github.com/urang-market/accounts/internal/observability"
	"github.com/urang-market/accounts/pkg/errutil"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// handleSignup creates a new account.
func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.RecordSignup("invalid")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email and password are required"})
		return
	}

	user, err := s.registrar.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicate):
			observability.RecordSignup("conflict")
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			observability.RecordSignup("invalid")
		default:
			observability.RecordSignup("error")
		}
		s.writeError(c, err)
		return
	}

	observability.RecordSignup("success")
	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID.String(),
		"email": user.Email,
	})
}

// handleLogin verifies credentials and establishes a session. The failure
// response never reveals whether the email exists.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.RecordLogin("invalid_credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	identity, err := s.verifier.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			observability.RecordLogin("invalid_credentials")
		} else {
			observability.RecordLogin("error")
		}
		s.writeError(c, err)
		return
	}

	token, err := s.tokens.Issue(identity, 0)
	if err != nil {
		observability.RecordLogin("error")
		s.writeError(c, err)
		return
	}

	observability.RecordLogin("success")
	s.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
	})
}

// handleLogout drops the session cookie. Tokens are stateless, so the server
// keeps no session record to delete; the client simply stops presenting the
// token.
func (s *Server) handleLogout(c *gin.Context) {
	s.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// handleMe returns the authenticated caller's identity.
func (s *Server) handleMe(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    identity.ID.String(),
		"email": identity.Email,
	})
}

// handleChangePassword replaces the caller's password after re-verifying the
// current one.
func (s *Server) handleChangePassword(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.RecordPasswordChange("invalid")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "old_password and new_password are required"})
		return
	}

	err := s.changer.Change(c.Request.Context(), identity, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			observability.RecordPasswordChange("forbidden")
		case errors.Is(err, auth.ErrWeakPassword):
			observability.RecordPasswordChange("invalid")
		default:
			observability.RecordPasswordChange("error")
		}
		s.writeError(c, err)
		return
	}

	observability.RecordPasswordChange("success")
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// writeError maps service errors to HTTP responses. Anything unmapped is a
// 500 with the detail kept out of the response body.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.Is(err, auth.ErrInvalidEmail):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "a valid email address is required"})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "password must be at least 7 characters"})
	case errors.Is(err, auth.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, auth.ErrSessionInvalid), errors.Is(err, auth.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, auth.ErrPasswordMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "current password is incorrect"})
	case errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	default:
		errutil.LogError(s.logger, "request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// setSessionCookie attaches the session token as an HttpOnly cookie so
// browser scripts cannot read it. The cookie expires together with the token.
func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(s.tokens.TTL().Seconds()), "/", "", s.opts.SecureCookies, true)
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.opts.SecureCookies, true)
}
