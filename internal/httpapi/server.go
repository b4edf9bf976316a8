// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/urang-market/accounts/internal/auth"
	"github.com/urang-market/accounts/internal/observability"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// DefaultRequestTimeout bounds handler execution per request.
const DefaultRequestTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Addr is the listen address in "host:port" form.
	Addr string

	// SecureCookies marks session cookies Secure. Disable only for local
	// development over plain HTTP.
	SecureCookies bool

	// RequestTimeout bounds each request. Zero selects DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Metrics, when set, records per-route request counts and latency.
	Metrics *observability.Metrics

	// Logger defaults to a discard logger when nil.
	Logger *slog.Logger
}

// Server is the HTTP front of the account service.
type Server struct {
	verifier  *auth.Verifier
	registrar *auth.RegistrationService
	changer   *auth.PasswordChanger
	tokens    *auth.TokenIssuer

	opts       Options
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
	logger     *slog.Logger
}

// NewServer creates a Server.
// Returns an error if any required dependency is nil.
func NewServer(
	verifier *auth.Verifier,
	registrar *auth.RegistrationService,
	changer *auth.PasswordChanger,
	tokens *auth.TokenIssuer,
	opts Options,
) (*Server, error) {
	if verifier == nil {
		return nil, oops.Errorf("credential verifier is required")
	}
	if registrar == nil {
		return nil, oops.Errorf("registration service is required")
	}
	if changer == nil {
		return nil, oops.Errorf("password changer is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		verifier:  verifier,
		registrar: registrar,
		changer:   changer,
		tokens:    tokens,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestTimeout())
	if s.opts.Metrics != nil {
		router.Use(s.recordMetrics())
	}

	// Public JSON API
	api := router.Group("/api")
	{
		api.POST("/auth/signup", s.handleSignup)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/logout", s.handleLogout)
	}

	// Protected JSON API
	user := router.Group("/api/user")
	user.Use(s.RequireSession())
	{
		user.GET("/me", s.handleMe)
		user.PATCH("/password", s.handleChangePassword)
	}

	// HTML pages
	router.GET("/", s.handleHomePage)
	router.GET("/auth", s.handleAuthPage)
	router.GET("/profile", s.RedirectAnonymous(), s.handleProfilePage)

	return router
}

// Start begins serving the API.
// It returns an error channel that receives any errors from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.opts.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Running reports whether the server is accepting requests. Suitable as a
// readiness check.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Stop gracefully shuts down the server, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_http_server").Wrap(err)
		}
	}

	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
