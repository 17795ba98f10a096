package adminapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dynacluster/dynacluster/cluster"
)

// Options configures a Server.
type Options struct {
	Listen        string
	TLSEnabled    bool
	CertFile      string
	KeyFile       string
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	TokenExpiry   time.Duration
	RefreshExpiry time.Duration
	Logger        *slog.Logger

	// Hub, when set, is used instead of building a fresh one. Callers that
	// want the controller to emit over the same hub the server serves
	// should build the hub first with NewHub, pass it to
	// cluster.Options.Events, and pass it here too.
	Hub *Hub
}

// Server is the admin HTTP/WebSocket front end for a single
// cluster.Controller. Grounded on pkg/api/server.go's Server: same
// setupRouter/Start/Stop shape, narrowed from the teacher's model/node/
// inference domain down to cluster resize operations.
type Server struct {
	controller *cluster.Controller
	jwt        *JWTService
	hub        *Hub
	logger     *slog.Logger
	httpServer *http.Server

	cors      CORSConfig
	rateLimit RateLimitConfig
	opts      Options

	credMu      sync.RWMutex
	credentials map[string]credential
}

type credential struct {
	passwordHash string
	role         string
}

// NewServer wires a Server to controller, issuing tokens via a freshly
// generated JWT keypair.
func NewServer(controller *cluster.Controller, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	jwtSvc, err := NewJWTService("dynacluster", opts.TokenExpiry, opts.RefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("adminapi: create jwt service: %w", err)
	}

	hub := opts.Hub
	if hub == nil {
		hub = NewHub(opts.Logger)
	}

	return &Server{
		controller:  controller,
		jwt:         jwtSvc,
		hub:         hub,
		logger:      opts.Logger,
		cors:        opts.CORS,
		rateLimit:   opts.RateLimit,
		opts:        opts,
		credentials: make(map[string]credential),
	}, nil
}

// EventSink exposes the server's WebSocket hub as a cluster.EventSink, for
// wiring into cluster.Options.Events.
func (s *Server) EventSink() cluster.EventSink { return s.hub }

// RegisterCredential adds or replaces a login credential, hashing password
// with bcrypt before storing it.
func (s *Server) RegisterCredential(username, password, role string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.credMu.Lock()
	defer s.credMu.Unlock()
	s.credentials[username] = credential{passwordHash: hash, role: role}
	return nil
}

func (s *Server) authenticate(username, password string) (string, bool) {
	s.credMu.RLock()
	cred, ok := s.credentials[username]
	s.credMu.RUnlock()
	if !ok || !VerifyPassword(password, cred.passwordHash) {
		return "", false
	}
	return cred.role, true
}

// Start builds the router, starts the WebSocket hub, and serves until ctx
// is done or an unrecoverable server error occurs.
func (s *Server) Start(ctx context.Context) error {
	if s.rateLimit.RequestsPer == 0 {
		s.rateLimit = RateLimitConfig{Enabled: true, RequestsPer: 100, Duration: time.Minute, BurstSize: 20}
	}

	router := s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         s.opts.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.hub.Run()

	s.logger.Info("starting admin api server", "address", s.opts.Listen, "tls_enabled", s.opts.TLSEnabled)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.opts.TLSEnabled {
			err = s.httpServer.ListenAndServeTLS(s.opts.CertFile, s.opts.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errCh:
		return fmt.Errorf("adminapi: server error: %w", err)
	}
}

// Stop gracefully shuts the server and hub down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping admin api server")
	s.hub.Stop()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(s.loggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.securityMiddleware())
	if s.rateLimit.Enabled {
		router.Use(s.rateLimitMiddleware())
	}

	router.GET("/health", s.healthHandler)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.loginHandler)
			auth.POST("/refresh", s.refreshHandler)
		}

		cl := v1.Group("/cluster")
		cl.Use(s.jwtAuthMiddleware(PermissionClusterRead))
		{
			cl.GET("/", s.getClusterHandler)
		}

		clWrite := v1.Group("/cluster")
		clWrite.Use(s.jwtAuthMiddleware(PermissionClusterManage))
		{
			clWrite.POST("/resize", s.resizeHandler)
			clWrite.POST("/resize-by-delta", s.resizeByDeltaHandler)
			clWrite.POST("/members/:id/replace", s.replaceMemberHandler)
			clWrite.POST("/stop", s.stopHandler)
		}
	}

	router.GET("/ws", s.handleWebSocket)

	return router
}
