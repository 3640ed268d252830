package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/promoflow/adkit/component"
	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/placements"
)

// Server is the read-only HTTP observation surface for a placement
// registry: component health, placement snapshots, the merged lifecycle
// event stream over SSE, and build information.
type Server struct {
	cfg         Config
	log         *logger.Logger
	engine      *gin.Engine
	mux         *http.ServeMux
	httpServer  *http.Server
	registry    *placements.Registry
	components  *component.Registry
	serviceName string

	mu          sync.Mutex
	listener    net.Listener
	started     bool
	stopped     bool
	streamsDone chan struct{}
	stopOnce    sync.Once
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithLogger sets the logger used by the server and its middleware.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithComponents wires a component registry into the health endpoint, so
// /healthz reports every registered component instead of only the
// placement registry.
func WithComponents(reg *component.Registry) Option {
	return func(s *Server) { s.components = reg }
}

// WithServiceName sets the service identity stamped on health reports.
func WithServiceName(name string) Option {
	return func(s *Server) { s.serviceName = name }
}

// New creates a monitor server for the given placement registry. The
// config is used as-is; callers normally run it through ApplyDefaults
// (the config loader does) before constructing the server.
func New(cfg Config, registry *placements.Registry, opts ...Option) (*Server, error) {
	if registry == nil {
		return nil, errors.InvalidConfig("registry", "placement registry must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()

	// Gin is the fallback handler on the root mux. The SSE route is
	// mounted on the mux directly so the stream writes through the plain
	// net/http writer and http.ResponseController can reach it.
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	handler := h2c.NewHandler(mux, h2s)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	s := &Server{
		cfg:         cfg,
		log:         logger.Get("monitor"),
		engine:      engine,
		mux:         mux,
		httpServer:  httpServer,
		registry:    registry,
		streamsDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.applyMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) applyMiddleware() {
	s.engine.Use(Recovery())
	s.engine.Use(RequestID())
	s.engine.Use(Tracing())
	s.engine.Use(RequestLogger(s.log))
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/version", s.handleVersion)

	api := s.engine.Group("/api/v1")
	if s.cfg.AuthSecret != "" {
		api.Use(Auth(AuthConfig{TokenValidator: HMACValidator(s.cfg.AuthSecret)}))
	}
	api.GET("/placements", s.handlePlacements)
	api.GET("/placements/:tag", s.handlePlacement)

	events := http.Handler(http.HandlerFunc(s.handleEvents))
	if s.cfg.AuthSecret != "" {
		events = RequireBearer(HMACValidator(s.cfg.AuthSecret), events)
	}
	s.mux.Handle("/api/v1/events", events)
}

// Handler returns the composed HTTP handler. Useful for tests that
// drive the server through httptest instead of a bound listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound listen address once started, otherwise the
// configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Name identifies the server in a component registry.
func (s *Server) Name() string { return "monitor" }

// Start binds the port and begins serving. It returns once the listener
// is bound so the caller knows the port is ready; serving continues in a
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("monitor server already stopped")
	}
	if s.started {
		return fmt.Errorf("monitor server already started")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("monitor failed to bind %s: %w", s.httpServer.Addr, err)
	}

	useTLS := s.cfg.TLS.IsEnabled()
	if useTLS {
		tlsCfg, err := s.cfg.TLS.Build()
		if err != nil {
			listener.Close()
			return err
		}
		s.httpServer.TLSConfig = tlsCfg
	}

	go func() {
		var serveErr error
		if useTLS {
			serveErr = s.httpServer.ServeTLS(listener, "", "")
		} else {
			serveErr = s.httpServer.Serve(listener)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			s.log.Error("Monitor server error", map[string]interface{}{
				"error": serveErr.Error(),
			})
		}
	}()

	s.listener = listener
	s.started = true
	s.log.Info("Monitor server started", map[string]interface{}{
		"addr": listener.Addr().String(),
		"tls":  useTLS,
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
// Active event streams are released first so shutdown can finish.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.stopped = true
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.stopped = true
	s.mu.Unlock()

	s.log.Info("Shutting down monitor server")

	s.stopOnce.Do(func() { close(s.streamsDone) })

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Graceful shutdown incomplete, forcing close", map[string]interface{}{
			"error": err.Error(),
		})
		if cerr := s.httpServer.Close(); cerr != nil {
			return fmt.Errorf("monitor close error: %w", cerr)
		}
		return fmt.Errorf("monitor shutdown error: %w", err)
	}

	s.log.Info("Monitor server shut down")
	return nil
}

// Health reports the server's own listener state.
func (s *Server) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := component.Health{Name: s.Name()}
	switch {
	case s.stopped:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case !s.started:
		h.Status = component.StatusUnknown
		h.Message = "not started"
	default:
		h.Status = component.StatusHealthy
		h.Message = "listening on " + s.listener.Addr().String()
	}
	return h
}
