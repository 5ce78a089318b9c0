package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/naeemakhtar23/voiceagent/internal/agent"
	"github.com/naeemakhtar23/voiceagent/internal/store"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
	"github.com/naeemakhtar23/voiceagent/internal/telephony"
	"github.com/naeemakhtar23/voiceagent/pkg/core/health"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Server is the VoiceAgent API server
type Server struct {
	httpServer *http.Server
	handler    *Handler
	hub        *Hub
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host         string
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string

	// PublicURL is the externally reachable base URL Twilio and the
	// agent platform use for webhooks
	PublicURL string

	// DemoMode simulates calls instead of dialing
	DemoMode bool

	// DemoAnswerDelay is the pause between simulated answers
	DemoAnswerDelay time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		Version:         "0.3.0",
		PublicURL:       "http://localhost:8080",
		DemoAnswerDelay: 2 * time.Second,
	}
}

// Deps are the wired services the handlers drive. Store and Survey are
// required. Dialer, Agent and Sets may be nil when unconfigured; calls
// then fall back to demo mode and question sets to the built-in survey.
type Deps struct {
	Store  store.Store
	Dialer telephony.Dialer
	Agent  *agent.Client
	Survey *survey.Controller
	Sets   *survey.Loader
}

// New creates a new API server
func New(cfg Config, deps Deps) (*Server, error) {
	logger := logging.New("server")

	hub := NewHub()
	flow := telephony.NewFlow(deps.Store, cfg.PublicURL)
	h := NewHandler(cfg, deps, flow, hub)

	mux := http.NewServeMux()

	// WebSocket route for live call events
	mux.Handle("/api/v1/events/", hub)

	// API routes
	mux.Handle("/", h)
	mux.Handle("/api/", h)
	mux.Handle("/api/v1/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Health registry
	healthRegistry := health.NewRegistry("voiceagent", cfg.Version)
	healthRegistry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Name:    "http",
			Status:  health.StatusHealthy,
			Message: "HTTP server is running",
		}
	})
	healthRegistry.Register(health.PingCheck("database", deps.Store.Ping))
	healthRegistry.Register(health.ConfiguredCheck("telephony",
		func() bool { return deps.Dialer != nil }, "not configured"))
	healthRegistry.Register(health.ConfiguredCheck("agent",
		func() bool { return deps.Agent != nil }, "not configured"))

	h.health = healthRegistry

	return &Server{
		httpServer: httpServer,
		handler:    h,
		hub:        hub,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for streaming responses
func (w *responseWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker so WebSocket upgrades work through
// the logging middleware
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("response writer does not support hijacking")
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		"host", s.config.Host,
		"port", s.config.HTTPPort,
		"demo", s.config.DemoMode,
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting API server (async)",
		"host", s.config.Host,
		"port", s.config.HTTPPort,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

// Hub returns the live event hub
func (s *Server) Hub() *Hub {
	return s.hub
}
