package server

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/jrsteele09/smartbill-auth/auth"
	"github.com/jrsteele09/smartbill-auth/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// HealthChecker is anything /healthz should probe (database, redis)
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	auth    *auth.AuthorizationService
	logger  zerolog.Logger
	metrics *Metrics
	limiter *ipRateLimiter
	// trustedProxies may set X-Forwarded-For
	trustedProxies []netip.Prefix
	checks         map[string]HealthChecker
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegisterer registers the server's metrics with reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = NewMetrics(reg, gatherer)
	}
}

// WithHealthCheck adds a named dependency to /healthz
func WithHealthCheck(name string, check HealthChecker) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

func New(config config.Config, authService *auth.AuthorizationService, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if authService == nil {
		return nil, fmt.Errorf("[Server New] authorization service is required")
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		auth:   authService,
		logger: zerolog.Nop(),
		checks: make(map[string]HealthChecker),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = NewMetrics(reg, reg)
	}
	if config.GetEnableRateLimiting() {
		perSecond, burst := config.GetRateLimit()
		s.limiter = newIPRateLimiter(perSecond, burst)
		s.trustedProxies = config.GetTrustedProxies()
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops background work owned by the server
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Info().Msgf("[%s%s%s] %s", color, paddedMethod, ResetColor, path)
}
