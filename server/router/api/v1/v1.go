package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/honeypot/internal/profile"
	"github.com/hrygo/honeypot/plugin/ai/metrics"
	"github.com/hrygo/honeypot/plugin/ai/session"
	"github.com/hrygo/honeypot/server/middleware"
	"github.com/hrygo/honeypot/server/service/engagement"
)

// APIV1Service serves the honeypot HTTP API.
type APIV1Service struct {
	Profile    *profile.Profile
	Engagement engagement.Service
	// Agent answers the connectivity test endpoint.
	Agent    engagement.Agent
	Metrics  metrics.MetricsService
	Sessions session.SessionService
	Logger   *slog.Logger

	limiter *middleware.RateLimiter
}

// NewAPIV1Service wires the API around an engagement service.
func NewAPIV1Service(p *profile.Profile, svc engagement.Service, agent engagement.Agent, m metrics.MetricsService, sessions session.SessionService, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:    p,
		Engagement: svc,
		Agent:      agent,
		Metrics:    m,
		Sessions:   sessions,
		Logger:     logger,
		limiter:    middleware.NewRateLimiter(p.RateLimitPerSecond, p.RateLimitBurst),
	}
}

// Limiter exposes the rate limiter so the server can prune idle keys.
func (s *APIV1Service) Limiter() *middleware.RateLimiter {
	return s.limiter
}

// RegisterRoutes registers the honeypot routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/health", s.Health)

	// The upstream platform calls from browsers, so every origin is allowed.
	corsHandler := echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	})

	group := echoServer.Group("/api/honey-pot", corsHandler)
	group.GET("", s.GetInfo)
	group.Match([]string{http.MethodGet, http.MethodPost}, "/test", s.ConnectivityTest)
	group.Any("/ping", s.Ping)

	rateLimit := middleware.RateLimit(s.limiter, middleware.RealIPKey, s.rejectRateLimited)
	group.POST("", s.HandleHoneypot, s.requireAPIKey, rateLimit)
	group.GET("/reports", s.ListReports, s.requireAPIKey)
	group.GET("/reports.atom", s.ReportsFeed, s.requireAPIKey)
	group.GET("/sessions", s.ListSessions, s.requireAPIKey)
	group.GET("/sessions/:id", s.GetSession, s.requireAPIKey)
	group.GET("/stats", s.GetMetricsOverview, s.requireAPIKey)
}
