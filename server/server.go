// Package server assembles the honeypot components and serves them over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/honeypot/internal/profile"
	"github.com/hrygo/honeypot/plugin/ai"
	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/metrics"
	"github.com/hrygo/honeypot/plugin/ai/session"
	"github.com/hrygo/honeypot/plugin/ai/timeout"
	"github.com/hrygo/honeypot/plugin/callback"
	"github.com/hrygo/honeypot/server/internal/observability"
	apiv1 "github.com/hrygo/honeypot/server/router/api/v1"
	"github.com/hrygo/honeypot/server/service/engagement"
)

// limiterIdle is how long a caller may be silent before its bucket is dropped.
const limiterIdle = 10 * time.Minute

type Server struct {
	Profile *profile.Profile

	logger     *slog.Logger
	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
	cleanupJob *session.SessionCleanupJob

	listener net.Listener
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// NewServer builds every component from the profile. A missing generative
// backend is not fatal: the persona answers with fallback replies instead.
func NewServer(ctx context.Context, p *profile.Profile) (*Server, error) {
	logger := observability.NewLogger(os.Stderr, p.IsDev())
	slog.SetDefault(logger)

	llm, err := ai.SelectProvider(ctx, ai.CandidatesFromProfile(p), nil)
	if err != nil {
		logger.Warn("no generative backend available, persona will use fallback replies", "error", err)
	}

	persona := agent.NewPersonaAgent(llm, agent.Options{
		Deadline:      p.ReplyDeadline,
		MaxConcurrent: p.MaxConcurrentReplies,
		Logger:        logger,
	})
	reporter := callback.NewClient(&callback.Config{
		URL:     p.ReportURL,
		Timeout: p.ReportTimeout,
	}, logger)
	sessions := session.NewMemoryStore()
	metricsSvc := metrics.NewService(0)

	engagementSvc, err := engagement.NewService(engagement.Config{
		Threshold:   p.ScamThreshold,
		MaxTurns:    p.MaxTurns,
		TriggerExpr: p.TriggerExpr,
	}, engagement.Deps{
		Agent:    persona,
		Sessions: sessions,
		Reporter: reporter,
		Metrics:  metricsSvc,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create engagement service")
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(observability.RequestLogger(logger))

	apiV1 := apiv1.NewAPIV1Service(p, engagementSvc, persona, metricsSvc, sessions, logger)
	apiV1.RegisterRoutes(echoServer)

	return &Server{
		Profile:    p,
		logger:     logger,
		echoServer: echoServer,
		apiV1:      apiV1,
		cleanupJob: session.NewSessionCleanupJob(sessions, session.CleanupConfig{
			Retention: p.SessionRetention,
		}, logger),
	}, nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener
	s.echoServer.Listener = listener

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.group, runCtx = errgroup.WithContext(runCtx)

	s.cleanupJob.Start(runCtx)

	s.group.Go(func() error {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "echo server stopped")
		}
		return nil
	})
	s.group.Go(func() error {
		s.pruneLimiter(runCtx)
		return nil
	})

	s.logger.Info("honeypot server started", "address", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

// Shutdown stops accepting requests and waits for background work.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeout.ShutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")

	var shutdownErr error
	if err := s.echoServer.Shutdown(ctx); err != nil {
		shutdownErr = errors.Wrap(err, "failed to shutdown echo server")
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.cleanupJob.Stop()

	if s.group != nil {
		if err := s.group.Wait(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	s.logger.Info("server stopped properly")
	return shutdownErr
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.apiV1.Limiter().Prune(limiterIdle); n > 0 {
				s.logger.Debug("pruned idle rate limit buckets", "count", n)
			}
		}
	}
}
