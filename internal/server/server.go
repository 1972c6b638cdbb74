// Package server exposes the prediction engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/health"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/service"
	"github.com/estratego/matchpoint/internal/sportradar"
)

// PointsClient is the slice of the live stats client the defended-points
// endpoint needs. Nil when live data is disabled.
type PointsClient interface {
	GetDefendedPoints(ctx context.Context, competitorID string) (*sportradar.DefendedPoints, error)
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	matchups   *service.MatchupService
	points     PointsClient
	checker    *health.Checker
	logger     *logrus.Logger
}

// New creates the API server and mounts all routes.
func New(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, matchups *service.MatchupService, points PointsClient, checker *health.Checker, logger *logrus.Logger) *Server {
	s := &Server{
		matchups: matchups,
		points:   points,
		checker:  checker,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/matchup", s.requireMethod(http.MethodPost, s.handleMatchup))
	mux.HandleFunc("/matchup/features", s.requireMethod(http.MethodPost, s.handleMatchupFeatures))
	mux.HandleFunc("/defended_points", s.requireMethod(http.MethodPost, s.handleDefendedPoints))
	checker.Register(mux)
	if metricsCfg.Enabled {
		mux.Handle(metricsCfg.Path, metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRequestLogging(mux),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("API server starting")
	s.checker.SetReady(true)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.checker.SetReady(false)
	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

// withRequestLogging tags every request with a short-lived ID and logs its
// outcome at debug level.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Debug("Request handled")
	})
}
