// Package main provides the entry point for the matchup prediction API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/cache"
	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/health"
	"github.com/estratego/matchpoint/internal/logger"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/repository"
	"github.com/estratego/matchpoint/internal/scheduler"
	"github.com/estratego/matchpoint/internal/scoring"
	"github.com/estratego/matchpoint/internal/server"
	"github.com/estratego/matchpoint/internal/service"
	"github.com/estratego/matchpoint/internal/sportradar"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     version,
		"live_data":   cfg.Provider.LiveEnabled(),
	}).Info("Matchpoint API starting")

	metrics.InitRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	matchupCache := cache.NewMatchupCache(&cfg.Cache, repos.MatchupCache, appLog)

	var provider *sportradar.Client
	var nowProvider service.NowProvider
	var pointsClient server.PointsClient
	if cfg.Provider.LiveEnabled() {
		provider = sportradar.NewClient(&cfg.Provider, appLog)
		defer provider.Close()
		nowProvider = provider
		pointsClient = provider
		appLog.Info("Live stats provider enabled")
	} else {
		appLog.Info("Live stats provider disabled, predictions use historical data only")
	}

	weights := scoring.DefaultWeights()
	weights.Hist.Month = cfg.Prediction.HistWeightMonth
	weights.Hist.Surface = cfg.Prediction.HistWeightSurface
	weights.Hist.Speed = cfg.Prediction.HistWeightSpeed

	matchups := service.NewMatchupService(
		service.NewIdentityResolver(repos.Player, appLog),
		service.NewTournamentResolver(repos.Tournament, appLog),
		service.NewHistoryService(repos.Match, appLog),
		service.NewNowService(nowProvider, appLog),
		matchupCache,
		scoring.NewCombiner(weights),
		cfg.Prediction.DefaultYearsBack,
		appLog,
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(matchupCache, appLog)
		if err := sched.SchedulePrune(cfg.Scheduler.PruneCron); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule cache pruning")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		defer sched.Stop()
	}

	checker := health.NewChecker(cfg.App.Name, version, db)
	apiServer := server.New(&cfg.Server, &cfg.Metrics, matchups, pointsClient, checker, appLog)

	errCh := make(chan error, 1)
	go func() { errCh <- apiServer.Start() }()

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			appLog.WithError(err).Error("API server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Graceful shutdown failed")
	}
	appLog.Info("Matchpoint API stopped")
}
