package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/estratego/matchpoint/internal/cache"
	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
	"github.com/estratego/matchpoint/internal/scoring"
	"github.com/estratego/matchpoint/internal/service"
	"github.com/estratego/matchpoint/internal/simulate"
	"github.com/estratego/matchpoint/internal/sportradar"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories

	entrantIDs []int64
	tournament string
	month      int
	yearsBack  int
	runs       int
	seed       int64
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.Flags().Int64SliceVar(&entrantIDs, "entrants", nil, "Player IDs in draw order, count must be a power of two")
	rootCmd.Flags().StringVar(&tournament, "tournament", "", "Tournament name")
	rootCmd.Flags().IntVar(&month, "month", int(time.Now().Month()), "Tournament month (1-12)")
	rootCmd.Flags().IntVar(&yearsBack, "years-back", 0, "Historical window in years (0 uses the configured default)")
	rootCmd.Flags().IntVar(&runs, "runs", 1000, "Number of bracket simulations")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed, fixed seeds reproduce runs")
}

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Monte Carlo tournament bracket simulation",
	Long:  `Simulates a single-elimination draw many times using pairwise matchup predictions and reports title probabilities per entrant.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.Context())
	},
}

func main() {
	defer func() {
		if db != nil {
			db.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

func runSimulation(ctx context.Context) error {
	if len(entrantIDs) == 0 {
		return fmt.Errorf("at least one --entrants list is required")
	}

	var nowProvider service.NowProvider
	if cfg.Provider.LiveEnabled() {
		client := sportradar.NewClient(&cfg.Provider, logger)
		defer client.Close()
		nowProvider = client
	}

	weights := scoring.DefaultWeights()
	weights.Hist.Month = cfg.Prediction.HistWeightMonth
	weights.Hist.Surface = cfg.Prediction.HistWeightSurface
	weights.Hist.Speed = cfg.Prediction.HistWeightSpeed

	matchups := service.NewMatchupService(
		service.NewIdentityResolver(repos.Player, logger),
		service.NewTournamentResolver(repos.Tournament, logger),
		service.NewHistoryService(repos.Match, logger),
		service.NewNowService(nowProvider, logger),
		cache.NewMatchupCache(&cfg.Cache, repos.MatchupCache, logger),
		scoring.NewCombiner(weights),
		cfg.Prediction.DefaultYearsBack,
		logger,
	)

	entrants := make([]simulate.Entrant, len(entrantIDs))
	for i, id := range entrantIDs {
		entrants[i] = simulate.Entrant{PlayerID: id}
	}
	if yearsBack <= 0 {
		yearsBack = cfg.Prediction.DefaultYearsBack
	}

	engine := simulate.NewEngine(matchups, logger)
	result, err := engine.Run(ctx, entrants, simulate.Options{
		Tournament: models.TournamentContext{Name: tournament, Month: month},
		YearsBack:  yearsBack,
		Runs:       runs,
		Seed:       seed,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
