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
	"github.com/estratego/matchpoint/internal/sportradar"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories

	playerName    string
	playerID      int64
	playerExtID   string
	opponentName  string
	opponentID    int64
	opponentExtID string
	tournament    string
	month         int
	yearsBack     int
	country       string
	motPlayer     int
	motOpponent   int
	showFeatures  bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.Flags().StringVar(&playerName, "player", "", "Player name")
	rootCmd.Flags().Int64Var(&playerID, "player-id", 0, "Player internal ID")
	rootCmd.Flags().StringVar(&playerExtID, "player-ext-id", "", "Player provider competitor ID")
	rootCmd.Flags().StringVar(&opponentName, "opponent", "", "Opponent name")
	rootCmd.Flags().Int64Var(&opponentID, "opponent-id", 0, "Opponent internal ID")
	rootCmd.Flags().StringVar(&opponentExtID, "opponent-ext-id", "", "Opponent provider competitor ID")
	rootCmd.Flags().StringVar(&tournament, "tournament", "", "Tournament name")
	rootCmd.Flags().IntVar(&month, "month", int(time.Now().Month()), "Tournament month (1-12)")
	rootCmd.Flags().IntVar(&yearsBack, "years-back", 0, "Historical window in years (0 uses the configured default)")
	rootCmd.Flags().StringVar(&country, "country", "", "Host country code for the local-player adjustment")
	rootCmd.Flags().IntVar(&motPlayer, "mot-points-player", 0, "Points the player defends at this event")
	rootCmd.Flags().IntVar(&motOpponent, "mot-points-opponent", 0, "Points the opponent defends at this event")
	rootCmd.Flags().BoolVar(&showFeatures, "features", false, "Include the intermediate score components")
}

var rootCmd = &cobra.Command{
	Use:   "matchup",
	Short: "Predict a single tennis matchup",
	Long:  `Computes the win probability for one pairing from historical winrates and, when a provider key is configured, live current-form signals.`,
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
		return runPrediction(cmd.Context())
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

func buildRequest() *models.MatchupRequest {
	req := &models.MatchupRequest{
		PlayerName:         playerName,
		PlayerExternalID:   playerExtID,
		OpponentName:       opponentName,
		OpponentExternalID: opponentExtID,
		Tournament:         models.TournamentContext{Name: tournament, Month: month},
		YearsBack:          yearsBack,
		Country:            country,
		MotPointsPlayer:    motPlayer,
		MotPointsOpp:       motOpponent,
	}
	if playerID != 0 {
		req.PlayerID = &playerID
	}
	if opponentID != 0 {
		req.OpponentID = &opponentID
	}
	return req
}

func runPrediction(ctx context.Context) error {
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

	resp := matchups.Predict(ctx, buildRequest())
	if !showFeatures {
		resp.Components = nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	if !resp.OK {
		os.Exit(1)
	}
	return nil
}
