package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/datasource"
	"github.com/estratego/matchpoint/internal/ingest"
	"github.com/estratego/matchpoint/internal/logger"
	"github.com/estratego/matchpoint/internal/repository"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories

	fromYear   int
	toYear     int
	sourceType string
	sourceDir  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	currentYear := time.Now().Year()
	rootCmd.Flags().IntVar(&fromYear, "from-year", currentYear-4, "First season to import")
	rootCmd.Flags().IntVar(&toYear, "to-year", currentYear, "Last season to import")
	rootCmd.Flags().StringVar(&sourceType, "source", string(datasource.ArchiveSourceType), "Data source type (archive, dir)")
	rootCmd.Flags().StringVar(&sourceDir, "dir", "", "Directory of season CSV files for the dir source")
}

var rootCmd = &cobra.Command{
	Use:   "data-ingestion",
	Short: "Import archived tour results",
	Long:  `Downloads season result files from the configured archive and loads players and completed matches into the database. Re-running a season is safe; rows already present are skipped.`,
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
		return runImport(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
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
	appLog = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

func runImport(ctx context.Context) error {
	source, err := datasource.NewSource(datasource.SourceType(sourceType), &cfg.Ingestion, sourceDir, appLog)
	if err != nil {
		return err
	}
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	appLog.WithFields(logrus.Fields{
		"source":    source.Name(),
		"from_year": fromYear,
		"to_year":   toYear,
	}).Info("Starting results import")

	summary, err := ingest.NewImporter(source, repos.Ingest, appLog).ImportSeasons(ctx, fromYear, toYear)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}
