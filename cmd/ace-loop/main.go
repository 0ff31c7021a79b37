// Package main provides the entry point for the evaluation loop CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/ace-loop/internal/config"
	"github.com/yourusername/ace-loop/internal/database"
	"github.com/yourusername/ace-loop/internal/dataset"
	"github.com/yourusername/ace-loop/internal/experience"
	"github.com/yourusername/ace-loop/internal/health"
	applogger "github.com/yourusername/ace-loop/internal/logger"
	"github.com/yourusername/ace-loop/internal/metrics"
	"github.com/yourusername/ace-loop/internal/playbook"
	"github.com/yourusername/ace-loop/internal/repository"
	"github.com/yourusername/ace-loop/internal/scheduler"
	"github.com/yourusername/ace-loop/internal/service"
	"github.com/yourusername/ace-loop/internal/simulator"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile string
	sourceFlag string
	maxRaces   int

	cfg     *config.Config
	logger  *logrus.Logger
	db      *database.DB
	loopSvc *service.LoopService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Override the runner table source (path or URL)")
	rootCmd.PersistentFlags().IntVar(&maxRaces, "max-races", 0, "Override the race cap (0 = no cap)")
}

var rootCmd = &cobra.Command{
	Use:   "ace-loop",
	Short: "Backtest a strategy grid and curate the playbook",
	Long: `Evaluates a grid of flat-staking strategies against a historical runner
table, records every accepted bet as an experience row, and distills the
results into a rolling playbook.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full evaluation loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loopSvc.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(service.GenerateConsoleReport(result))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the evaluation loop on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScheduled(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(runCmd, scheduleCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if sourceFlag != "" {
		cfg.Dataset.Source = sourceFlag
	}
	if maxRaces > 0 {
		cfg.Dataset.MaxRaces = maxRaces
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	fetcherCfg := dataset.DefaultFetcherConfig()
	if cfg.Dataset.Fetch.TimeoutSeconds > 0 {
		fetcherCfg.Timeout = time.Duration(cfg.Dataset.Fetch.TimeoutSeconds) * time.Second
	}
	if cfg.Dataset.Fetch.RetryMax > 0 {
		fetcherCfg.MaxRetries = cfg.Dataset.Fetch.RetryMax
	}
	if cfg.Dataset.Fetch.RequestsPerSecond > 0 {
		fetcherCfg.RateLimit = cfg.Dataset.Fetch.RequestsPerSecond
	}
	fetcher := dataset.NewFetcher(fetcherCfg, logger)
	normalizer := dataset.NewNormalizer(logger)
	cacheTTL := time.Duration(cfg.Dataset.CacheTTLSeconds) * time.Second
	store := dataset.NewStore(fetcher, normalizer, cacheTTL, logger)

	writer, err := experience.NewWriter(experience.WriterConfig{
		OutputDir:       cfg.Experience.OutputDir,
		FilenamePrefix:  cfg.Experience.FilenamePrefix,
		PartitionByDate: cfg.Experience.PartitionByDate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create experience writer: %w", err)
	}

	sim := simulator.New(logger)
	runner := experience.NewRunner(sim, writer, cfg.Experience.ContextFields, cfg.Experience.Workers, logger)

	reflector := playbook.NewReflector(playbook.ReflectorConfig{
		MinBets:      cfg.Reflection.MinBets,
		Alpha:        cfg.Reflection.Alpha,
		TopKContexts: cfg.Reflection.TopKContexts,
		Confidence:   cfg.Reflection.Confidence,
	}, logger)

	curator, err := playbook.NewCurator(cfg.Playbook.Path, cfg.Playbook.MaxHistory, logger)
	if err != nil {
		return fmt.Errorf("failed to create playbook curator: %w", err)
	}

	var expRepo repository.ExperienceRepository
	var pbRepo repository.PlaybookRepository
	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		expRepo = repository.NewPostgresExperienceRepository(db)
		pbRepo = repository.NewPostgresPlaybookRepository(db)
	}

	loopSvc, err = service.NewLoopService(cfg, store, runner, reflector, curator, expRepo, pbRepo, logger)
	return err
}

func runScheduled(ctx context.Context) error {
	cronExpr := cfg.Schedule.Cron
	if cronExpr == "" {
		return fmt.Errorf("schedule.cron is not configured")
	}

	healthSrv := newHealthServer()
	if err := healthSrv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sched := scheduler.NewScheduler(loopSvc, logger)
	if err := sched.ScheduleLoop(cronExpr); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	healthSrv.SetReady(true)

	logger.WithFields(logrus.Fields{
		"cron":     cronExpr,
		"next_run": sched.GetNextRun().Format(time.RFC3339),
	}).Info("Scheduler running, waiting for shutdown signal")

	<-ctx.Done()
	healthSrv.SetReady(false)
	return sched.Stop()
}

func newHealthServer() *health.Server {
	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Logger:      logger,
	}
	if cfg.Metrics.Enabled {
		healthCfg.Port = strconv.Itoa(cfg.Metrics.Port)
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	if db != nil {
		healthCfg.DB = db
	}
	return health.NewServer(healthCfg)
}
