// Package service orchestrates one full evaluation loop: load the runner
// table, expand the strategy grid, run the simulations, persist the
// experiences, and curate the playbook.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/config"
	"github.com/yourusername/ace-loop/internal/dataset"
	"github.com/yourusername/ace-loop/internal/experience"
	"github.com/yourusername/ace-loop/internal/logger"
	"github.com/yourusername/ace-loop/internal/metrics"
	"github.com/yourusername/ace-loop/internal/playbook"
	"github.com/yourusername/ace-loop/internal/repository"
	"github.com/yourusername/ace-loop/internal/strategy"
)

// LoopService runs the evaluate-record-reflect-curate cycle.
type LoopService struct {
	cfg       *config.Config
	store     *dataset.Store
	runner    *experience.Runner
	reflector *playbook.Reflector
	curator   *playbook.Curator

	// Optional Postgres persistence; nil when database.enabled is false.
	expRepo repository.ExperienceRepository
	pbRepo  repository.PlaybookRepository

	loopLog *logger.LoopLogger
	log     *logrus.Logger
}

// LoopResult summarizes one completed loop run.
type LoopResult struct {
	RunID           string
	Races           int
	Strategies      int
	ExperienceRows  int
	ExperiencePath  string
	PlaybookPath    string
	Playbook        playbook.Playbook
	StrategyMetrics int
	Duration        time.Duration
}

// NewLoopService wires the loop. All collaborators are required except the
// repositories.
func NewLoopService(
	cfg *config.Config,
	store *dataset.Store,
	runner *experience.Runner,
	reflector *playbook.Reflector,
	curator *playbook.Curator,
	expRepo repository.ExperienceRepository,
	pbRepo repository.PlaybookRepository,
	log *logrus.Logger,
) (*LoopService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("dataset store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("experience runner is required")
	}
	if reflector == nil {
		return nil, fmt.Errorf("reflector is required")
	}
	if curator == nil {
		return nil, fmt.Errorf("curator is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &LoopService{
		cfg:       cfg,
		store:     store,
		runner:    runner,
		reflector: reflector,
		curator:   curator,
		expRepo:   expRepo,
		pbRepo:    pbRepo,
		loopLog:   logger.NewLoopLogger(log),
		log:       log,
	}, nil
}

// RunOnce executes one full loop iteration.
func (s *LoopService) RunOnce(ctx context.Context) (*LoopResult, error) {
	runID := uuid.NewString()
	started := time.Now()

	table, err := s.loadTable(ctx)
	if err != nil {
		s.loopLog.LogLoopError(runID, err)
		return nil, err
	}

	strategies, err := s.buildStrategies()
	if err != nil {
		s.loopLog.LogLoopError(runID, err)
		return nil, err
	}

	s.loopLog.LogLoopStart(runID, s.cfg.Dataset.Source, table.Races(), len(strategies))

	output, err := s.runner.Run(ctx, table, strategies, "")
	if err != nil {
		s.loopLog.LogLoopError(runID, err)
		return nil, fmt.Errorf("experience run failed: %w", err)
	}
	for _, m := range output.StrategyMetrics {
		s.loopLog.LogStrategyResult(m.StrategyID, m.Bets, m.Wins, m.PotPct)
	}

	pb := s.reflector.BuildPlaybook(output.Records, output.StrategyMetrics)
	pb.Metadata.RunID = runID

	playbookPath, err := s.curator.Save(pb)
	if err != nil {
		s.loopLog.LogLoopError(runID, err)
		return nil, fmt.Errorf("playbook save failed: %w", err)
	}

	s.persist(ctx, runID, output, pb)

	duration := time.Since(started)
	metrics.LoopDuration.Observe(duration.Seconds())
	s.loopLog.LogLoopComplete(runID, len(output.Records), output.ExperiencePath, playbookPath, duration)

	return &LoopResult{
		RunID:           runID,
		Races:           table.Races(),
		Strategies:      len(strategies),
		ExperienceRows:  len(output.Records),
		ExperiencePath:  output.ExperiencePath,
		PlaybookPath:    playbookPath,
		Playbook:        pb,
		StrategyMetrics: len(output.StrategyMetrics),
		Duration:        duration,
	}, nil
}

func (s *LoopService) loadTable(ctx context.Context) (dataset.Table, error) {
	table, err := s.store.Load(ctx, s.cfg.Dataset.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load runner table: %w", err)
	}

	start, end, err := s.cfg.DatasetDateRange()
	if err != nil {
		return nil, err
	}
	if !start.IsZero() || !end.IsZero() {
		table = table.FilterDateRange(start, end)
	}
	if s.cfg.Dataset.MaxRaces > 0 {
		table = table.LimitRaces(s.cfg.Dataset.MaxRaces)
	}
	return table, nil
}

func (s *LoopService) buildStrategies() ([]strategy.Config, error) {
	sc := s.cfg.Strategies
	if sc.DefinitionsPath != "" {
		configs, err := strategy.LoadDefinitions(sc.DefinitionsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load strategy definitions: %w", err)
		}
		return configs, nil
	}

	if len(sc.Margins) > 0 || len(sc.TopNs) > 0 || len(sc.Stakes) > 0 ||
		len(sc.MinModelProbs) > 0 || len(sc.MaxWinOdds) > 0 {
		axes := strategy.Axes{
			Margins: sc.Margins,
			TopNs:   sc.TopNs,
			Stakes:  sc.Stakes,
		}
		for i := range sc.MinModelProbs {
			axes.MinModelProbs = append(axes.MinModelProbs, &sc.MinModelProbs[i])
		}
		for i := range sc.MaxWinOdds {
			axes.MaxWinOdds = append(axes.MaxWinOdds, &sc.MaxWinOdds[i])
		}
		return strategy.Build(axes), nil
	}

	return strategy.DefaultGrid(), nil
}

// persist mirrors the artifacts into Postgres when repositories are wired.
// Persistence failures are logged, not fatal: the file artifacts are the
// source of truth.
func (s *LoopService) persist(ctx context.Context, runID string, output *experience.Output, pb playbook.Playbook) {
	if s.expRepo != nil && len(output.Records) > 0 {
		if err := s.expRepo.SaveBatch(ctx, output.Records); err != nil {
			s.log.WithError(err).Warn("Failed to persist experiences to database")
		}
	}
	if s.pbRepo != nil {
		if err := s.pbRepo.Save(ctx, runID, pb); err != nil {
			s.log.WithError(err).Warn("Failed to persist playbook snapshot to database")
		}
	}
}
