package experience

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/ace-loop/internal/dataset"
	"github.com/yourusername/ace-loop/internal/metrics"
	"github.com/yourusername/ace-loop/internal/simulator"
	"github.com/yourusername/ace-loop/internal/strategy"
)

// Runner evaluates many strategies over one runner table and assembles the
// union of their bets into a single experience table.
type Runner struct {
	sim           *simulator.Simulator
	writer        *Writer
	contextFields []string
	workers       int
	logger        *logrus.Logger
}

// Output is the result of one experience run.
type Output struct {
	ExperiencePath  string
	Records         []Record
	StrategyMetrics []simulator.Metrics
}

// NewRunner creates an experience runner. A nil writer disables persistence
// (records are still returned in memory). workers caps the simulation pool;
// values below 1 run the strategies sequentially.
func NewRunner(sim *simulator.Simulator, writer *Writer, contextFields []string, workers int, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	if len(contextFields) == 0 {
		contextFields = DefaultContextFields
	}
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		sim:           sim,
		writer:        writer,
		contextFields: contextFields,
		workers:       workers,
		logger:        logger,
	}
}

// Run evaluates every strategy against the table. Strategies with zero bets
// contribute their zero-metrics record but no experience rows. The final
// table is ordered by strategy_id so concurrent completion order never
// changes the output.
func (r *Runner) Run(ctx context.Context, table dataset.Table, strategies []strategy.Config, label string) (*Output, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies provided to experience runner")
	}

	results := make([]*simulator.Result, len(strategies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, cfg := range strategies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			result, err := r.sim.Evaluate(table, cfg)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", cfg.ID, err)
			}
			metrics.RecordSimulation(time.Since(started).Seconds())
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Strategy.ID < results[j].Strategy.ID
	})

	output := &Output{StrategyMetrics: make([]simulator.Metrics, 0, len(results))}
	for _, result := range results {
		output.StrategyMetrics = append(output.StrategyMetrics, result.Metrics)
		if len(result.Bets) == 0 {
			continue
		}
		output.Records = append(output.Records, r.buildRecords(result)...)
	}

	metrics.StrategiesEvaluated.Set(float64(len(strategies)))
	metrics.RecordExperienceRows(len(output.Records))

	r.logger.WithFields(logrus.Fields{
		"strategies": len(strategies),
		"rows":       len(output.Records),
	}).Info("Experience run complete")

	if r.writer != nil && len(output.Records) > 0 {
		path, err := r.writer.Write(output.Records, label)
		if err != nil {
			return nil, fmt.Errorf("failed to persist experiences: %w", err)
		}
		output.ExperiencePath = path
	}

	return output, nil
}

func (r *Runner) buildRecords(result *simulator.Result) []Record {
	cfg := result.Strategy
	params := cfg.EncodeParams()

	records := make([]Record, len(result.Bets))
	for i, bet := range result.Bets {
		row := bet.Runner

		eventDate := ""
		if !row.EventDate.IsZero() {
			eventDate = row.EventDate.Format("2006-01-02")
		}

		contextPayload := make(map[string]string, len(r.contextFields))
		for _, field := range r.contextFields {
			if value, ok := row.ContextValue(field); ok {
				contextPayload[field] = value
			}
		}

		wonFlag := int32(0)
		if bet.Won {
			wonFlag = 1
		}

		records[i] = Record{
			ExperienceID: MakeExperienceID(cfg.ID, bet.RaceKey, row.RunnerID, ActionBet),
			EventDate:    eventDate,
			RaceID:       bet.RaceKey,
			RunnerID:     row.RunnerID,
			SelectionID:  row.SelectionID,
			StrategyID:   cfg.ID,
			Params:       params,
			Action:       ActionBet,
			Stake:        bet.Stake,
			Profit:       bet.Profit,
			ModelProb:    *row.ModelProb,
			ImpliedProb:  bet.ImpliedProb,
			Edge:         bet.Edge,
			WinOdds:      *row.WinOdds,
			WonFlag:      wonFlag,
			Track:        row.Track,
			StateCode:    row.StateCode,
			Distance:     row.Distance,
			RacingType:   row.RacingType,
			RaceType:     row.RaceType,
			ContextHash:  MakeContextHash(contextPayload),
		}
	}
	return records
}
