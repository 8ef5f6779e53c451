// Package app wires the pipeline stages to their inputs, outputs and
// observability sinks.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/velib-tools/rebalance/config"
	"github.com/velib-tools/rebalance/core/geo"
	"github.com/velib-tools/rebalance/core/model"
	"github.com/velib-tools/rebalance/core/pareto"
	"github.com/velib-tools/rebalance/core/plan"
	"github.com/velib-tools/rebalance/core/route"
	"github.com/velib-tools/rebalance/core/sim"
	"github.com/velib-tools/rebalance/infra/logger"
	"github.com/velib-tools/rebalance/infra/metrics"
	"github.com/velib-tools/rebalance/infra/mqtt"
	"github.com/velib-tools/rebalance/infra/store"
	"github.com/velib-tools/rebalance/internal/registry"
	"github.com/velib-tools/rebalance/pkg/export"
)

// Service orchestrates the planning stages. Stages exchange CSV artifacts so
// each can also run standalone.
type Service struct {
	cfg   *config.Config
	log   logger.Logger
	sink  metrics.Sink
	runID string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []metrics.Sink
	if cfg.Metrics.PromEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(metrics.Config{
			InfluxURL:    cfg.Metrics.InfluxURL,
			InfluxToken:  cfg.Metrics.InfluxToken,
			InfluxOrg:    cfg.Metrics.InfluxOrg,
			InfluxBucket: cfg.Metrics.InfluxBucket,
		}))
	}
	var sink metrics.Sink
	switch len(sinks) {
	case 0:
		sink = metrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	return &Service{cfg: cfg, log: logg, sink: sink, runID: uuid.NewString()}, nil
}

// RunID identifies this pipeline run in logs and published artifacts.
func (s *Service) RunID() string { return s.runID }

// Run executes the full pipeline: evaluation, frontier extraction and the
// combined visit and routing optimization.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PromEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PromAddr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if err := s.RunEvaluation(ctx); err != nil {
		return err
	}
	if err := s.RunFrontiers(ctx); err != nil {
		return err
	}
	return s.RunOptimization(ctx)
}

// RunEvaluation simulates every candidate pattern for every station and
// writes the record table.
func (s *Service) RunEvaluation(ctx context.Context) error {
	started := time.Now()
	stations, err := s.loadStations()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ev := sim.Evaluator{
		Horizon:      s.cfg.Run.Horizon(),
		Magnitude:    s.cfg.Simulation.Magnitude,
		Tolerance:    s.cfg.Simulation.Tolerance,
		Band:         s.cfg.Simulation.Band,
		ServiceHours: s.cfg.Run.ServiceSteps(),
		TotalDays:    s.cfg.Run.WeekDays,
		Workers:      s.cfg.Simulation.Workers,
		Log:          logger.New("evaluator"),
	}
	records, err := ev.Evaluate(stations)
	s.record("evaluation", started, err, len(stations), 0)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	s.log.Infof("run %s: %d records for %d stations", s.runID, len(records), len(stations))
	return writeFile(s.cfg.Paths.Records(), func(f *os.File) error {
		return export.WriteRecords(f, records)
	})
}

// RunFrontiers reads the record table and writes the per-station frontier
// sets.
func (s *Service) RunFrontiers(ctx context.Context) error {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	records, err := store.LoadRecords(s.cfg.Paths.Records(), s.cfg.Run.Horizon())
	if err != nil {
		return err
	}

	filter := pareto.Filter{
		EmptyThreshold: s.cfg.Frontier.EmptyThreshold,
		FullThreshold:  s.cfg.Frontier.FullThreshold,
		Log:            logger.New("pareto"),
	}
	res := filter.Frontiers(records)
	s.record("frontiers", started, nil, len(res.Frontiers), 0)
	if len(res.Frontiers) == 0 {
		// Empty good set is a business outcome, not a failure.
		s.log.Warnf("run %s: no station requires intervention", s.runID)
	}
	s.log.Infof("run %s: %d frontiers, %d autopass stations", s.runID, len(res.Frontiers), len(res.Autopass))

	return writeFile(s.cfg.Paths.Frontiers(), func(f *os.File) error {
		return export.WriteFrontiers(f, res.Frontiers)
	})
}

// RunOptimization reads the frontier table, solves the theoretical visit
// plan, then the combined visit and routing model, and writes the plan,
// route and tour tables.
func (s *Service) RunOptimization(ctx context.Context) error {
	frontiers, err := store.LoadFrontiers(s.cfg.Paths.Frontiers(), s.cfg.Run.Horizon())
	if err != nil {
		return err
	}
	if len(frontiers) == 0 {
		s.log.Infof("run %s: nothing to optimize", s.runID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	planner := plan.Planner{
		DayCap:         s.cfg.Visit.DayCap,
		ScoreWeight:    s.cfg.Visit.ScoreWeight,
		VisitWeight:    s.cfg.Visit.VisitWeight,
		RoundThreshold: s.cfg.Visit.RoundThreshold,
		TimeLimit:      time.Duration(s.cfg.Visit.TimeLimitSeconds * float64(time.Second)),
		SizeLimit:      s.cfg.Visit.SizeLimit,
		Log:            logger.New("planner"),
	}
	plans, status, err := planner.Plan(frontiers, s.cfg.Run.Horizon())
	s.record("visit", started, err, len(frontiers), scoreSum(plans))
	if err != nil {
		return fmt.Errorf("visit plan (%s): %w", status, err)
	}
	s.log.Infof("run %s: visit plan %s, %d plans", s.runID, status, len(plans))
	if err := writeFile(s.cfg.Paths.VisitPlans(), func(f *os.File) error {
		return export.WriteVisitPlans(f, plans)
	}); err != nil {
		return err
	}

	dist, err := s.loadDistances()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	started = time.Now()
	rc := route.Config{
		Fleet:            s.cfg.Routing.Fleet,
		MaxTour:          s.cfg.Routing.MaxTour,
		TopK:             s.cfg.Routing.TopK,
		RandomConnect:    s.cfg.Routing.RandomConnect,
		StageTime:        s.cfg.Routing.StageTimes(),
		DayTime:          time.Duration(s.cfg.Routing.DayTimeSeconds * float64(time.Second)),
		DayRounds:        s.cfg.Routing.DayRounds,
		PairTime:         time.Duration(s.cfg.Routing.PairTimeSeconds * float64(time.Second)),
		PairRounds:       s.cfg.Routing.PairRounds,
		SamePenalty:      s.cfg.Routing.SamePenalty,
		DayCap:           s.cfg.Routing.DayCap,
		ScoreWeight:      s.cfg.Routing.ScoreWeight,
		DistWeight:       s.cfg.Routing.DistWeight,
		RoundThreshold:   s.cfg.Routing.RoundThreshold,
		SizeLimit:        s.cfg.Routing.SizeLimit,
		FallbackFraction: s.cfg.Routing.FallbackFraction,
		Seed:             s.cfg.Routing.Seed,
	}
	opt := route.New(rc, logger.New("router"))
	sol, err := opt.Solve(route.Input{
		Frontiers: frontiers,
		Horizon:   s.cfg.Run.Horizon(),
		Dist:      dist,
	})
	s.record("routing", started, err, len(frontiers), routeScoreSum(sol.Plans))
	if err != nil {
		return fmt.Errorf("routing (%s): %w", sol.Status, err)
	}
	if sol.Reduced {
		s.log.Warnf("run %s: routing solved at reduced scope (horizon %d)", s.runID, sol.Horizon)
	}
	s.log.Infof("run %s: routing %s, %d plans, %d tours", s.runID, sol.Status, len(sol.Plans), len(sol.Tours))

	if err := writeFile(s.cfg.Paths.RoutePlans(), func(f *os.File) error {
		return export.WriteRoutePlans(f, sol.Plans)
	}); err != nil {
		return err
	}
	if err := writeFile(s.cfg.Paths.Tours(), func(f *os.File) error {
		return export.WriteTours(f, sol.Tours)
	}); err != nil {
		return err
	}

	if s.cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(s.cfg.MQTT.Client)
		if err != nil {
			return fmt.Errorf("mqtt publisher: %w", err)
		}
		defer pub.Close()
		if _, err := pub.PublishRoutes(s.runID, sol.Horizon, sol.Tours); err != nil {
			return err
		}
	}
	return nil
}

// loadStations reads the time series, reconciles station membership and
// shapes the per-station simulation inputs.
func (s *Service) loadStations() ([]model.Station, error) {
	steps := s.cfg.Run.WeekDays * s.cfg.Run.StepsPerDay()
	series, err := store.LoadSeries(s.cfg.Paths.Series(), steps)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(series))
	for i, sr := range series {
		ids[i] = sr.ID
	}
	kept, err := registry.New(s.cfg.Paths.ProcessDir).Update(ids)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(kept))
	for _, id := range kept {
		keep[id] = true
	}

	perDay := s.cfg.Run.StepsPerDay()
	past := s.cfg.Run.CurrentDay
	future := s.cfg.Run.Horizon()
	serviceSteps := s.cfg.Run.ServiceSteps()

	var out []model.Station
	for _, sr := range series {
		if !keep[sr.ID] {
			continue
		}
		st := model.Station{
			ID:        sr.ID,
			Capacity:  sr.Capacity,
			Demand:    make([][]float64, future),
			HistStock: make([][]float64, future),
			HistReg:   make([][]bool, future),
		}
		for d := 0; d < future; d++ {
			off := (past + d) * perDay
			st.Demand[d] = sr.Demand[off : off+perDay]
			st.HistStock[d] = sr.Stock[off : off+perDay]
			st.HistReg[d] = sr.Regulated[off : off+perDay]
		}
		if past > 0 {
			// Start from the last observed day, two hours before its end.
			st.Start = sr.Stock[past*perDay-2*s.cfg.Run.StepsPerHour]
			st.PastServiceSums = make([]float64, len(serviceSteps))
			for hi, h := range serviceSteps {
				for d := 0; d < past; d++ {
					st.PastServiceSums[hi] += sr.Stock[d*perDay+h]
				}
			}
		} else {
			st.Start = sr.Stock[0]
		}
		out = append(out, st)
	}
	s.log.Infof("loaded %d stations (%d blacklisted)", len(out), len(series)-len(out))
	return out, nil
}

func (s *Service) loadDistances() (*geo.Matrix, error) {
	ids, pts, err := store.LoadCoordinates(s.cfg.Paths.Coords())
	if err != nil {
		return nil, err
	}
	return geo.NewMatrix(ids, pts)
}

func (s *Service) record(stage string, started time.Time, err error, stations int, objective float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	res := metrics.StageResult{
		RunID:     s.runID,
		Stage:     stage,
		Status:    status,
		Duration:  time.Since(started),
		Objective: objective,
		Stations:  stations,
		Time:      time.Now(),
	}
	if err := s.sink.RecordStageResult([]metrics.StageResult{res}); err != nil {
		s.log.Warnf("record %s metrics: %v", stage, err)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func scoreSum(plans []model.VisitPlan) float64 {
	var sum float64
	for _, p := range plans {
		sum += p.Score
	}
	return sum
}

func routeScoreSum(plans []model.RoutePlan) float64 {
	var sum float64
	for _, p := range plans {
		sum += p.Score
	}
	return sum
}
