package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/config"
	"pong-actor-critic/internal/encoder"
	"pong-actor-critic/internal/pong"
	"pong-actor-critic/internal/report"
	"pong-actor-critic/internal/runner"
	"pong-actor-critic/internal/weights"
)

// gameFrames is how many arcade frames one tabular decision spans.
const gameFrames = 50

func main() {
	configPath := flag.String("config", os.Getenv("PONG_CONFIG"), "TOML config file")
	moves := flag.Int("moves", 20000, "decisions to make, 0 runs until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	learner, err := agent.NewTabular(cfg.Tabular, cfg.Grid.BallBins, cfg.Grid.PaddleBins, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Run.WeightsFile != "" {
		if err := weights.LoadTabular(cfg.Run.WeightsFile, learner); err != nil {
			log.Printf("starting from fresh tables: %v", err)
		}
	}

	r := &runner.TabularRunner{Learner: learner, Moves: *moves, Side: cfg.Run.Player}
	var coverage *runner.Coverage
	switch cfg.Grid.Env {
	case "game":
		adapter, err := pong.NewAdapter(pong.NewGame(rand.New(rand.NewSource(cfg.Seed+1))), cfg.Adapter)
		if err != nil {
			log.Fatal(err)
		}
		r.Env = &pong.Local{Adapter: adapter, Driver: cfg.Run.Player, Frames: gameFrames}
		r.Opponent = &pong.Tracker{Deadband: cfg.Run.Deadband}
		grid := encoder.NewGrid(cfg.Grid.BallBins, cfg.Grid.PaddleBins)
		cell := runner.BinnedCell(grid, pong.Height)
		coverage = runner.NewCoverage(grid)
		r.Cell = func(s pong.State) agent.Cell {
			coverage.Observe(s.Normalize(pong.Height))
			return cell(s)
		}
	default:
		r.Env = pong.NewGrid(cfg.Grid.BallBins, cfg.Grid.PaddleBins, rand.New(rand.NewSource(cfg.Seed+1)))
		r.Side = 0
		r.Cell = runner.GridCell
	}

	var samples []report.Sample
	var tracer *report.Tracer
	if cfg.Run.Trace {
		tracer = report.NewTracer(os.Stdout, true)
	}
	r.OnLearn = func(move int, tdErr float64, stats pong.Stats) {
		s := report.Sample{
			Time:   float64(move),
			Error:  tdErr,
			Hits:   stats.Hits[r.Side],
			Misses: stats.Misses[r.Side],
		}
		samples = append(samples, s)
		if tracer != nil {
			_ = tracer.Trace(s)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("tabular player seed=%d env=%s bins=%dx%d", cfg.Seed, cfg.Grid.Env, cfg.Grid.BallBins, cfg.Grid.PaddleBins)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("run stopped: %v", err)
	}
	stats := r.Env.Stats()
	log.Printf("finished after %d updates hits=%d misses=%d", len(samples), stats.Hits[r.Side], stats.Misses[r.Side])
	if coverage != nil {
		log.Printf("visited %d of %d binned states (%.0f%%)", coverage.Visited(), coverage.Grid.Size(), 100*coverage.Fraction())
	}

	if cfg.Run.WeightsFile != "" {
		if err := weights.SaveTabular(cfg.Run.WeightsFile, learner); err != nil {
			log.Printf("save tables: %v", err)
		}
	}
	if cfg.Run.ReportFile != "" {
		if err := report.WriteFile(cfg.Run.ReportFile, "tabular player", samples); err != nil {
			log.Printf("report: %v", err)
		}
	}
}
