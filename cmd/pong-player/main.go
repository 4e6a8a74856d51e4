package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/config"
	"pong-actor-critic/internal/monitor"
	"pong-actor-critic/internal/pong"
	"pong-actor-critic/internal/report"
	"pong-actor-critic/internal/runner"
	"pong-actor-critic/internal/weights"
)

func main() {
	configPath := flag.String("config", os.Getenv("PONG_CONFIG"), "TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	// The game gets its own source so an async game loop never shares one
	// with the player.
	player, err := agent.NewPlayer(cfg.Agent, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Run.WeightsFile != "" {
		if err := weights.LoadPlayer(cfg.Run.WeightsFile, player); err != nil {
			log.Printf("starting from fresh weights: %v", err)
		} else {
			log.Printf("loaded weights from %s", cfg.Run.WeightsFile)
		}
	}

	adapter, err := pong.NewAdapter(pong.NewGame(rand.New(rand.NewSource(cfg.Seed+1))), cfg.Adapter)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner.Runner{
		Player:   player,
		Side:     cfg.Run.Player,
		Opponent: &pong.Tracker{Deadband: cfg.Run.Deadband},
		Duration: cfg.Run.Duration,
	}
	if cfg.Run.Async {
		r.Env = adapter
		r.Clock = adapter.Time
		r.Tick = cfg.TickInterval()
		go func() {
			if err := adapter.Run(ctx, cfg.FrameInterval()); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("game loop stopped: %v", err)
			}
		}()
	} else {
		r.Env = &pong.Local{Adapter: adapter, Driver: cfg.Run.Player, Frames: 1}
	}

	status := monitor.NewStatus()
	var tracer *report.Tracer
	if cfg.Run.Trace {
		tracer = report.NewTracer(os.Stdout, true)
	}
	r.OnSignal = func(sig agent.Signal, stats pong.Stats) {
		sample := report.FromSignal(sig, stats, cfg.Run.Player)
		status.Record(sample)
		status.SetWeights(player.Readout.Rows())
		status.SetDropped(adapter.DroppedRewards(cfg.Run.Player))
		if tracer != nil {
			if err := tracer.Trace(sample); err != nil {
				log.Printf("trace: %v", err)
			}
		}
	}

	if cfg.Run.MonitorPort != "" {
		mon := &monitor.Server{Status: status, Config: cfg, Queue: adapter, Side: cfg.Run.Player}
		server := mon.Listen(cfg.Run.MonitorPort)
		go func() {
			log.Printf("monitor listening on :%s", cfg.Run.MonitorPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("monitor: %v", err)
			}
		}()
		defer server.Close()
	}

	log.Printf("pong player seed=%d side=%d async=%t duration=%gs cells=%d min_sep=%.3f",
		cfg.Seed, cfg.Run.Player, cfg.Run.Async, cfg.Run.Duration, player.Cells.Len(), player.Cells.MinSeparation())
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("run stopped: %v", err)
	}

	stats := adapter.Stats()
	log.Printf("finished at t=%.3f hits=%d misses=%d dropped_rewards=%d",
		adapter.Time(), stats.Hits[cfg.Run.Player], stats.Misses[cfg.Run.Player], adapter.DroppedRewards(cfg.Run.Player))

	if cfg.Run.WeightsFile != "" {
		if err := weights.SavePlayer(cfg.Run.WeightsFile, player); err != nil {
			log.Printf("save weights: %v", err)
		}
	}
	if cfg.Run.ReportFile != "" {
		if err := report.WriteFile(cfg.Run.ReportFile, "place cell player", status.Samples()); err != nil {
			log.Printf("report: %v", err)
		}
	}
}
