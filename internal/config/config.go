// Package config assembles run configuration from defaults, an optional
// TOML file and environment variable overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/pong"
)

// RunConfig controls the decision loop and its outputs.
type RunConfig struct {
	// Duration is simulated seconds to run; 0 runs until stopped.
	Duration float64 `toml:"duration"`
	// Async runs the game on its own goroutine instead of stepping it
	// from the decision loop.
	Async bool `toml:"async"`
	// FrameMs is the wall time between game frames in async mode.
	FrameMs int `toml:"frame_ms"`
	// TickMs is the wall time between decision loop ticks in async mode.
	TickMs int `toml:"tick_ms"`
	// Player is the side the learner defends.
	Player   int     `toml:"player"`
	Deadband float64 `toml:"deadband"`

	WeightsFile string `toml:"weights_file"`
	ReportFile  string `toml:"report_file"`
	MonitorPort string `toml:"monitor_port"`
	Trace       bool   `toml:"trace"`
}

// GridConfig sizes the tabular state space.
type GridConfig struct {
	Env        string `toml:"env"` // "grid" or "game"
	BallBins   int    `toml:"ball_bins"`
	PaddleBins int    `toml:"paddle_bins"`
}

type Config struct {
	Seed    int64               `toml:"seed"`
	Run     RunConfig           `toml:"run"`
	Agent   agent.Params        `toml:"agent"`
	Tabular agent.TabularParams `toml:"tabular"`
	Grid    GridConfig          `toml:"grid"`
	Adapter pong.AdapterConfig  `toml:"adapter"`
}

func Default() Config {
	var c Config
	c.Seed = 0
	c.Run = RunConfig{
		Duration: 60,
		FrameMs:  8,
		TickMs:   1,
		Player:   1,
		Deadband: 2,
	}
	c.Agent.Defaults()
	c.Tabular.Defaults()
	c.Grid = GridConfig{Env: "grid", BallBins: 12, PaddleBins: 12}
	c.Adapter.Defaults()
	return c
}

// Load reads path (if not empty) over the defaults, applies env
// overrides and validates the result.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &c); err != nil {
			return c, fmt.Errorf("config %s: %w", path, err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Seed = getenvInt64("SEED", c.Seed)
	c.Run.Duration = getenvFloat("DURATION", c.Run.Duration)
	c.Run.Async = getenvBool("ASYNC", c.Run.Async)
	c.Run.WeightsFile = getenv("WEIGHTS_FILE", c.Run.WeightsFile)
	c.Run.ReportFile = getenv("REPORT_FILE", c.Run.ReportFile)
	c.Run.MonitorPort = getenv("MONITOR_PORT", c.Run.MonitorPort)
	c.Run.Trace = getenvBool("TRACE", c.Run.Trace)
	c.Agent.LRate = getenvFloat("LRATE", c.Agent.LRate)
	c.Agent.Selector = getenv("SELECTOR", c.Agent.Selector)
	c.Agent.TD.Period = getenvFloat("PERIOD", c.Agent.TD.Period)
	c.Agent.TD.Discount = getenvFloat("DISCOUNT", c.Agent.TD.Discount)
	c.Agent.TD.RewardDecay = getenvFloat("REWARD_DECAY", c.Agent.TD.RewardDecay)
	c.Agent.TD.FloorOn = getenvBool("NEG_FLOOR", c.Agent.TD.FloorOn)
	c.Grid.Env = getenv("GRID_ENV", c.Grid.Env)
}

func (c Config) Validate() error {
	switch {
	case c.Run.Duration < 0:
		return errors.New("run.duration must be >= 0")
	case c.Run.Player < 0 || c.Run.Player > 1:
		return errors.New("run.player must be 0 or 1")
	case c.Run.Async && (c.Run.FrameMs <= 0 || c.Run.TickMs <= 0):
		return errors.New("run.frame_ms and run.tick_ms must be > 0 in async mode")
	case c.Agent.TD.Period <= 0:
		return errors.New("agent.td.period must be > 0")
	case c.Agent.TD.Tolerance < 0 || c.Agent.TD.Tolerance >= pong.SimStep:
		return fmt.Errorf("agent.td.tolerance must be in [0, %g)", pong.SimStep)
	case c.Agent.TD.RewardDecay < 0 || c.Agent.TD.RewardDecay > 1:
		return errors.New("agent.td.reward_decay must be in [0, 1]")
	case c.Grid.Env != "grid" && c.Grid.Env != "game":
		return errors.New("grid.env must be 'grid' or 'game'")
	case c.Grid.BallBins <= 0 || c.Grid.PaddleBins <= 0:
		return errors.New("grid bins must be > 0")
	}
	return nil
}

// FrameInterval is the async game frame period.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.Run.FrameMs) * time.Millisecond
}

// TickInterval is the async decision tick period.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Run.TickMs) * time.Millisecond
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
