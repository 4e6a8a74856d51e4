// Package report turns the per-period samples of a run into an HTML chart
// and console trace lines.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/pong"
)

var ErrNoSamples = errors.New("no samples to plot")

// Sample is the state of a run at one decision boundary.
type Sample struct {
	Time   float64 `json:"time"`
	Error  float64 `json:"td_error"`
	Reward float64 `json:"reward"`
	Next   float64 `json:"next"`
	Prev   float64 `json:"prev"`
	Action int     `json:"action"`
	Hits   int     `json:"hits"`
	Misses int     `json:"misses"`
}

// FromSignal records sig together with the score of side.
func FromSignal(sig agent.Signal, stats pong.Stats, side int) Sample {
	s := Sample{
		Time:   sig.Time,
		Error:  sig.Error,
		Reward: sig.Reward,
		Next:   sig.Next,
		Prev:   sig.Prev,
		Action: sig.Action,
	}
	if side >= 0 && side < len(stats.Hits) {
		s.Hits = stats.Hits[side]
		s.Misses = stats.Misses[side]
	}
	return s
}

// Render writes a page with two line charts: TD error per period and the
// running hit and miss counts.
func Render(w io.Writer, title string, samples []Sample) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	xs := make([]string, 0, len(samples))
	errs := make([]opts.LineData, 0, len(samples))
	hits := make([]opts.LineData, 0, len(samples))
	misses := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		xs = append(xs, fmt.Sprintf("%.1f", s.Time))
		errs = append(errs, opts.LineData{Value: s.Error})
		hits = append(hits, opts.LineData{Value: s.Hits})
		misses = append(misses, opts.LineData{Value: s.Misses})
	}

	tdLine := charts.NewLine()
	tdLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "TD error per period"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)
	tdLine.SetXAxis(xs).AddSeries("td error", errs)

	scoreLine := charts.NewLine()
	scoreLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "score"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)
	scoreLine.SetXAxis(xs).
		AddSeries("hits", hits).
		AddSeries("misses", misses)

	page := components.NewPage()
	page.AddCharts(tdLine, scoreLine)
	return page.Render(w)
}

// WriteFile renders samples to path.
func WriteFile(path, title string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, title, samples); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
