package report

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
)

// Tracer prints one line per decision boundary: time, TD error, reward,
// discounted next value, saved value and action. Positive errors are
// green and negative ones red.
type Tracer struct {
	w  io.Writer
	au aurora.Aurora
}

func NewTracer(w io.Writer, color bool) *Tracer {
	return &Tracer{w: w, au: aurora.NewAurora(color)}
}

func (t *Tracer) Trace(s Sample) error {
	errText := fmt.Sprintf("%+.4f", s.Error)
	var colored aurora.Value
	switch {
	case s.Error > 0:
		colored = t.au.Green(errText)
	case s.Error < 0:
		colored = t.au.Red(errText)
	default:
		colored = t.au.Gray(12, errText)
	}
	_, err := fmt.Fprintf(t.w, "%s %v %.3f %.4f %.4f %d %s\n",
		t.au.Cyan(fmt.Sprintf("%8.3f", s.Time)), colored, s.Reward, s.Next, s.Prev, s.Action,
		t.au.Faint(fmt.Sprintf("[%d/%d]", s.Hits, s.Misses)))
	return err
}
