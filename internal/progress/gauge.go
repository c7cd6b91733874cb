// Package progress shows how close a conversation is to producing a
// document.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const barWidth = 30

// Gauge reports the readiness score after each turn.
type Gauge interface {
	Update(score int, status string)
}

// NewGauge returns a TerminalGauge when w is an interactive terminal and
// the CI environment variables are unset, or a LineGauge otherwise.
func NewGauge(w io.Writer) Gauge {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineGauge{w: w}
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &TerminalGauge{w: w}
	}
	return &LineGauge{w: w}
}

// TerminalGauge draws a progress bar.
type TerminalGauge struct {
	w io.Writer
}

func (g *TerminalGauge) Update(score int, status string) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(g.w),
		progressbar.OptionSetDescription(status),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
	)
	_ = bar.Set(clamp(score))
	fmt.Fprintln(g.w)
}

// LineGauge prints one plain line per update, suitable for logs.
type LineGauge struct {
	w io.Writer
}

func (g *LineGauge) Update(score int, status string) {
	fmt.Fprintf(g.w, "[readiness %d%%] %s\n", clamp(score), status)
}

func clamp(score int) int {
	return max(0, min(100, score))
}
