package presentation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"resumegrade/internal/types"
)

// TerminalRenderer draws the score count-up on a terminal line
type TerminalRenderer struct {
	out      io.Writer
	animate  bool
	interval time.Duration
	sleep    func(time.Duration)
}

// NewTerminalRenderer returns a renderer writing to out. With animate false
// only the final values are printed.
func NewTerminalRenderer(out io.Writer, animate bool) *TerminalRenderer {
	return &TerminalRenderer{
		out:      out,
		animate:  animate,
		interval: FrameInterval,
		sleep:    time.Sleep,
	}
}

// RenderScores prints the counters frame by frame and ends on the exact targets
func (t *TerminalRenderer) RenderScores(ctx context.Context, result *types.AnalysisResult) error {
	animations := ScoreAnimations(result)

	if t.animate {
		for elapsed := time.Duration(0); elapsed < OverallScoreDuration; elapsed += t.interval {
			if err := ctx.Err(); err != nil {
				break
			}
			if _, err := fmt.Fprintf(t.out, "\r%s", scoreLine(animations, elapsed)); err != nil {
				return err
			}
			t.sleep(t.interval)
		}
	}

	_, err := fmt.Fprintf(t.out, "\r%s\n", scoreLine(animations, OverallScoreDuration))
	return err
}

func scoreLine(animations []ScoreAnimation, elapsed time.Duration) string {
	parts := make([]string, 0, len(animations))
	for _, a := range animations {
		parts = append(parts, fmt.Sprintf("%s %3d", a.Label, a.ValueAt(elapsed)))
	}
	return strings.Join(parts, " | ")
}

// RenderLoading prints a loading message on its own line
func (t *TerminalRenderer) RenderLoading(message string) {
	if message == "" {
		message = DefaultLoadingMessage
	}
	_, _ = fmt.Fprintln(t.out, message)
}
