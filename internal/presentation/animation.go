package presentation

import (
	"math"
	"time"

	"resumegrade/internal/types"
)

// Animation timings and geometry
const (
	OverallScoreDuration  = 1500 * time.Millisecond
	CategoryScoreDuration = 1200 * time.Millisecond
	FrameInterval         = time.Second / 60

	// CircleRadius is the radius of the overall score ring
	CircleRadius = 94
)

// OverallScoreKey identifies the overall score in ScoreAnimations
const OverallScoreKey = "score_overall"

// EaseOutCubic maps linear progress t in [0,1] onto 1-(1-t)^3
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(1-t, 3)
}

// CountUpValue returns the displayed value elapsed into a count-up from start
// to end. Intermediate frames are floored; once elapsed reaches duration the
// exact end value is returned.
func CountUpValue(start, end int, elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed >= duration {
		return end
	}
	if elapsed <= 0 {
		return start
	}

	progress := float64(elapsed) / float64(duration)
	eased := EaseOutCubic(progress)
	return int(math.Floor(float64(start) + float64(end-start)*eased))
}

// CountUpFrames samples a count-up at every frame interval. The last frame is
// always the exact end value.
func CountUpFrames(start, end int, duration, interval time.Duration) []int {
	if interval <= 0 {
		interval = FrameInterval
	}

	frames := make([]int, 0, int(duration/interval)+2)
	for elapsed := time.Duration(0); elapsed < duration; elapsed += interval {
		frames = append(frames, CountUpValue(start, end, elapsed, duration))
	}
	return append(frames, end)
}

// ScoreAnimation describes one animated score counter
type ScoreAnimation struct {
	Key      string
	Label    string
	Target   int
	Duration time.Duration
}

// ValueAt returns the counter value elapsed into the animation
func (a ScoreAnimation) ValueAt(elapsed time.Duration) int {
	return CountUpValue(0, a.Target, elapsed, a.Duration)
}

// Done reports whether the counter has reached its target
func (a ScoreAnimation) Done(elapsed time.Duration) bool {
	return elapsed >= a.Duration
}

// ScoreAnimations returns the overall counter followed by the five category
// counters in display order. Each runs independently from zero.
func ScoreAnimations(result *types.AnalysisResult) []ScoreAnimation {
	animations := []ScoreAnimation{{
		Key:      OverallScoreKey,
		Label:    "Overall Score",
		Target:   result.ScoreOverall,
		Duration: OverallScoreDuration,
	}}

	for _, key := range types.CategoryKeys {
		animations = append(animations, ScoreAnimation{
			Key:      key,
			Label:    types.CategoryLabels[key],
			Target:   result.Scores.Get(key),
			Duration: CategoryScoreDuration,
		})
	}
	return animations
}

// CircleCircumference is the stroke length of the overall score ring
func CircleCircumference() float64 {
	return 2 * math.Pi * CircleRadius
}

// CircleOffset is the stroke-dashoffset that fills score/100 of the ring
func CircleOffset(score int) float64 {
	circumference := CircleCircumference()
	return circumference - (float64(score)/100)*circumference
}
