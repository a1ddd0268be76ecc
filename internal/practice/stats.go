package practice

import (
	"fmt"
	"math"
	"time"
)

// Stats are the running counters of one practice session.
type Stats struct {
	TotalProblems   int
	CorrectProblems int
	TotalTime       time.Duration
	StartTime       time.Time
}

type Tier int

const (
	TierEncouragement Tier = iota
	TierNeedsPractice
	TierGood
	TierExcellent
)

// TierFor maps an accuracy percentage to a performance tier.
func TierFor(accuracy int) Tier {
	switch {
	case accuracy >= 90:
		return TierExcellent
	case accuracy >= 70:
		return TierGood
	case accuracy >= 50:
		return TierNeedsPractice
	}
	return TierEncouragement
}

// MessageID is the localized message of the tier.
func (t Tier) MessageID() string {
	switch t {
	case TierExcellent:
		return "perf.excellent"
	case TierGood:
		return "perf.good"
	case TierNeedsPractice:
		return "perf.needs_practice"
	}
	return "perf.encouragement"
}

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierNeedsPractice:
		return "needs_practice"
	case TierEncouragement:
		return "encouragement"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

type Summary struct {
	TotalProblems   int
	CorrectProblems int
	// Accuracy is a rounded percentage.
	Accuracy int
	// AverageSeconds is the rounded average time per problem.
	AverageSeconds int
	Tier           Tier
	Elapsed        time.Duration
}

// Summary computes the end of session figures. Both ratios are 0 without problems.
func (s Stats) Summary(now time.Time) Summary {
	summary := Summary{
		TotalProblems:   s.TotalProblems,
		CorrectProblems: s.CorrectProblems,
	}
	if !s.StartTime.IsZero() {
		summary.Elapsed = now.Sub(s.StartTime)
	}
	if s.TotalProblems > 0 {
		summary.Accuracy = int(math.Round(float64(s.CorrectProblems) / float64(s.TotalProblems) * 100))
		summary.AverageSeconds = int(math.Round(s.TotalTime.Seconds() / float64(s.TotalProblems)))
	}
	summary.Tier = TierFor(summary.Accuracy)
	return summary
}

// FormatClock renders a duration as MM:SS, minutes growing past 99 when needed.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(math.Round(d.Seconds()))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
