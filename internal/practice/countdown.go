package practice

import "time"

type CountdownLevel int

const (
	CountdownNormal CountdownLevel = iota
	// CountdownWarning is below 60% of the time limit.
	CountdownWarning
	// CountdownDanger is below 30% of the time limit.
	CountdownDanger
)

// Countdown is the deadline arithmetic of a per-question timer, independent of any ticker.
type Countdown struct {
	Limit time.Duration
}

func (c Countdown) Remaining(elapsed time.Duration) time.Duration {
	if elapsed >= c.Limit {
		return 0
	}
	if elapsed < 0 {
		return c.Limit
	}
	return c.Limit - elapsed
}

// Fraction is the visible remaining share of the time limit, from 1 down to 0.
func (c Countdown) Fraction(elapsed time.Duration) float64 {
	if c.Limit <= 0 {
		return 0
	}
	return float64(c.Remaining(elapsed)) / float64(c.Limit)
}

// Expired reports whether the answer must be submitted automatically.
func (c Countdown) Expired(elapsed time.Duration) bool {
	return c.Limit > 0 && elapsed >= c.Limit
}

func (c Countdown) Level(elapsed time.Duration) CountdownLevel {
	fraction := c.Fraction(elapsed)
	switch {
	case fraction < 0.3:
		return CountdownDanger
	case fraction < 0.6:
		return CountdownWarning
	}
	return CountdownNormal
}
