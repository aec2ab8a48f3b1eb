package dispatch

import "time"

// DefaultDelay is the pause after each delivery attempt.
const DefaultDelay = 2 * time.Second

// Pacing throttles the send loop. The delay follows every attempt,
// including the last one unless SkipAfterLast is set.
type Pacing struct {
	Delay         time.Duration
	SkipAfterLast bool
}

// Sleeper blocks for d.
type Sleeper func(d time.Duration)

func (p Pacing) after(i, total int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	if p.SkipAfterLast && i == total-1 {
		return 0
	}
	return p.Delay
}
