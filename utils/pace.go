package utils

import "time"

// Pacer enforces a minimum interval between visits to the booking site.
// Checks run strictly sequentially over one browser session, so a plain
// last-visit clock is all the rate limiting that is needed.
type Pacer struct {
	minInterval time.Duration
	lastVisit   time.Time
}

// NewPacer creates a Pacer with the given minimum interval in milliseconds.
func NewPacer(intervalMs int) *Pacer {
	return &Pacer{
		minInterval: time.Duration(intervalMs) * time.Millisecond,
		lastVisit:   time.Now(),
	}
}

// Wait blocks until at least the minimum interval has passed since the
// previous visit, then stamps the current one.
func (p *Pacer) Wait() {
	elapsed := time.Since(p.lastVisit)
	if elapsed < p.minInterval {
		time.Sleep(p.minInterval - elapsed)
	}
	p.lastVisit = time.Now()
}
