package pipeline

import (
	"math/rand"
	"time"
)

// Pacer sleeps a random duration in [min, max] between page fetches so the
// site sees a human-ish request rhythm.
type Pacer struct {
	min   time.Duration
	max   time.Duration
	sleep func(time.Duration)
}

func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, sleep: time.Sleep}
}

func (p *Pacer) Next() time.Duration {
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(rand.Int63n(int64(p.max-p.min)+1))
}

// Wait blocks for the next randomized delay.
func (p *Pacer) Wait() {
	if d := p.Next(); d > 0 {
		p.sleep(d)
	}
}
