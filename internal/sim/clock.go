package sim

import "time"

// Clock is a manually advanced game.Clock.
type Clock struct {
	now   time.Time
	frame uint64
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time { return c.now }
func (c *Clock) Frame() uint64  { return c.frame }

// Advance moves time forward by d without starting a new frame.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// NextFrame starts a new frame that lasts d.
func (c *Clock) NextFrame(d time.Duration) {
	c.now = c.now.Add(d)
	c.frame++
}
