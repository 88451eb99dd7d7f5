package cache

import (
	"time"

	"github.com/lootkit/pickit/internal/game"
)

// Cache memoizes the result of a recompute function until its staleness
// policy says the value is out of date. Single-goroutine access only (tick loop).
type Cache[T any] struct {
	compute func() T
	clock   game.Clock
	ttl     time.Duration // zero for frame caches
	byFrame bool

	value     T
	filled    bool
	stampTime time.Time
	stampFrm  uint64
}

// NewTimeCache recomputes at most once per ttl window of clock time.
func NewTimeCache[T any](clock game.Clock, ttl time.Duration, compute func() T) *Cache[T] {
	return &Cache[T]{compute: compute, clock: clock, ttl: ttl}
}

// NewFrameCache recomputes at most once per rendered frame.
func NewFrameCache[T any](clock game.Clock, compute func() T) *Cache[T] {
	return &Cache[T]{compute: compute, clock: clock, byFrame: true}
}

// Get returns the stored value, recomputing it once if stale.
func (c *Cache[T]) Get() T {
	if c.stale() {
		c.value = c.compute()
		c.filled = true
		c.stampTime = c.clock.Now()
		c.stampFrm = c.clock.Frame()
	}
	return c.value
}

// ForceUpdate invalidates the stored value; the next Get recomputes.
func (c *Cache[T]) ForceUpdate() {
	c.filled = false
}

func (c *Cache[T]) stale() bool {
	if !c.filled {
		return true
	}
	if c.byFrame {
		return c.clock.Frame() != c.stampFrm
	}
	return c.clock.Now().Sub(c.stampTime) >= c.ttl
}
