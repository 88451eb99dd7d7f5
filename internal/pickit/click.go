package pickit

import (
	"math/rand"
	"time"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/core/event"
	"github.com/lootkit/pickit/internal/game"
	"go.uber.org/zap"
)

const (
	maxClicks    = 3
	focusTimeout = 60 * time.Millisecond
	// Click jitter keeps this far from the label's horizontal and vertical edges.
	jitterX = 5
	jitterY = 3
)

// ClickConfirmer drives the move → await focus → portal check → click protocol.
// It owns the click timer shared by every click the plugin issues.
type ClickConfirmer struct {
	world    game.World
	input    game.Input
	clock    game.Clock
	settings *config.PluginConfig
	guard    *PortalGuard
	rng      *rand.Rand
	bus      *event.Bus
	log      *zap.Logger

	lastClick time.Time
}

func NewClickConfirmer(world game.World, input game.Input, clock game.Clock, settings *config.PluginConfig,
	guard *PortalGuard, rng *rand.Rand, bus *event.Bus, log *zap.Logger) *ClickConfirmer {
	return &ClickConfirmer{
		world:    world,
		input:    input,
		clock:    clock,
		settings: settings,
		guard:    guard,
		rng:      rng,
		bus:      bus,
		log:      log,
	}
}

// restartTimer records a click at the current tick time.
func (c *ClickConfirmer) restartTimer() { c.lastClick = c.clock.Now() }

func (c *ClickConfirmer) pauseElapsed(now time.Time) bool {
	pause := time.Duration(c.settings.PauseBetweenClicks) * time.Millisecond
	return now.Sub(c.lastClick) > pause
}

// Start prepares an attempt against label. rect, when set, replaces the
// label's rectangle for the clickability test. onUnreachable runs once if the
// label stops being clickable.
func (c *ClickConfirmer) Start(target *game.Entity, label *game.Label, rect *game.Rect, onUnreachable func()) *ClickAttempt {
	return &ClickAttempt{c: c, target: target, label: label, rect: rect, onUnreachable: onUnreachable}
}

type clickPhase int

const (
	phaseEvaluate clickPhase = iota
	phaseAwaitFocus
	phasePortal
)

// ClickAttempt is the resumable state of one attempt: at most maxClicks
// confirmed clicks, spread over as many ticks as it takes.
type ClickAttempt struct {
	c             *ClickConfirmer
	target        *game.Entity
	label         *game.Label
	rect          *game.Rect
	onUnreachable func()

	clicks int
	phase  clickPhase
	focus  Poll
	portal *PortalCheck
}

// Clicks returns the number of confirmed clicks so far.
func (a *ClickAttempt) Clicks() int { return a.clicks }

// Resume runs the attempt until its next suspension point. It returns true once
// the attempt is finished.
func (a *ClickAttempt) Resume() bool {
	switch a.phase {
	case phaseAwaitFocus:
		if !a.focus.Ready(a.c.clock.Now()) {
			return false
		}
		a.phase = phaseEvaluate
		return false
	case phasePortal:
		hazard, done := a.portal.Poll()
		if !done {
			return false
		}
		a.phase = phaseEvaluate
		return a.afterPortal(hazard)
	}
	return a.evaluate()
}

func (a *ClickAttempt) evaluate() bool {
	if a.clicks >= maxClicks {
		return true
	}
	c := a.c
	if a.target == nil || !Clickable(c.input, a.label, a.rect) {
		if a.onUnreachable != nil {
			a.onUnreachable()
		}
		event.Emit(c.bus, event.TargetUnreachable{Address: a.address()})
		return true
	}

	if !c.settings.IgnoreMoving {
		if p := c.world.Player(); p != nil && p.Moving &&
			a.target.DistancePlayer > float64(c.settings.ItemDistanceToIgnoreMoving) {
			return false
		}
	}

	pos := clickPoint(a.label.Rect, c.input.WindowRect(), c.rng)
	now := c.clock.Now()
	if !c.pauseElapsed(now) {
		return false
	}

	if !isFocused(a.target, a.label) {
		c.log.Debug("set cursor pos", zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
		c.input.SetCursor(pos)
		a.focus = Poll{
			Deadline: now.Add(focusTimeout),
			Cond:     func() bool { return isFocused(a.target, a.label) },
		}
		a.phase = phaseAwaitFocus
		return false
	}

	a.portal = c.guard.Check(a.label)
	hazard, done := a.portal.Poll()
	if !done {
		a.phase = phasePortal
		return false
	}
	return a.afterPortal(hazard)
}

func (a *ClickAttempt) afterPortal(hazard bool) bool {
	c := a.c
	// A hazard never ends the attempt. The target is retried from evaluate
	// until the portal loses focus, without using up a click.
	if hazard {
		var portal game.Handle
		if p := c.guard.Portal(); p != nil {
			portal = p.Address
		}
		c.log.Debug("click withheld, portal focused", zap.Uint64("target", uint64(a.address())))
		event.Emit(c.bus, event.PortalHazard{Target: a.address(), Portal: portal})
		return false
	}
	if !isFocused(a.target, a.label) {
		return false
	}
	c.input.Click()
	c.restartTimer()
	a.clicks++
	event.Emit(c.bus, event.ClickIssued{Address: a.address(), Click: a.clicks})
	return false
}

func (a *ClickAttempt) address() game.Handle {
	if a.target == nil {
		return 0
	}
	return a.target.Address
}

// isFocused prefers the Targetable flag and falls back to the label highlight.
func isFocused(e *game.Entity, l *game.Label) bool {
	if e == nil {
		return false
	}
	if targeted, ok := e.TargetedFlag(); ok {
		return targeted
	}
	return l != nil && l.Highlighted
}

// clickPoint picks a random point inside r, away from its edges, in screen
// coordinates.
func clickPoint(r game.Rect, window game.Rect, rng *rand.Rand) game.Vec2 {
	inner := r.Inflate(-jitterX, -jitterY)
	p := r.Center()
	if inner.W > 0 {
		p.X = inner.X + rng.Float64()*inner.W
	}
	if inner.H > 0 {
		p.Y = inner.Y + rng.Float64()*inner.H
	}
	return p.Add(window.TopLeft())
}
