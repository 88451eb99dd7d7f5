package pickit

import (
	"cmp"
	"regexp"
	"slices"
	"time"

	"github.com/lootkit/pickit/internal/cache"
	"github.com/lootkit/pickit/internal/game"
)

const (
	portalScanTTL = 200 * time.Millisecond
	// portalSettle covers the frame of lag between cursor movement and focus.
	portalSettle = 25 * time.Millisecond
	portalMargin = 100
)

var portalPath = regexp.MustCompile(`^Metadata/(MiscellaneousObjects|Effects/Microtransactions)/.*Portal`)

// Poll is a deadline-bounded wait against the tick clock. It is ready once
// Cond holds or the deadline has passed. A nil Cond waits out the deadline.
type Poll struct {
	Deadline time.Time
	Cond     func() bool
}

func (p Poll) Ready(now time.Time) bool {
	if p.Cond != nil && p.Cond() {
		return true
	}
	return !now.Before(p.Deadline)
}

// PortalGuard detects when clicking a target could enter a nearby portal.
type PortalGuard struct {
	world  game.World
	clock  game.Clock
	portal *cache.Cache[*game.GroundLabel]
}

func NewPortalGuard(world game.World, clock game.Clock) *PortalGuard {
	g := &PortalGuard{world: world, clock: clock}
	g.portal = cache.NewTimeCache(clock, portalScanTTL, g.nearestPortal)
	return g
}

// Portal returns the cached nearest visible portal label, or nil.
func (g *PortalGuard) Portal() *game.GroundLabel { return g.portal.Get() }

func (g *PortalGuard) nearestPortal() *game.GroundLabel {
	player := g.world.Player()
	var found []*game.GroundLabel
	for _, gl := range g.world.GroundLabels() {
		if gl == nil || gl.Label == nil || !gl.Label.Valid || !gl.Label.Visible || gl.Label.Address == 0 {
			continue
		}
		if gl.Entity == nil || !portalPath.MatchString(gl.Entity.Path) {
			continue
		}
		found = append(found, gl)
	}
	if len(found) == 0 {
		return nil
	}
	if player != nil {
		slices.SortStableFunc(found, func(a, b *game.GroundLabel) int {
			return cmp.Compare(a.Entity.Pos.PlanarDistanceSq(player.Pos), b.Entity.Pos.PlanarDistanceSq(player.Pos))
		})
	}
	return found[0]
}

// IsNearby reports whether the portal's label, grown by portalMargin, overlaps
// the label grown the same way.
func IsNearby(portal *game.GroundLabel, label *game.Label) bool {
	if portal == nil || portal.Label == nil || label == nil {
		return false
	}
	a := portal.Label.Rect.Inflate(portalMargin, portalMargin)
	b := label.Rect.Inflate(portalMargin, portalMargin)
	return a.Intersects(b)
}

// IsTargeted reports whether any focus source currently names the portal.
func (g *PortalGuard) IsTargeted(portal *game.GroundLabel) bool {
	if portal == nil {
		return false
	}
	ids := []game.Handle{portal.Address}
	if portal.Entity != nil {
		ids = append(ids, portal.Entity.Address)
	}
	if portal.Label != nil {
		ids = append(ids, portal.Label.Address)
	}

	hover := g.world.Hover()
	for _, src := range []game.Handle{hover.Primary, hover.Element, hover.Tooltip} {
		if src != 0 && slices.Contains(ids, src) {
			return true
		}
	}
	targeted, ok := portal.Entity.TargetedFlag()
	return ok && targeted
}

// Check starts a hazard check for clicking label.
func (g *PortalGuard) Check(label *game.Label) *PortalCheck {
	return &PortalCheck{guard: g, label: label}
}

// PortalCheck is a resumable hazard check. When the portal is nearby but not
// focused it waits portalSettle and looks again.
type PortalCheck struct {
	guard   *PortalGuard
	label   *game.Label
	waiting bool
	settle  Poll
}

// Poll advances the check. done is false while the settle delay is running.
func (c *PortalCheck) Poll() (hazard bool, done bool) {
	portal := c.guard.Portal()
	if !c.waiting {
		if !IsNearby(portal, c.label) {
			return false, true
		}
		if c.guard.IsTargeted(portal) {
			return true, true
		}
		c.waiting = true
		c.settle = Poll{Deadline: c.guard.clock.Now().Add(portalSettle)}
		return false, false
	}
	if !c.settle.Ready(c.guard.clock.Now()) {
		return false, false
	}
	return c.guard.IsTargeted(portal), true
}
