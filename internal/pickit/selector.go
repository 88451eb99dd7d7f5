package pickit

import (
	"cmp"
	"iter"
	"slices"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/game"
	"github.com/lootkit/pickit/internal/rules"
)

// clickMargin keeps clicks away from the window border, where the game draws
// its own UI.
const clickMargin = 36

// Clickable reports whether a label can be clicked: it must be valid, visible,
// attached to a parent, and centered inside the window shrunk by clickMargin.
// custom overrides the label's own rectangle when non-nil.
func Clickable(in game.Input, l *game.Label, custom *game.Rect) bool {
	if l == nil || !l.Valid || !l.Visible || !l.HasParentIndex {
		return false
	}
	r := l.Rect
	if custom != nil {
		r = *custom
	}
	win := in.WindowRect()
	win.X, win.Y = 0, 0
	return win.Inflate(-clickMargin, -clickMargin).ContainsStrict(r.Center())
}

// attemptBook counts pick attempts per entity address. Entries are dropped
// once the entity leaves the visible label set.
type attemptBook struct {
	counts map[game.Handle]int
}

func newAttemptBook() *attemptBook {
	return &attemptBook{counts: make(map[game.Handle]int)}
}

func (b *attemptBook) get(h game.Handle) int { return b.counts[h] }

func (b *attemptBook) inc(h game.Handle) { b.counts[h]++ }

func (b *attemptBook) retain(visible []*game.GroundLabel) {
	if len(b.counts) == 0 {
		return
	}
	live := make(map[game.Handle]struct{}, len(visible))
	for _, gl := range visible {
		if gl != nil && gl.Entity != nil {
			live[gl.Entity.Address] = struct{}{}
		}
	}
	for h := range b.counts {
		if _, ok := live[h]; !ok {
			delete(b.counts, h)
		}
	}
}

// Candidate is a ground item eligible for a pick attempt this tick.
type Candidate struct {
	Ground   *game.GroundLabel
	Entity   *game.Entity
	Distance float64
	book     *attemptBook
}

// Attempts returns how many pick attempts were started for this entity.
func (c *Candidate) Attempts() int { return c.book.get(c.Entity.Address) }

func (c *Candidate) recordAttempt() { c.book.inc(c.Entity.Address) }

// Selector ranks and filters ground items.
type Selector struct {
	world     game.World
	input     game.Input
	settings  *config.PluginConfig
	rules     *rules.Set
	inventory *Inventory
	attempts  *attemptBook
}

func NewSelector(world game.World, input game.Input, settings *config.PluginConfig, set *rules.Set, inv *Inventory) *Selector {
	return &Selector{
		world:     world,
		input:     input,
		settings:  settings,
		rules:     set,
		inventory: inv,
		attempts:  newAttemptBook(),
	}
}

// ShouldPick reports whether an item passes the pick filter: either the
// pick-everything override or any configured rule.
func (s *Selector) ShouldPick(e *game.Entity) bool {
	if s.settings.PickUpEverything {
		return true
	}
	return s.rules != nil && s.rules.Any(rules.ItemFrom(e))
}

// Candidates yields pickable ground items nearest first. The sequence is
// recomputed from the current scan every time it is ranged over.
func (s *Selector) Candidates(filterAttempts bool) iter.Seq[*Candidate] {
	return func(yield func(*Candidate) bool) {
		visible := s.world.VisibleItemLabels()
		s.attempts.retain(visible)

		pickupRange := float64(s.settings.PickupRange)
		inRange := make([]*game.GroundLabel, 0, len(visible))
		for _, gl := range visible {
			if gl == nil || gl.Entity == nil {
				continue
			}
			if gl.Entity.DistancePlayer < pickupRange {
				inRange = append(inRange, gl)
			}
		}
		slices.SortStableFunc(inRange, func(a, b *game.GroundLabel) int {
			return cmp.Compare(a.Entity.DistancePlayer, b.Entity.DistancePlayer)
		})

		for _, gl := range inRange {
			if gl.Entity.Path == "" || !Clickable(s.input, gl.Label, &gl.ClientRect) {
				continue
			}
			c := &Candidate{
				Ground:   gl,
				Entity:   gl.Entity,
				Distance: gl.Entity.DistancePlayer,
				book:     s.attempts,
			}
			if filterAttempts && c.Attempts() > 0 {
				continue
			}
			if !s.ShouldPick(c.Entity) {
				continue
			}
			if !s.settings.PickUpWhenInventoryIsFull && !s.inventory.Fits(c.Entity) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// First returns the best candidate, or nil.
func (s *Selector) First(filterAttempts bool) *Candidate {
	for c := range s.Candidates(filterAttempts) {
		return c
	}
	return nil
}
