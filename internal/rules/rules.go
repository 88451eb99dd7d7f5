package rules

import (
	"sync/atomic"

	"github.com/lootkit/pickit/internal/game"
)

// Rule is a persisted pickit rule: a named predicate file that can be toggled.
type Rule struct {
	Name     string
	Location string
	Enabled  bool
}

// Item is the data a compiled predicate sees about one ground item.
type Item struct {
	Path     string
	BaseName string
	Width    int
	Height   int
	Distance float64
}

// ItemFrom snapshots the predicate-facing fields of an entity.
func ItemFrom(e *game.Entity) Item {
	return Item{
		Path:     e.Path,
		BaseName: e.BaseName,
		Width:    e.Width,
		Height:   e.Height,
		Distance: e.DistancePlayer,
	}
}

// Filter is a compiled match predicate.
type Filter interface {
	Name() string
	Matches(item Item) bool
}

// Set holds the active filter list. Loaders publish a new list with Store while
// the tick loop reads it with Load; a nil list means no predicates.
type Set struct {
	filters atomic.Pointer[[]Filter]
}

func (s *Set) Store(filters []Filter) {
	s.filters.Store(&filters)
}

func (s *Set) Load() []Filter {
	p := s.filters.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Any reports whether at least one filter matches the item.
func (s *Set) Any(item Item) bool {
	for _, f := range s.Load() {
		if f.Matches(item) {
			return true
		}
	}
	return false
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc struct {
	Label string
	Fn    func(Item) bool
}

func (f FilterFunc) Name() string           { return f.Label }
func (f FilterFunc) Matches(item Item) bool { return f.Fn(item) }
