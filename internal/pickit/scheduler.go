package pickit

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/lootkit/pickit/internal/cache"
	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/core/event"
	"github.com/lootkit/pickit/internal/game"
	"go.uber.org/zap"
)

const scanTTL = 200 * time.Millisecond

// Chest categories that are always worth opening. Quest chests are opt-in.
var chestPrefixes = []string{
	"Metadata/Chests/LeaguesExpedition/",
	"Metadata/Chests/LegionChests/",
	"Metadata/Chests/Blight",
	"Metadata/Chests/Breach/",
	"Metadata/Chests/IncursionChest",
	"Metadata/Chests/LeagueSanctum/",
}

const (
	questChestPrefix = "Metadata/Chests/QuestChests/"
	corpseMarkerPath = "Metadata/Terrain/Leagues/Necropolis/Objects/NecropolisCorpseMarker"
)

// corpseClickPath is the child of a corpse label that holds its action button.
var corpseClickPath = []int{0, 2, 1}

// pickTask is one scheduler iteration. Before a target is chosen attempt is
// nil; afterwards every resume goes to the click attempt.
type pickTask struct {
	attempt *ClickAttempt
	done    bool
}

// Scheduler owns the in-flight pick task and resumes it once per tick.
type Scheduler struct {
	world    game.World
	input    game.Input
	settings *config.PluginConfig
	modes    *ModeController
	selector *Selector
	clicker  *ClickConfirmer
	bus      *event.Bus
	log      *zap.Logger

	chests  *cache.Cache[[]*game.GroundLabel]
	corpses *cache.Cache[[]*game.GroundLabel]

	task     *pickTask
	lastMode Mode
}

func NewScheduler(world game.World, input game.Input, clock game.Clock, settings *config.PluginConfig,
	modes *ModeController, selector *Selector, clicker *ClickConfirmer, bus *event.Bus, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		world:    world,
		input:    input,
		settings: settings,
		modes:    modes,
		selector: selector,
		clicker:  clicker,
		bus:      bus,
		log:      log,
	}
	s.chests = cache.NewTimeCache(clock, scanTTL, func() []*game.GroundLabel {
		return scanLabels(world, s.isChest)
	})
	s.corpses = cache.NewTimeCache(clock, scanTTL, func() []*game.GroundLabel {
		return scanLabels(world, isCorpse)
	})
	return s
}

// Tick runs one scheduling slot: stop drops the in-flight task, any other mode
// resumes it or starts a new one.
func (s *Scheduler) Tick() {
	mode := s.modes.Mode()
	if mode != s.lastMode {
		event.Emit(s.bus, event.ModeChanged{From: s.lastMode.String(), To: mode.String()})
		s.lastMode = mode
	}
	if mode == ModeStopped {
		s.task = nil
		return
	}
	if s.task == nil || s.task.done {
		s.task = &pickTask{}
	}
	s.task.done = s.resume(s.task)
}

// Active reports whether a pick task is mid-flight.
func (s *Scheduler) Active() bool {
	return s.task != nil && !s.task.done
}

func (s *Scheduler) resume(t *pickTask) bool {
	if t.attempt != nil {
		return t.attempt.Resume()
	}
	return s.begin(t)
}

// begin picks this iteration's target and starts clicking it.
func (s *Scheduler) begin(t *pickTask) bool {
	if !s.input.WindowFocused() {
		return true
	}
	cand := s.selector.First(true)

	mode := s.modes.Mode()
	if mode != ModeManual && (mode != ModeLazy || !s.modes.ShouldLazyLoot(cand)) {
		return true
	}

	pickupRange := float64(s.settings.PickupRange)
	if s.settings.ItemizeCorpses {
		if corpse := nearestClickable(s.input, s.corpses.Get(), pickupRange); corpse != nil {
			s.started(corpse.Entity, 0)
			t.attempt = s.clicker.Start(corpse.Entity, corpse.Label.Child(corpseClickPath...), nil, s.corpses.ForceUpdate)
			return t.attempt.Resume()
		}
	}

	if s.settings.ClickChests {
		chest := nearestClickable(s.input, s.chests.Get(), pickupRange)
		if chest != nil && (cand == nil || cand.Distance >= chest.Entity.DistancePlayer) {
			s.started(chest.Entity, 0)
			t.attempt = s.clicker.Start(chest.Entity, chest.Label, nil, s.chests.ForceUpdate)
			return t.attempt.Resume()
		}
	}

	if cand == nil {
		return true
	}

	cand.recordAttempt()
	s.started(cand.Entity, cand.Attempts())
	t.attempt = s.clicker.Start(cand.Entity, cand.Ground.Label, &cand.Ground.ClientRect, func() {})
	return t.attempt.Resume()
}

func (s *Scheduler) started(e *game.Entity, attempt int) {
	s.log.Debug("pick target",
		zap.Uint64("address", uint64(e.Address)),
		zap.Stringer("kind", e.Kind),
		zap.Float64("distance", e.DistancePlayer),
	)
	event.Emit(s.bus, event.PickStarted{Address: e.Address, Kind: e.Kind, Distance: e.DistancePlayer, Attempt: attempt})
}

func (s *Scheduler) isChest(e *game.Entity) bool {
	if e == nil || !e.Has(game.CompChest) {
		return false
	}
	if s.settings.ClickQuestChests && strings.HasPrefix(e.Path, questChestPrefix) {
		return true
	}
	for _, p := range chestPrefixes {
		if strings.HasPrefix(e.Path, p) {
			return true
		}
	}
	return false
}

func isCorpse(e *game.Entity) bool {
	return e != nil && e.Path == corpseMarkerPath && e.Has(game.CompTargetable)
}

// scanLabels returns the visible ground labels whose entity passes fits,
// nearest first. The label list is only walked when the entity list has a match.
func scanLabels(world game.World, fits func(*game.Entity) bool) []*game.GroundLabel {
	if !slices.ContainsFunc(world.Entities(), fits) {
		return nil
	}
	var out []*game.GroundLabel
	for _, gl := range world.GroundLabels() {
		if gl == nil || gl.Address == 0 || gl.Label == nil || !gl.Label.Visible || !fits(gl.Entity) {
			continue
		}
		out = append(out, gl)
	}
	slices.SortStableFunc(out, func(a, b *game.GroundLabel) int {
		return cmp.Compare(a.Entity.DistancePlayer, b.Entity.DistancePlayer)
	})
	return out
}

func nearestClickable(in game.Input, labels []*game.GroundLabel, pickupRange float64) *game.GroundLabel {
	for _, gl := range labels {
		if gl.Entity.DistancePlayer < pickupRange && Clickable(in, gl.Label, nil) {
			return gl
		}
	}
	return nil
}
