package system

import (
	"time"

	"github.com/lootkit/pickit/internal/core/event"
	coresys "github.com/lootkit/pickit/internal/core/system"
	"go.uber.org/zap"
)

// Stats are the pick counters accumulated from bus events.
type Stats struct {
	Picks       int
	Clicks      int
	Unreachable int
	Hazards     int
	ModeChanges int
}

// StatsSystem counts pick events and logs a summary every interval ticks.
// Phase 3 (Output).
type StatsSystem struct {
	interval  int
	tickCount int
	stats     Stats
	log       *zap.Logger
}

func NewStatsSystem(bus *event.Bus, interval int, log *zap.Logger) *StatsSystem {
	s := &StatsSystem{interval: interval, log: log}
	event.Subscribe(bus, func(event.PickStarted) { s.stats.Picks++ })
	event.Subscribe(bus, func(event.ClickIssued) { s.stats.Clicks++ })
	event.Subscribe(bus, func(event.TargetUnreachable) { s.stats.Unreachable++ })
	event.Subscribe(bus, func(event.PortalHazard) { s.stats.Hazards++ })
	event.Subscribe(bus, func(event.ModeChanged) { s.stats.ModeChanges++ })
	return s
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *StatsSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.interval <= 0 || s.tickCount%s.interval != 0 {
		return
	}
	s.log.Info("pickit stats",
		zap.Int("picks", s.stats.Picks),
		zap.Int("clicks", s.stats.Clicks),
		zap.Int("unreachable", s.stats.Unreachable),
		zap.Int("portal_hazards", s.stats.Hazards),
		zap.Int("mode_changes", s.stats.ModeChanges),
	)
}

// Snapshot returns the counters so far.
func (s *StatsSystem) Snapshot() Stats { return s.stats }
