package pickit

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/game"
	"go.uber.org/zap"
)

// Mode is the operating mode derived every tick.
type Mode int

const (
	ModeStopped Mode = iota
	ModeManual
	ModeLazy
)

func (m Mode) String() string {
	switch m {
	case ModeStopped:
		return "Stopped"
	case ModeManual:
		return "Manual"
	case ModeLazy:
		return "Lazy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

const (
	lazyLootPause = 2 * time.Second
	// Lazy looting only reaches items roughly level with the player.
	lazyLootMaxHeight = 50
	lazyLootMaxPlanar = 275
	// Summoned elementals are hostile-flagged but harmless.
	summonedExemption = "ElementalSummoned"
)

var (
	errNoPlayer = errors.New("player not available")
	errNoRender = errors.New("monster has no render component")
)

// ModeController decides between Stopped, Manual and Lazy.
type ModeController struct {
	world    game.World
	input    game.Input
	clock    game.Clock
	settings *config.PluginConfig
	log      *zap.Logger

	override    bool
	pausedUntil time.Time
}

func NewModeController(world game.World, input game.Input, clock game.Clock, settings *config.PluginConfig, log *zap.Logger) *ModeController {
	return &ModeController{world: world, input: input, clock: clock, settings: settings, log: log}
}

// SetOverride forces Manual mode until the next stop condition.
func (m *ModeController) SetOverride(v bool) { m.override = v }

func (m *ModeController) Override() bool { return m.override }

// PauseLazyLoot suspends lazy looting for the next two seconds.
func (m *ModeController) PauseLazyLoot() {
	m.pausedUntil = m.clock.Now().Add(lazyLootPause)
}

// Mode evaluates the current mode. A stop condition also clears the override.
func (m *ModeController) Mode() Mode {
	if !m.input.WindowFocused() || !m.settings.Enable || m.input.KeyDown(game.KeyEscape) {
		m.override = false
		return ModeStopped
	}
	if keyDown(m.input, m.settings.PickUpKey) || m.override {
		return ModeManual
	}
	if m.CanLazyLoot() {
		return ModeLazy
	}
	return ModeStopped
}

// CanLazyLoot reports whether automatic pickup is currently allowed.
func (m *ModeController) CanLazyLoot() bool {
	if !m.settings.LazyLooting {
		return false
	}
	if m.clock.Now().Before(m.pausedUntil) {
		return false
	}
	if m.settings.NoLazyLootingWhileEnemy {
		found, err := m.hostileNearby()
		if err != nil {
			// Scan data is incomplete; assume the coast is clear.
			m.log.Debug("hostile check skipped", zap.Error(err))
			return true
		}
		if found {
			return false
		}
	}
	return true
}

func (m *ModeController) hostileNearby() (bool, error) {
	player := m.world.Player()
	if player == nil {
		return false, errNoPlayer
	}
	pickupRange := float64(m.settings.PickupRange)
	for _, e := range m.world.Entities() {
		if e == nil || e.Kind != game.KindMonster || !e.Has(game.CompMonster) {
			continue
		}
		if !e.Valid || !e.Hostile || !e.Alive || e.Hidden || strings.Contains(e.Path, summonedExemption) {
			continue
		}
		if !e.Has(game.CompRender) {
			return false, errNoRender
		}
		if player.Pos.Distance(e.Pos) < pickupRange {
			return true, nil
		}
	}
	return false, nil
}

// ShouldLazyLoot reports whether a candidate is close enough, and level enough
// with the player, to be picked without a manual trigger.
func (m *ModeController) ShouldLazyLoot(c *Candidate) bool {
	if c == nil {
		return false
	}
	player := m.world.Player()
	if player == nil {
		return false
	}
	item := c.Entity.Pos
	return math.Abs(item.Z-player.Pos.Z) <= lazyLootMaxHeight &&
		item.PlanarDistanceSq(player.Pos) <= lazyLootMaxPlanar*lazyLootMaxPlanar
}

func keyDown(in game.Input, name string) bool {
	if name == "" {
		return false
	}
	return in.KeyDown(game.Key(name))
}
