package pickit

import (
	"math/rand"
	"time"

	"github.com/lootkit/pickit/internal/bridge"
	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/core/event"
	"github.com/lootkit/pickit/internal/game"
	"github.com/lootkit/pickit/internal/rules"
	"go.uber.org/zap"
)

// Bridge method names.
const (
	MethodListItems   = "PickIt.ListItems"
	MethodIsActive    = "PickIt.IsActive"
	MethodSetWorkMode = "PickIt.SetWorkMode"
)

// hoverClickRange is how close a hovered item must be for the auto-click path.
const hoverClickRange = 20

// Deps bundles the collaborators a Plugin needs.
type Deps struct {
	World    game.World
	Input    game.Input
	Clock    game.Clock
	Settings *config.PluginConfig
	Rules    *rules.Set
	Bus      *event.Bus
	Log      *zap.Logger
	Rand     *rand.Rand // nil = seeded from the clock
}

// Plugin is the pickit entry point. The host calls Tick and then Render once
// per frame, both on the same goroutine.
type Plugin struct {
	world    game.World
	input    game.Input
	clock    game.Clock
	settings *config.PluginConfig
	log      *zap.Logger

	Inventory *Inventory
	Selector  *Selector
	Modes     *ModeController
	Guard     *PortalGuard
	Clicker   *ClickConfirmer
	Scheduler *Scheduler

	view       *GridView
	lastView   string
	filterTest filterTest
}

type filterTest struct {
	src    string
	filter rules.Filter
	engine *rules.Engine
}

func New(d Deps) *Plugin {
	rng := d.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(d.Clock.Now().UnixNano()))
	}
	p := &Plugin{
		world:    d.World,
		input:    d.Input,
		clock:    d.Clock,
		settings: d.Settings,
		log:      d.Log,
	}
	p.Inventory = NewInventory(d.World, d.Clock, d.Settings)
	p.Selector = NewSelector(d.World, d.Input, d.Settings, d.Rules, p.Inventory)
	p.Modes = NewModeController(d.World, d.Input, d.Clock, d.Settings, d.Log)
	p.Guard = NewPortalGuard(d.World, d.Clock)
	p.Clicker = NewClickConfirmer(d.World, d.Input, d.Clock, d.Settings, p.Guard, rng, d.Bus, d.Log)
	p.Scheduler = NewScheduler(d.World, d.Input, d.Clock, d.Settings, p.Modes, p.Selector, p.Clicker, d.Bus, d.Log)
	p.view = NewGridView(p.Inventory.Ignored())
	return p
}

// RegisterBridge exposes the plugin's methods to other plugins.
func (p *Plugin) RegisterBridge(reg *bridge.Registry) {
	reg.Save(MethodListItems, p.ListItems)
	reg.Save(MethodIsActive, p.IsActive)
	reg.Save(MethodSetWorkMode, p.SetWorkMode)
}

// LootItem is a detached view of one pickable ground item.
type LootItem struct {
	Label    game.Handle
	Entity   game.Handle
	BaseName string
	Path     string
	Rect     game.Rect
	Distance float64
}

// ListItems returns the current pickable ground items, nearest first.
func (p *Plugin) ListItems() []LootItem {
	var out []LootItem
	for c := range p.Selector.Candidates(false) {
		out = append(out, LootItem{
			Label:    c.Ground.Address,
			Entity:   c.Entity.Address,
			BaseName: c.Entity.BaseName,
			Path:     c.Entity.Path,
			Rect:     c.Ground.ClientRect,
			Distance: c.Distance,
		})
	}
	return out
}

func (p *Plugin) IsActive() bool { return p.Scheduler.Active() }

// SetWorkMode sets the external Manual-mode override.
func (p *Plugin) SetWorkMode(running bool) { p.Modes.SetOverride(running) }

// GridView returns the ignored-cell editor.
func (p *Plugin) GridView() *GridView { return p.view }

// Tick handles per-frame input: hovered-loot clicks, the lazy-loot pause key and
// the profiler. Nothing happens while the plugin is disabled or before the
// server inventory is readable.
func (p *Plugin) Tick() {
	if !p.settings.Enable {
		return
	}
	if _, ok := p.world.Inventory(); !ok {
		return
	}
	if p.settings.AutoClickHoveredLoot {
		p.clickHoveredLoot()
	}
	if p.settings.ShowInventoryView {
		p.drawInventoryView()
	}
	if keyDown(p.input, p.settings.LazyLootingPauseKey) {
		p.Modes.PauseLazyLoot()
	}
	if keyDown(p.input, p.settings.ProfilerHotkey) {
		p.profile()
	}
}

// Render runs the scheduler and the debug helpers.
func (p *Plugin) Render() {
	if p.settings.DebugHighlight {
		for c := range p.Selector.Candidates(false) {
			r := c.Ground.ClientRect
			p.log.Debug("highlight", zap.Uint64("address", uint64(c.Entity.Address)),
				zap.Float64("x", r.X), zap.Float64("y", r.Y), zap.Float64("w", r.W), zap.Float64("h", r.H))
		}
	}
	p.Scheduler.Tick()
	if p.settings.FilterTest != "" {
		p.runFilterTest()
	}
}

func (p *Plugin) clickHoveredLoot() {
	hover := p.world.Hover()
	icon := hover.Primary
	if icon == 0 {
		icon = hover.Element
	}
	if icon == 0 {
		return
	}
	if p.world.InventoryPanelVisible() || p.input.KeyDown(game.KeyLButton) {
		return
	}
	if !p.Clicker.pauseElapsed(p.clock.Now()) {
		return
	}
	for _, gl := range p.world.VisibleItemLabels() {
		if gl == nil || gl.Label == nil || gl.Label.Address != icon || gl.Entity == nil {
			continue
		}
		if p.Selector.ShouldPick(gl.Entity) && gl.Entity.DistancePlayer < hoverClickRange {
			p.Clicker.restartTimer()
			p.input.Click()
			p.log.Debug("clicked hovered loot", zap.Uint64("address", uint64(gl.Entity.Address)))
		}
		return
	}
}

func (p *Plugin) drawInventoryView() {
	out := p.view.Render()
	if out == p.lastView {
		return
	}
	p.lastView = out
	p.log.Debug("ignored inventory cells\n" + out)
}

func (p *Plugin) profile() {
	start := time.Now()
	first := p.Selector.First(false)
	elapsed := time.Since(start)
	fields := []zap.Field{zap.Duration("elapsed", elapsed)}
	if first != nil {
		fields = append(fields, zap.String("item", first.Entity.BaseName), zap.Float64("distance", first.Distance))
	}
	p.log.Info("candidate selection timed", fields...)
}

// runFilterTest evaluates the user's inline rule against the hovered entity.
func (p *Plugin) runFilterTest() {
	ft := &p.filterTest
	if ft.src != p.settings.FilterTest {
		ft.src = p.settings.FilterTest
		ft.filter = nil
		if ft.engine == nil {
			ft.engine = rules.NewEngine(p.log)
		}
		f, err := ft.engine.CompileString("filter_test", ft.src)
		if err != nil {
			p.log.Warn("filter test does not compile", zap.Error(err))
			return
		}
		ft.filter = f
	}
	if ft.filter == nil {
		return
	}
	hovered := p.world.Hover().Primary
	if hovered == 0 {
		return
	}
	for _, gl := range p.world.GroundLabels() {
		if gl == nil || gl.Label == nil || gl.Label.Address != hovered || gl.Entity == nil || !gl.Entity.Valid {
			continue
		}
		p.log.Info("debug item match",
			zap.String("item", gl.Entity.BaseName),
			zap.Bool("matched", ft.filter.Matches(rules.ItemFrom(gl.Entity))))
		return
	}
}
