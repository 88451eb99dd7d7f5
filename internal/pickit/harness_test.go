package pickit

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/core/event"
	"github.com/lootkit/pickit/internal/data"
	"github.com/lootkit/pickit/internal/game"
	"github.com/lootkit/pickit/internal/rules"
	"github.com/lootkit/pickit/internal/sim"
	"go.uber.org/zap"
)

const (
	currencyPath = "Metadata/Items/Currency/CurrencyRerollRare"
	breachPath   = "Metadata/Chests/Breach/BreachBoxChest"
	portalObject = "Metadata/MiscellaneousObjects/MultiplexPortal"
	frameTime    = 16 * time.Millisecond
)

const baseScene = `
window: {x: 0, y: 0, w: 1000, h: 800}
player:
  pos: {x: 0, y: 0, z: 0}
focus_lag_frames: %d
`

// holdInput records clicks without letting the host consume anything, so a
// target stays on the ground for as long as the test wants.
type holdInput struct {
	*sim.Host
	clicks []time.Time
}

func (in *holdInput) Click() { in.clicks = append(in.clicks, in.Host.Clock().Now()) }

type recorded struct {
	modes       []event.ModeChanged
	picks       []event.PickStarted
	clicks      []event.ClickIssued
	unreachable []event.TargetUnreachable
	hazards     []event.PortalHazard
}

type harnessOptions struct {
	focusLag   int
	holdClicks bool
	log        *zap.Logger
	settings   func(*config.PluginConfig)
}

type harness struct {
	t        *testing.T
	host     *sim.Host
	clock    *sim.Clock
	settings *config.PluginConfig
	rules    *rules.Set
	bus      *event.Bus
	plugin   *Plugin
	hold     *holdInput
	events   *recorded
}

// newHarness builds a plugin over an empty 1000x800 scene with the player at
// the origin. Settings start from the defaults with the plugin enabled, every
// item wanted and no click pause.
func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	if opts.focusLag == 0 {
		opts.focusLag = 1
	}
	if opts.log == nil {
		opts.log = zap.NewNop()
	}
	clock := sim.NewClock(time.Unix(10000, 0))
	scene, err := data.ParseScene([]byte(fmt.Sprintf(baseScene, opts.focusLag)))
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	host := sim.NewHost(scene, clock, frameTime, zap.NewNop())

	settings := config.Defaults().Plugin
	settings.Enable = true
	settings.PickUpEverything = true
	settings.PauseBetweenClicks = 0
	if opts.settings != nil {
		opts.settings(&settings)
	}

	h := &harness{
		t:        t,
		host:     host,
		clock:    clock,
		settings: &settings,
		rules:    &rules.Set{},
		bus:      event.NewBus(),
		events:   &recorded{},
	}
	var input game.Input = host
	if opts.holdClicks {
		h.hold = &holdInput{Host: host}
		input = h.hold
	}
	ev := h.events
	event.Subscribe(h.bus, func(e event.ModeChanged) { ev.modes = append(ev.modes, e) })
	event.Subscribe(h.bus, func(e event.PickStarted) { ev.picks = append(ev.picks, e) })
	event.Subscribe(h.bus, func(e event.ClickIssued) { ev.clicks = append(ev.clicks, e) })
	event.Subscribe(h.bus, func(e event.TargetUnreachable) { ev.unreachable = append(ev.unreachable, e) })
	event.Subscribe(h.bus, func(e event.PortalHazard) { ev.hazards = append(ev.hazards, e) })

	h.plugin = New(Deps{
		World:    host,
		Input:    input,
		Clock:    clock,
		Settings: h.settings,
		Rules:    h.rules,
		Bus:      h.bus,
		Log:      opts.log,
		Rand:     rand.New(rand.NewSource(1)),
	})
	return h
}

// run drives n frames the way the host loop does.
func (h *harness) run(n int) {
	for i := 0; i < n; i++ {
		h.host.Step()
		h.plugin.Tick()
		h.plugin.Render()
		h.bus.SwapBuffers()
		h.bus.DispatchAll()
	}
}

func (h *harness) add(gl *game.GroundLabel) *game.GroundLabel {
	h.host.Add(gl)
	return gl
}

func slot(i int) game.Rect {
	return game.Rect{X: 100 + 150*float64(i), Y: 300, W: 100, H: 20}
}

func ground(addr uint64, kind game.Kind, path string, pos game.Vec3, rect game.Rect, comps game.Component) *game.GroundLabel {
	return &game.GroundLabel{
		Address: game.Handle(addr) + 1<<32,
		Label: &game.Label{
			Address:        game.Handle(addr * 10),
			Valid:          true,
			Visible:        true,
			HasParentIndex: true,
			Rect:           rect,
		},
		Entity: &game.Entity{
			Address:    game.Handle(addr),
			Kind:       kind,
			Path:       path,
			BaseName:   "Chaos Orb",
			Pos:        pos,
			Valid:      true,
			Alive:      true,
			Components: comps,
			Width:      1,
			Height:     1,
		},
		ClientRect: rect,
	}
}

func item(addr uint64, distance float64, rect game.Rect) *game.GroundLabel {
	return ground(addr, game.KindItem, currencyPath, game.Vec3{X: distance}, rect, game.CompTargetable)
}

func chest(addr uint64, path string, distance float64, rect game.Rect) *game.GroundLabel {
	return ground(addr, game.KindChest, path, game.Vec3{X: distance}, rect, game.CompChest|game.CompTargetable)
}
