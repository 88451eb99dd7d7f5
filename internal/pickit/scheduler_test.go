package pickit

import (
	"slices"
	"testing"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/game"
)

func TestStopDropsTask(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.add(item(1, 100, slot(0)))
	h.host.SetKey("F", true)

	h.run(1)
	if !h.plugin.IsActive() {
		t.Fatalf("no task after the pick key was pressed")
	}
	h.host.SetKey("F", false)
	h.run(1)
	if h.plugin.IsActive() {
		t.Fatalf("task survived a stop")
	}
	if len(h.host.Clicks()) != 0 {
		t.Fatalf("clicked after stop: %v", h.host.Clicks())
	}
	if len(h.events.modes) != 2 || h.events.modes[1].From != "Manual" || h.events.modes[1].To != "Stopped" {
		t.Fatalf("mode events=%+v", h.events.modes)
	}
}

func TestChestPreference(t *testing.T) {
	cases := []struct {
		name          string
		itemDistance  float64
		chestDistance float64
		want          []game.Handle
	}{
		{"chest closer", 100, 50, []game.Handle{3, 1}},
		{"item closer", 30, 50, []game.Handle{1, 3}},
		{"tie goes to chest", 50, 50, []game.Handle{3, 1}},
	}
	for _, tc := range cases {
		h := newHarness(t, harnessOptions{})
		h.add(item(1, tc.itemDistance, slot(0)))
		h.add(chest(3, breachPath, tc.chestDistance, slot(1)))
		h.host.SetKey("F", true)
		h.run(14)
		if got := h.host.Clicks(); !slices.Equal(got, tc.want) {
			t.Fatalf("%s: clicks=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestChestCategories(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		settings func(*config.PluginConfig)
		want     int
	}{
		{"league chest", "Metadata/Chests/LegionChests/LegionChestTier1", nil, 1},
		{"plain chest", "Metadata/Chests/Barrel1", nil, 0},
		{"quest chest", "Metadata/Chests/QuestChests/Dweller", nil, 1},
		{"quest chest off", "Metadata/Chests/QuestChests/Dweller", func(s *config.PluginConfig) { s.ClickQuestChests = false }, 0},
		{"chests off", breachPath, func(s *config.PluginConfig) { s.ClickChests = false }, 0},
	}
	for _, tc := range cases {
		h := newHarness(t, harnessOptions{settings: tc.settings})
		h.add(chest(3, tc.path, 50, slot(1)))
		h.host.SetKey("F", true)
		h.run(8)
		if got := len(h.host.Clicks()); got != tc.want {
			t.Fatalf("%s: clicks=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func label(r game.Rect, children ...*game.Label) *game.Label {
	return &game.Label{Valid: true, Visible: true, HasParentIndex: true, Rect: r, Children: children}
}

func TestCorpseClicksActionChild(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.add(item(1, 10, slot(0)))

	body := game.Rect{X: 400, Y: 300, W: 200, H: 100}
	action := label(game.Rect{X: 500, Y: 375, W: 100, H: 25})
	corpse := ground(5, game.KindCorpse, corpseMarkerPath, game.Vec3{X: 80}, body, game.CompTargetable)
	corpse.Label.Children = []*game.Label{
		label(body,
			label(game.Rect{X: 400, Y: 300, W: 50, H: 20}),
			label(game.Rect{X: 450, Y: 300, W: 50, H: 20}),
			label(game.Rect{X: 500, Y: 350, W: 100, H: 50},
				label(game.Rect{X: 500, Y: 350, W: 100, H: 25}),
				action,
			),
		),
	}
	h.add(corpse)
	h.host.SetKey("F", true)

	h.run(1)
	cursor, _ := h.host.Cursor()
	if !action.Rect.ContainsStrict(cursor) {
		t.Fatalf("cursor=%v outside the action button %v", cursor, action.Rect)
	}
	h.run(12)
	if got := h.host.Clicks(); !slices.Equal(got, []game.Handle{5, 1}) {
		t.Fatalf("clicks=%v want=[5 1]", got)
	}
	if len(h.events.picks) == 0 || h.events.picks[0].Kind != game.KindCorpse {
		t.Fatalf("picks=%+v", h.events.picks)
	}
}

func TestCorpsesOff(t *testing.T) {
	h := newHarness(t, harnessOptions{settings: func(s *config.PluginConfig) { s.ItemizeCorpses = false }})
	h.add(ground(5, game.KindCorpse, corpseMarkerPath, game.Vec3{X: 80}, slot(1), game.CompTargetable))
	h.host.SetKey("F", true)
	h.run(8)
	if len(h.host.Clicks()) != 0 {
		t.Fatalf("clicked a corpse with corpses disabled")
	}
}

func TestLazyModeOnlyReachesLevelItems(t *testing.T) {
	lazy := func(s *config.PluginConfig) { s.LazyLooting = true }

	h := newHarness(t, harnessOptions{settings: lazy})
	h.add(item(1, 300, slot(0)))
	h.run(6)
	if h.host.CursorMoves() != 0 || len(h.host.Clicks()) != 0 {
		t.Fatalf("lazy mode reached for a far item")
	}

	h = newHarness(t, harnessOptions{settings: lazy})
	h.add(item(1, 200, slot(0)))
	h.run(6)
	if got := h.host.Clicks(); !slices.Equal(got, []game.Handle{1}) {
		t.Fatalf("clicks=%v want=[1]", got)
	}
	if h.events.modes[0].To != "Lazy" {
		t.Fatalf("mode events=%+v", h.events.modes)
	}
}

func TestUnfocusedWindowSkipsIteration(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.add(item(1, 100, slot(0)))
	h.plugin.SetWorkMode(true)
	h.host.SetFocused(false)
	h.run(3)
	if h.host.CursorMoves() != 0 || h.plugin.IsActive() {
		t.Fatalf("picked with an unfocused window")
	}
}
