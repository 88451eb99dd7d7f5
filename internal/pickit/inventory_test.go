package pickit

import (
	"strings"
	"testing"
	"time"

	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/data"
	"github.com/lootkit/pickit/internal/game"
	"github.com/lootkit/pickit/internal/sim"
	"go.uber.org/zap"
)

func TestGridFits(t *testing.T) {
	g := NewGrid(5, 12)
	g.Fill(0, 0, 12, 4)
	if !g.Fits(1, 1) || !g.Fits(12, 1) {
		t.Fatalf("bottom row should fit 1x1 and 12x1")
	}
	if g.Fits(1, 2) {
		t.Fatalf("1x2 fits with one free row")
	}
	if g.Fits(13, 1) {
		t.Fatalf("13x1 fits a 12-wide grid")
	}
	g.Set(4, 5, true)
	if g.Fits(7, 1) {
		t.Fatalf("7x1 fits across an occupied cell")
	}
	if !g.Fits(6, 1) {
		t.Fatalf("6x1 should fit right of the occupied cell")
	}
	if !g.Fits(0, 0) {
		t.Fatalf("zero footprint treated as 1x1 should fit")
	}
}

func TestGridOutOfRange(t *testing.T) {
	g := NewGrid(2, 2)
	g.Set(5, 5, true)
	if g.Get(5, 5) || g.Get(-1, 0) {
		t.Fatalf("out of range cell reported occupied")
	}
	g.Fill(1, 1, 3, 3)
	if !g.Get(1, 1) || g.Get(0, 0) {
		t.Fatalf("fill not clipped to grid")
	}
}

func TestGridViewToggleAndRender(t *testing.T) {
	g := NewGrid(2, 3)
	v := NewGridView(g)
	if !v.Toggle(0, 1) {
		t.Fatalf("toggle returned false for a newly set cell")
	}
	if !g.Get(0, 1) {
		t.Fatalf("view did not update its model")
	}
	want := "[ ][x][ ]\n[ ][ ][ ]\n"
	if got := v.Render(); got != want {
		t.Fatalf("render=%q want=%q", got, want)
	}
	if v.Toggle(0, 1) {
		t.Fatalf("second toggle returned true")
	}
}

const inventoryScene = `
window: {x: 0, y: 0, w: 1000, h: 800}
player:
  pos: {x: 0, y: 0, z: 0}
inventory:
  - {x: 0, y: 0, w: 12, h: 3}
  - {x: 0, y: 3, w: 2, h: 1}
`

func TestInventorySlotsMergeIgnoredCells(t *testing.T) {
	scene, err := data.ParseScene([]byte(inventoryScene))
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	clock := sim.NewClock(time.Unix(0, 0))
	host := sim.NewHost(scene, clock, frameTime, zap.NewNop())
	settings := config.Defaults().Plugin
	settings.IgnoredCells = [][2]int{{3, 11}, {4, 11}}

	inv := NewInventory(host, clock, &settings)
	slots := inv.Slots()
	if slots == nil {
		t.Fatalf("no slots with inventory data")
	}
	if !slots.Get(3, 0) || !slots.Get(3, 1) || slots.Get(3, 2) {
		t.Fatalf("item footprint at row 3 wrong")
	}
	if !slots.Get(4, 11) {
		t.Fatalf("ignored cell not occupied")
	}

	small := &game.Entity{Width: 1, Height: 2}
	if !inv.Fits(small) {
		t.Fatalf("1x2 should fit in rows 3-4")
	}
	wide := &game.Entity{Width: 10, Height: 2}
	if inv.Fits(wide) {
		t.Fatalf("10x2 fits beside the ignored column")
	}
	if !inv.Fits(&game.Entity{Width: 9, Height: 2}) {
		t.Fatalf("9x2 should fit in columns 2-10")
	}

	host.SetInventoryReady(false)
	clock.NextFrame(frameTime)
	if inv.Slots() != nil || inv.Fits(small) {
		t.Fatalf("inventory usable without data")
	}
}

func TestCandidateNeedsInventorySpace(t *testing.T) {
	h := newHarness(t, harnessOptions{settings: func(s *config.PluginConfig) {
		for r := 0; r < config.InventoryRows; r++ {
			for c := 0; c < config.InventoryCols; c++ {
				s.IgnoredCells = append(s.IgnoredCells, [2]int{r, c})
			}
		}
	}})
	h.add(item(1, 10, slot(0)))
	if c := h.plugin.Selector.First(false); c != nil {
		t.Fatalf("candidate offered with a full inventory")
	}
	h.settings.PickUpWhenInventoryIsFull = true
	if c := h.plugin.Selector.First(false); c == nil {
		t.Fatalf("no candidate with pick-up-when-full")
	}
	// The debug view edits the same model the inventory reads.
	h.settings.PickUpWhenInventoryIsFull = false
	h.plugin.GridView().Toggle(0, 0)
	h.clock.NextFrame(frameTime)
	if c := h.plugin.Selector.First(false); c == nil {
		t.Fatalf("no candidate after freeing a cell")
	}
	if !strings.HasPrefix(h.plugin.GridView().Render(), "[ ][x]") {
		t.Fatalf("render=%q", h.plugin.GridView().Render())
	}
}
