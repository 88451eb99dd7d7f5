package pickit

import (
	"strings"

	"github.com/lootkit/pickit/internal/cache"
	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/game"
)

// Grid is a rows×cols boolean cell map. true = occupied.
type Grid struct {
	rows  int
	cols  int
	cells []bool
}

func NewGrid(rows, cols int) *Grid {
	return &Grid{rows: rows, cols: cols, cells: make([]bool, rows*cols)}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) in(r, c int) bool { return r >= 0 && r < g.rows && c >= 0 && c < g.cols }

// Get returns false for out-of-range cells.
func (g *Grid) Get(r, c int) bool {
	if !g.in(r, c) {
		return false
	}
	return g.cells[r*g.cols+c]
}

// Set ignores out-of-range cells.
func (g *Grid) Set(r, c int, v bool) {
	if g.in(r, c) {
		g.cells[r*g.cols+c] = v
	}
}

// Fill marks the w×h block at (r, c) as occupied, clipped to the grid.
func (g *Grid) Fill(r, c, w, h int) {
	for dr := 0; dr < h; dr++ {
		for dc := 0; dc < w; dc++ {
			g.Set(r+dr, c+dc, true)
		}
	}
}

// Fits reports whether a free w×h block exists.
func (g *Grid) Fits(w, h int) bool {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	for r := 0; r+h <= g.rows; r++ {
		for c := 0; c+w <= g.cols; c++ {
			if g.blockFree(r, c, w, h) {
				return true
			}
		}
	}
	return false
}

func (g *Grid) blockFree(r, c, w, h int) bool {
	for dr := 0; dr < h; dr++ {
		for dc := 0; dc < w; dc++ {
			if g.cells[(r+dr)*g.cols+c+dc] {
				return false
			}
		}
	}
	return true
}

// GridView is the editable debug view of the ignored-cell grid. It only talks
// to its model through Get/Set.
type GridView struct {
	model *Grid
}

func NewGridView(model *Grid) *GridView {
	return &GridView{model: model}
}

// Toggle flips a cell and returns its new value.
func (v *GridView) Toggle(r, c int) bool {
	nv := !v.model.Get(r, c)
	v.model.Set(r, c, nv)
	return nv
}

// Render draws the grid as rows of [x] and [ ] checkboxes.
func (v *GridView) Render() string {
	var b strings.Builder
	for r := 0; r < v.model.Rows(); r++ {
		for c := 0; c < v.model.Cols(); c++ {
			if v.model.Get(r, c) {
				b.WriteString("[x]")
			} else {
				b.WriteString("[ ]")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Inventory tracks free space in the main inventory. The occupancy snapshot is
// rebuilt at most once per frame; ignored cells count as occupied.
type Inventory struct {
	world   game.World
	ignored *Grid
	slots   *cache.Cache[*Grid]
}

func NewInventory(world game.World, clock game.Clock, settings *config.PluginConfig) *Inventory {
	inv := &Inventory{
		world:   world,
		ignored: NewGrid(config.InventoryRows, config.InventoryCols),
	}
	for _, cell := range settings.IgnoredCells {
		inv.ignored.Set(cell[0], cell[1], true)
	}
	inv.slots = cache.NewFrameCache(clock, inv.snapshot)
	return inv
}

// Ignored returns the ignored-cell model edited by the debug view.
func (inv *Inventory) Ignored() *Grid { return inv.ignored }

// Slots returns this frame's occupancy grid, or nil without inventory data.
func (inv *Inventory) Slots() *Grid { return inv.slots.Get() }

func (inv *Inventory) snapshot() *Grid {
	items, ok := inv.world.Inventory()
	if !ok {
		return nil
	}
	g := NewGrid(config.InventoryRows, config.InventoryCols)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if inv.ignored.Get(r, c) {
				g.Set(r, c, true)
			}
		}
	}
	for _, it := range items {
		g.Fill(it.Y, it.X, it.Width, it.Height)
	}
	return g
}

// Fits reports whether the entity's footprint fits the current inventory.
func (inv *Inventory) Fits(e *game.Entity) bool {
	g := inv.Slots()
	if g == nil {
		return false
	}
	return g.Fits(e.Width, e.Height)
}
