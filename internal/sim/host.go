package sim

import (
	"time"

	"github.com/lootkit/pickit/internal/data"
	"github.com/lootkit/pickit/internal/game"
	"go.uber.org/zap"
)

// Host is a scripted game that implements game.World and game.Input. Focus
// follows the cursor after a configurable frame lag, and clicks consume the
// focused object.
type Host struct {
	clock     *Clock
	frameTime time.Duration
	log       *zap.Logger

	window    game.Rect
	focused   bool
	player    *game.Player
	inventory []game.InventoryItem
	invReady  bool
	labels    []*game.GroundLabel
	held      map[game.Key]bool
	panelOpen bool

	cursor      game.Vec2
	cursorSet   bool
	cursorFrame uint64
	focusLag    uint64
	hover       game.Hover
	pinnedHover *game.Hover

	clicks        []game.Handle
	cursorMoves   int
	portalEntered bool
}

// NewHost builds a host from a scene. frameTime is the simulated frame length.
func NewHost(scene *data.Scene, clock *Clock, frameTime time.Duration, log *zap.Logger) *Host {
	h := &Host{
		clock:     clock,
		frameTime: frameTime,
		log:       log,
		window:    scene.Window,
		focused:   true,
		player:    &game.Player{Pos: scene.Player.Pos.Vec3(), Moving: scene.Player.Moving},
		invReady:  true,
		held:      make(map[game.Key]bool),
		focusLag:  uint64(scene.FocusLagFrames),
	}
	for _, it := range scene.Inventory {
		h.inventory = append(h.inventory, game.InventoryItem{X: it.X, Y: it.Y, Width: it.W, Height: it.H})
	}
	for _, k := range scene.HeldKeys {
		h.held[game.Key(k)] = true
	}
	for _, e := range scene.Entities {
		h.labels = append(h.labels, groundLabelFromEntry(e))
	}
	h.refreshDistances()
	return h
}

func groundLabelFromEntry(e data.EntityEntry) *game.GroundLabel {
	kind, _ := data.ParseKind(e.Kind)
	var comps game.Component
	for _, c := range e.Components {
		bit, _ := data.ParseComponent(c)
		comps |= bit
	}
	ent := &game.Entity{
		Address:    game.Handle(e.Address),
		Kind:       kind,
		Path:       e.Path,
		BaseName:   e.BaseName,
		Pos:        e.Pos.Vec3(),
		Valid:      true,
		Hidden:     e.Hidden,
		Hostile:    e.Hostile,
		Alive:      !e.Dead,
		Components: comps,
		Width:      e.Width,
		Height:     e.Height,
	}
	lbl := labelFromEntry(e.Label)
	return &game.GroundLabel{
		Address:    game.Handle(e.Address) + 1<<32,
		Label:      lbl,
		Entity:     ent,
		ClientRect: lbl.Rect,
	}
}

func labelFromEntry(l data.LabelEntry) *game.Label {
	out := &game.Label{
		Address:        game.Handle(l.Address),
		Valid:          true,
		Visible:        !l.Hidden,
		HasParentIndex: !l.Orphan,
		Rect:           l.Rect,
	}
	for _, c := range l.Children {
		out.Children = append(out.Children, labelFromEntry(c))
	}
	return out
}

// Step advances the simulation by one frame and refreshes focus state.
func (h *Host) Step() {
	h.clock.NextFrame(h.frameTime)
	h.refreshDistances()
	h.refreshFocus()
}

func (h *Host) refreshDistances() {
	if h.player == nil {
		return
	}
	for _, gl := range h.labels {
		if gl.Entity != nil {
			gl.Entity.DistancePlayer = gl.Entity.Pos.Distance(h.player.Pos)
		}
	}
}

func (h *Host) refreshFocus() {
	h.hover = game.Hover{}
	settled := h.cursorSet && h.clock.Frame()-h.cursorFrame >= h.focusLag
	local := game.Vec2{X: h.cursor.X - h.window.X, Y: h.cursor.Y - h.window.Y}
	for _, gl := range h.labels {
		under := settled && gl.Label != nil && gl.Label.Visible && underCursor(gl.Label, local)
		if gl.Entity != nil {
			gl.Entity.Targeted = under
		}
		if gl.Label != nil {
			gl.Label.Highlighted = under
		}
		if under && h.hover.Primary == 0 {
			h.hover.Primary = gl.Label.Address
		}
	}
}

func underCursor(l *game.Label, p game.Vec2) bool {
	if l.Rect.ContainsStrict(p) {
		return true
	}
	for _, c := range l.Children {
		if c.Visible && c.Rect.ContainsStrict(p) {
			return true
		}
	}
	return false
}

// ── game.World ──

func (h *Host) Inventory() ([]game.InventoryItem, bool) {
	if !h.invReady {
		return nil, false
	}
	return h.inventory, true
}

func (h *Host) Player() *game.Player { return h.player }

func (h *Host) VisibleItemLabels() []*game.GroundLabel {
	out := make([]*game.GroundLabel, 0, len(h.labels))
	for _, gl := range h.labels {
		if gl.Entity != nil && gl.Entity.Kind == game.KindItem && gl.Label != nil && gl.Label.Visible {
			out = append(out, gl)
		}
	}
	return out
}

func (h *Host) GroundLabels() []*game.GroundLabel { return h.labels }

func (h *Host) Entities() []*game.Entity {
	out := make([]*game.Entity, 0, len(h.labels))
	for _, gl := range h.labels {
		if gl.Entity != nil && gl.Entity.Valid {
			out = append(out, gl.Entity)
		}
	}
	return out
}

func (h *Host) Hover() game.Hover {
	if h.pinnedHover != nil {
		return *h.pinnedHover
	}
	return h.hover
}

func (h *Host) InventoryPanelVisible() bool { return h.panelOpen }

// ── game.Input ──

func (h *Host) KeyDown(k game.Key) bool { return h.held[k] }

func (h *Host) SetCursor(p game.Vec2) {
	if h.cursorSet && h.cursor == p {
		return
	}
	h.cursor = p
	h.cursorSet = true
	h.cursorFrame = h.clock.Frame()
	h.cursorMoves++
}

// Click consumes whatever the game currently reports as focused. Consumed
// objects leave the scene and their labels become invalid.
func (h *Host) Click() {
	for i, gl := range h.labels {
		if gl.Entity == nil || !gl.Entity.Targeted {
			continue
		}
		h.clicks = append(h.clicks, gl.Entity.Address)
		h.log.Debug("sim click", zap.Uint64("address", uint64(gl.Entity.Address)), zap.Stringer("kind", gl.Entity.Kind))
		if gl.Entity.Kind == game.KindPortal {
			h.portalEntered = true
			return
		}
		gl.Entity.Valid = false
		gl.Entity.Targeted = false
		invalidate(gl.Label)
		h.labels = append(h.labels[:i], h.labels[i+1:]...)
		return
	}
	h.clicks = append(h.clicks, 0)
}

func invalidate(l *game.Label) {
	if l == nil {
		return
	}
	l.Valid = false
	l.Visible = false
	l.Highlighted = false
	for _, c := range l.Children {
		invalidate(c)
	}
}

func (h *Host) WindowFocused() bool { return h.focused }

func (h *Host) WindowRect() game.Rect { return h.window }

// ── test and driver controls ──

func (h *Host) SetFocused(v bool) { h.focused = v }
func (h *Host) SetInventoryReady(v bool) { h.invReady = v }
func (h *Host) SetInventoryPanel(v bool) { h.panelOpen = v }
func (h *Host) SetPlayerMoving(v bool) { h.player.Moving = v }
func (h *Host) SetKey(k game.Key, v bool) { h.held[k] = v }
func (h *Host) SetPlayer(p *game.Player) { h.player = p }

// SetHover pins the hover state until ReleaseHover, overriding cursor focus.
func (h *Host) SetHover(hv game.Hover) { h.pinnedHover = &hv }
func (h *Host) ReleaseHover()          { h.pinnedHover = nil }
func (h *Host) Clicks() []game.Handle { return h.clicks }
func (h *Host) CursorMoves() int { return h.cursorMoves }
func (h *Host) PortalEntered() bool { return h.portalEntered }
func (h *Host) Clock() *Clock { return h.clock }
func (h *Host) Cursor() (game.Vec2, bool) { return h.cursor, h.cursorSet }

// Add places an extra ground label into the scene.
func (h *Host) Add(gl *game.GroundLabel) {
	h.labels = append(h.labels, gl)
	h.refreshDistances()
}

// Find returns the ground label of the entity at address.
func (h *Host) Find(address game.Handle) *game.GroundLabel {
	for _, gl := range h.labels {
		if gl.Entity != nil && gl.Entity.Address == address {
			return gl
		}
	}
	return nil
}

// Remaining returns the number of ground labels still in the scene.
func (h *Host) Remaining() int { return len(h.labels) }
