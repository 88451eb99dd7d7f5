package game

import "time"

// Key names a keyboard key or mouse button as understood by the Input host.
type Key string

const (
	KeyNone    Key = ""
	KeyEscape  Key = "Escape"
	KeyLButton Key = "LButton"
)

// World is the scanning collaborator. Every call returns data for the current
// tick only.
type World interface {
	// Inventory returns the main inventory contents; ok is false while the
	// server inventory has not been read yet.
	Inventory() (items []InventoryItem, ok bool)
	// Player returns nil when the local player is not available.
	Player() *Player
	// VisibleItemLabels lists the ground item labels currently drawn on screen.
	VisibleItemLabels() []*GroundLabel
	// GroundLabels lists every ground label, including chests, corpses and portals.
	GroundLabels() []*GroundLabel
	// Entities lists the valid entities known to the scanner.
	Entities() []*Entity
	Hover() Hover
	InventoryPanelVisible() bool
}

// Input is the injection collaborator.
type Input interface {
	KeyDown(k Key) bool
	SetCursor(p Vec2)
	Click()
	WindowFocused() bool
	WindowRect() Rect
}

// Clock is the tick clock. Frame increases by one per rendered frame.
type Clock interface {
	Now() time.Time
	Frame() uint64
}
