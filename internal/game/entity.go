package game

import "fmt"

// Handle is the stable address of an in-game object or UI element. Zero means "none".
type Handle uint64

// Kind classifies a world entity.
type Kind int

const (
	KindItem Kind = iota
	KindChest
	KindCorpse
	KindPortal
	KindMonster
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "Item"
	case KindChest:
		return "Chest"
	case KindCorpse:
		return "Corpse"
	case KindPortal:
		return "Portal"
	case KindMonster:
		return "Monster"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Component is a bit in an entity's structural component set.
type Component uint32

const (
	CompTargetable Component = 1 << iota
	CompChest
	CompMonster
	CompRender
	CompActor
)

// Entity is a scanned world object. The scanner owns it; the core only keeps
// references for the duration of a tick.
type Entity struct {
	Address        Handle
	Kind           Kind
	Path           string
	BaseName       string
	Pos            Vec3
	DistancePlayer float64
	Valid          bool
	Hidden         bool
	Hostile        bool
	Alive          bool
	Components     Component
	Targeted       bool // Targetable.isTargeted; meaningful only with CompTargetable
	Width          int  // inventory footprint in cells
	Height         int
}

func (e *Entity) Has(c Component) bool {
	return e != nil && e.Components&c == c
}

// TargetedFlag returns the Targetable component's focus flag. ok is false when
// the entity has no Targetable component.
func (e *Entity) TargetedFlag() (targeted bool, ok bool) {
	if !e.Has(CompTargetable) {
		return false, false
	}
	return e.Targeted, true
}

// Label is the on-screen element of an entity.
type Label struct {
	Address        Handle
	Valid          bool
	Visible        bool
	HasParentIndex bool
	Rect           Rect
	Highlighted    bool
	Children       []*Label
}

// Child walks the child tree by index path. Returns nil when any step is missing.
func (l *Label) Child(indices ...int) *Label {
	cur := l
	for _, i := range indices {
		if cur == nil || i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}

// GroundLabel pairs an entity lying in the world with its on-screen label.
type GroundLabel struct {
	Address    Handle
	Label      *Label
	Entity     *Entity
	ClientRect Rect
}

// Player is the local character as seen by the scanner.
type Player struct {
	Pos    Vec3
	Moving bool
}

// InventoryItem occupies a rectangle of cells in the main inventory.
type InventoryItem struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Hover lists every source that may name the element under the cursor.
type Hover struct {
	Primary Handle
	Element Handle
	Tooltip Handle
}
