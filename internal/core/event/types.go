package event

import "github.com/lootkit/pickit/internal/game"

// ModeChanged is emitted when the derived operating mode changes.
type ModeChanged struct {
	From string
	To   string
}

// PickStarted is emitted when the scheduler commits to a target.
type PickStarted struct {
	Address  game.Handle
	Kind     game.Kind
	Distance float64
	Attempt  int // pick attempts on this entity, including this one
}

// ClickIssued is emitted for every confirmed click.
type ClickIssued struct {
	Address game.Handle
	Click   int // 1-based click number within the attempt
}

// TargetUnreachable is emitted when a target's label stopped being clickable.
type TargetUnreachable struct {
	Address game.Handle
}

// PortalHazard is emitted when a click was withheld because a portal had focus.
type PortalHazard struct {
	Target game.Handle
	Portal game.Handle
}
