package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput  Phase = iota // 0: hotkeys, hovered loot
	PhaseEvents              // 1: deliver last tick's events
	PhaseUpdate              // 2: mode + pick scheduler
	PhaseOutput              // 3: debug output
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
