package system

import (
	"time"

	coresys "github.com/lootkit/pickit/internal/core/system"
	"github.com/lootkit/pickit/internal/pickit"
)

// InputSystem runs the plugin's per-frame input handling. Phase 0 (Input).
type InputSystem struct {
	plugin *pickit.Plugin
}

func NewInputSystem(plugin *pickit.Plugin) *InputSystem {
	return &InputSystem{plugin: plugin}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.plugin.Tick()
}
