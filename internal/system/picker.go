package system

import (
	"time"

	coresys "github.com/lootkit/pickit/internal/core/system"
	"github.com/lootkit/pickit/internal/pickit"
)

// PickerSystem resumes the pick scheduler. Phase 2 (Update).
type PickerSystem struct {
	plugin *pickit.Plugin
}

func NewPickerSystem(plugin *pickit.Plugin) *PickerSystem {
	return &PickerSystem{plugin: plugin}
}

func (s *PickerSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PickerSystem) Update(_ time.Duration) {
	s.plugin.Render()
}
