package data

import (
	"fmt"
	"os"

	"github.com/lootkit/pickit/internal/game"
	"gopkg.in/yaml.v3"
)

// PosEntry is a world position in a scene file.
type PosEntry struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p PosEntry) Vec3() game.Vec3 { return game.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// LabelEntry describes an on-screen label and its child elements.
type LabelEntry struct {
	Address  uint64       `yaml:"address"`
	Rect     game.Rect    `yaml:"rect"`
	Hidden   bool         `yaml:"hidden"`
	Orphan   bool         `yaml:"orphan"` // no index in parent
	Children []LabelEntry `yaml:"children"`
}

// EntityEntry describes one world entity with its ground label.
type EntityEntry struct {
	Address    uint64     `yaml:"address"`
	Kind       string     `yaml:"kind"` // item, chest, corpse, portal, monster
	Path       string     `yaml:"path"`
	BaseName   string     `yaml:"base_name"`
	Pos        PosEntry   `yaml:"pos"`
	Components []string   `yaml:"components"`
	Hostile    bool       `yaml:"hostile"`
	Dead       bool       `yaml:"dead"`
	Hidden     bool       `yaml:"hidden"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Label      LabelEntry `yaml:"label"`
}

// InventoryEntry is an item already sitting in the player's inventory.
type InventoryEntry struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// PlayerEntry holds the local player state.
type PlayerEntry struct {
	Pos    PosEntry `yaml:"pos"`
	Moving bool     `yaml:"moving"`
}

// Scene is a scripted snapshot of the game used by the simulated host.
type Scene struct {
	Window    game.Rect        `yaml:"window"`
	Player    PlayerEntry      `yaml:"player"`
	Inventory []InventoryEntry `yaml:"inventory"`
	// FocusLagFrames is how many frames the game takes to report focus after
	// the cursor lands on a label.
	FocusLagFrames int           `yaml:"focus_lag_frames"`
	HeldKeys       []string      `yaml:"held_keys"`
	Entities       []EntityEntry `yaml:"entities"`
}

// LoadScene loads a scene description from a YAML file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return s, nil
}

// ParseScene decodes and validates scene YAML.
func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Window.W <= 0 || s.Window.H <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %.0fx%.0f", s.Window.W, s.Window.H)
	}
	seen := make(map[uint64]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e.Address == 0 {
			return nil, fmt.Errorf("entity %d: address is required", i)
		}
		if seen[e.Address] {
			return nil, fmt.Errorf("entity %d: duplicate address %d", i, e.Address)
		}
		seen[e.Address] = true
		if _, err := ParseKind(e.Kind); err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		for _, c := range e.Components {
			if _, err := ParseComponent(c); err != nil {
				return nil, fmt.Errorf("entity %d: %w", i, err)
			}
		}
	}
	return &s, nil
}

// Count returns the number of entities in the scene.
func (s *Scene) Count() int {
	return len(s.Entities)
}

// ParseKind maps a scene kind name to game.Kind.
func ParseKind(name string) (game.Kind, error) {
	switch name {
	case "item", "":
		return game.KindItem, nil
	case "chest":
		return game.KindChest, nil
	case "corpse":
		return game.KindCorpse, nil
	case "portal":
		return game.KindPortal, nil
	case "monster":
		return game.KindMonster, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", name)
}

// ParseComponent maps a scene component name to game.Component.
func ParseComponent(name string) (game.Component, error) {
	switch name {
	case "targetable":
		return game.CompTargetable, nil
	case "chest":
		return game.CompChest, nil
	case "monster":
		return game.CompMonster, nil
	case "render":
		return game.CompRender, nil
	case "actor":
		return game.CompActor, nil
	}
	return 0, fmt.Errorf("unknown component %q", name)
}
