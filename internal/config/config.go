package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Plugin   PluginConfig   `toml:"plugin"`
	Rules    []RuleConfig   `toml:"pickit_rules"`
	Host     HostConfig     `toml:"host"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// PluginConfig holds every user-facing pickit setting.
type PluginConfig struct {
	Enable                     bool   `toml:"enable"`
	ShowInventoryView          bool   `toml:"show_inventory_view"`
	ProfilerHotkey             string `toml:"profiler_hotkey"`
	PickUpKey                  string `toml:"pick_up_key"`
	PickUpWhenInventoryIsFull  bool   `toml:"pick_up_when_inventory_is_full"`
	PickupRange                int    `toml:"pickup_range"`                   // 1-1000
	IgnoreMoving               bool   `toml:"ignore_moving"`
	ItemDistanceToIgnoreMoving int    `toml:"item_distance_to_ignore_moving"` // 0-1000
	PauseBetweenClicks         int    `toml:"pause_between_clicks"`           // ms, 0-500
	LazyLooting                bool   `toml:"lazy_looting"`
	NoLazyLootingWhileEnemy    bool   `toml:"no_lazy_looting_while_enemy_close"`
	LazyLootingPauseKey        string `toml:"lazy_looting_pause_key"`
	PickUpEverything           bool   `toml:"pick_up_everything"`
	ClickChests                bool   `toml:"click_chests"`
	ClickQuestChests           bool   `toml:"click_quest_chests"`
	ItemizeCorpses             bool   `toml:"itemize_corpses"`
	AutoClickHoveredLoot       bool   `toml:"auto_click_hovered_loot_in_range"`
	DebugHighlight             bool   `toml:"debug_highlight"`
	RulesDir                   string `toml:"rules_dir"`
	FilterTest                 string `toml:"filter_test"` // inline Lua rule checked against the hovered item

	// IgnoredCells lists inventory cells as [row, col] that are treated as occupied.
	IgnoredCells [][2]int `toml:"ignored_cells"`
}

// RuleConfig is one persisted pickit rule: a named predicate file.
type RuleConfig struct {
	Name     string `toml:"name"`
	Location string `toml:"location"`
	Enabled  bool   `toml:"enabled"`
}

type HostConfig struct {
	TickRate  time.Duration `toml:"tick_rate"`
	ScenePath string        `toml:"scene_path"`
	MaxTicks  int           `toml:"max_ticks"` // 0 = run until interrupted
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty = rules come from [[pickit_rules]]
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and clamps ranged settings.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Plugin.clamp()
	for _, cell := range cfg.Plugin.IgnoredCells {
		if cell[0] < 0 || cell[0] >= InventoryRows || cell[1] < 0 || cell[1] >= InventoryCols {
			return nil, fmt.Errorf("ignored cell %v outside %dx%d inventory", cell, InventoryRows, InventoryCols)
		}
	}
	return cfg, nil
}

// Main inventory dimensions.
const (
	InventoryRows = 5
	InventoryCols = 12
)

func (p *PluginConfig) clamp() {
	p.PickupRange = clampInt(p.PickupRange, 1, 1000)
	p.ItemDistanceToIgnoreMoving = clampInt(p.ItemDistanceToIgnoreMoving, 0, 1000)
	p.PauseBetweenClicks = clampInt(p.PauseBetweenClicks, 0, 500)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Defaults returns the configuration used when no file overrides a value.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Plugin: PluginConfig{
			Enable:                     false,
			ShowInventoryView:          true,
			PickUpKey:                  "F",
			PickupRange:                600,
			ItemDistanceToIgnoreMoving: 20,
			PauseBetweenClicks:         100,
			LazyLootingPauseKey:        "Space",
			ClickChests:                true,
			ClickQuestChests:           true,
			ItemizeCorpses:             true,
			RulesDir:                   "rules",
		},
		Host: HostConfig{
			TickRate:  16 * time.Millisecond,
			ScenePath: "data/yaml/scene.yaml",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
