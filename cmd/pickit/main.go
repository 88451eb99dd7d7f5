package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lootkit/pickit/internal/bridge"
	"github.com/lootkit/pickit/internal/config"
	"github.com/lootkit/pickit/internal/core/event"
	coresys "github.com/lootkit/pickit/internal/core/system"
	"github.com/lootkit/pickit/internal/data"
	"github.com/lootkit/pickit/internal/persist"
	"github.com/lootkit/pickit/internal/pickit"
	"github.com/lootkit/pickit/internal/rules"
	"github.com/lootkit/pickit/internal/sim"
	"github.com/lootkit/pickit/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// statsInterval is how many ticks pass between stats summaries.
const statsInterval = 600

func run() error {
	// 1. Load config
	cfgPath := "config/pickit.toml"
	if p := os.Getenv("PICKIT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Resolve the rule list, from Postgres when configured
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ruleList, closeDB, err := loadRules(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	defer closeDB()

	set := &rules.Set{}
	rulesReady := rules.LoadAndApply(set, cfg.Plugin.RulesDir, ruleList, log)

	// 4. Load the scene and build the host
	scene, err := data.LoadScene(cfg.Host.ScenePath)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	log.Info("scene loaded", zap.String("path", cfg.Host.ScenePath), zap.Int("entities", scene.Count()))

	clock := sim.NewClock(time.Now())
	host := sim.NewHost(scene, clock, cfg.Host.TickRate, log)

	// 5. Plugin, bridge and event subscribers
	bus := event.NewBus()
	subscribeLogging(bus, log)

	plugin := pickit.New(pickit.Deps{
		World:    host,
		Input:    host,
		Clock:    clock,
		Settings: &cfg.Plugin,
		Rules:    set,
		Bus:      bus,
		Log:      log,
	})

	reg := bridge.NewRegistry(log)
	plugin.RegisterBridge(reg)
	log.Info("bridge methods registered", zap.Strings("methods", reg.Names()))

	// 6. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(plugin))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewPickerSystem(plugin))
	stats := system.NewStatsSystem(bus, statsInterval, log)
	runner.Register(stats)

	// 7. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Host.TickRate)
	defer ticker.Stop()

	log.Info("pickit running", zap.Duration("tick", cfg.Host.TickRate), zap.Bool("enabled", cfg.Plugin.Enable))

	for {
		select {
		case <-rulesReady:
			rulesReady = nil
		case <-ticker.C:
			host.Step()
			runner.Tick(cfg.Host.TickRate)
			if cfg.Host.MaxTicks > 0 && runner.Ticks() >= uint64(cfg.Host.MaxTicks) {
				report(reg, stats, host, log)
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			report(reg, stats, host, log)
			return nil
		}
	}
}

// loadRules returns the configured rule list. With a DSN the list lives in
// Postgres and is seeded from the config file the first time.
func loadRules(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]rules.Rule, func(), error) {
	fromConfig := make([]rules.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		fromConfig = append(fromConfig, rules.Rule{Name: r.Name, Location: r.Location, Enabled: r.Enabled})
	}
	if cfg.Database.DSN == "" {
		return fromConfig, func() {}, nil
	}

	db, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	repo := persist.NewRuleRepo(db)

	n, err := repo.Count(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("count rules: %w", err)
	}
	if n == 0 && len(fromConfig) > 0 {
		if err := repo.ReplaceAll(ctx, fromConfig); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seed rules: %w", err)
		}
		log.Info("rule store seeded from config", zap.Int("rules", len(fromConfig)))
	}

	list, err := repo.LoadAll(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}
	return list, db.Close, nil
}

func subscribeLogging(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.ModeChanged) {
		log.Info("work mode changed", zap.String("from", ev.From), zap.String("to", ev.To))
	})
	event.Subscribe(bus, func(ev event.TargetUnreachable) {
		log.Debug("target unreachable", zap.Uint64("address", uint64(ev.Address)))
	})
	event.Subscribe(bus, func(ev event.PortalHazard) {
		log.Debug("portal hazard", zap.Uint64("target", uint64(ev.Target)), zap.Uint64("portal", uint64(ev.Portal)))
	})
}

// report logs the final counters and asks the plugin, through the bridge,
// whether a pick was still in flight.
func report(reg *bridge.Registry, stats *system.StatsSystem, host *sim.Host, log *zap.Logger) {
	active := false
	if isActive, err := bridge.Lookup[func() bool](reg, pickit.MethodIsActive); err == nil {
		if err := reg.SafeCall(pickit.MethodIsActive, func() { active = isActive() }); err != nil {
			log.Warn("bridge call failed", zap.Error(err))
		}
	}
	s := stats.Snapshot()
	log.Info("pickit stopped",
		zap.Int("picks", s.Picks),
		zap.Int("clicks", s.Clicks),
		zap.Int("clicked_objects", len(host.Clicks())),
		zap.Int("remaining_labels", host.Remaining()),
		zap.Bool("pick_in_flight", active),
	)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
