package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/config"
	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	coresys "github.com/l1jgo/hecs/internal/core/system"
	"github.com/l1jgo/hecs/internal/data"
	"github.com/l1jgo/hecs/internal/metrics"
	"github.com/l1jgo/hecs/internal/scripting"
	"github.com/l1jgo/hecs/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              hecsd  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      hierarchical entity-component        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main daemon logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/hecsd.toml"
	if p := os.Getenv("HECS_CONFIG"); p != "" {
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

	printBanner()

	// 3. Build systems and engine
	printSection("engine")
	specs, err := systemSpecs(cfg.Systems, log)
	if err != nil {
		return err
	}

	bus := event.NewBus()
	opts := []ecs.Option{ecs.WithLogger(log)}
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		opts = append(opts, ecs.WithObserver(collector))
	}

	types := append(append([]string{}, component.Builtin...), cfg.Engine.ComponentTypes...)
	engine, err := ecs.New(types, specs, bus, opts...)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer closeSystems(engine, log)

	for _, s := range cfg.Systems {
		if !s.IsActive() {
			if err := engine.InactivateSystemOfType(s.Type); err != nil {
				return fmt.Errorf("inactivate system %s: %w", s.Type, err)
			}
		}
	}
	printStat("component types", len(types))
	printStat("systems", len(specs))

	if err := seed(engine, cfg.Engine.WorldSeed); err != nil {
		return fmt.Errorf("seed entities: %w", err)
	}
	printStat("entities", engine.EntityCount())
	printOK("engine ready")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Metrics endpoint
	if collector != nil {
		printSection("metrics")
		srv := serveMetrics(cfg.Metrics.BindAddress, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown", zap.Error(err))
			}
		}()
		printOK("listening on " + cfg.Metrics.BindAddress)
		fmt.Println()
	}

	// 5. Tick loop: deliver posted events, then advance the engine.
	runner := coresys.NewRunner(log)
	runner.Register("bus", func(time.Duration) error { return bus.Flush() })
	runner.Register("engine", engine.Update)

	printReady(fmt.Sprintf("running at %s per tick, Ctrl+C to stop", cfg.Engine.TickRate))
	loopErr := runner.Run(ctx, cfg.Engine.TickRate)

	// Let every active system see its Exit before the process goes away.
	for _, typ := range engine.SystemTypes() {
		_ = engine.InactivateSystemOfType(typ)
	}
	if err := engine.Update(0); err != nil {
		log.Error("final tick", zap.Error(err))
	}
	log.Info("hecsd stopped",
		zap.Uint64("ticks", runner.Ticks()),
		zap.Int("entities", engine.EntityCount()))
	return loopErr
}

// systemSpecs turns config entries into engine registrations.
func systemSpecs(systems []config.SystemConfig, log *zap.Logger) ([]ecs.SystemSpec, error) {
	specs := make([]ecs.SystemSpec, 0, len(systems))
	for _, s := range systems {
		if s.Script != "" {
			specs = append(specs, ecs.SystemSpec{
				Type: s.Type,
				New:  scripting.New,
				Args: []any{s.Script, log.Named("lua")},
			})
			continue
		}
		ctor, err := system.Builtin(s.Builtin)
		if err != nil {
			return nil, fmt.Errorf("system %s: %w", s.Type, err)
		}
		specs = append(specs, ecs.SystemSpec{Type: s.Type, New: ctor, Args: []any{log}})
	}
	return specs, nil
}

// seed spawns the configured world seed, or one spawner so the built-in
// systems have work to do.
func seed(engine *ecs.Engine, path string) error {
	if path != "" {
		world, err := data.LoadWorldSeed(path)
		if err != nil {
			return err
		}
		return world.Spawn(engine)
	}

	nest, err := engine.CreateEntity(ecs.Nil, "nest")
	if err != nil {
		return err
	}
	for _, c := range []ecs.Component{
		&component.Transform{},
		&component.Spawner{
			Interval:      time.Second,
			ChildLifetime: 5 * time.Second,
			Speed:         1,
		},
	} {
		if err := engine.AddComponentToEntity(c, nest); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, c *metrics.Collector, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}

// closeSystems releases resources held by systems, such as Lua VMs.
func closeSystems(engine *ecs.Engine, log *zap.Logger) {
	for _, typ := range engine.SystemTypes() {
		sys, err := engine.GetSystemOfType(typ)
		if err != nil {
			continue
		}
		if c, ok := sys.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn("close system", zap.String("type", typ), zap.Error(err))
			}
		}
	}
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
