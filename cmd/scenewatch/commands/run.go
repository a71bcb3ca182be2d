package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scenewatch/scenewatch/internal/api"
	"github.com/scenewatch/scenewatch/internal/config"
	"github.com/scenewatch/scenewatch/internal/history"
	"github.com/scenewatch/scenewatch/internal/logger"
	"github.com/scenewatch/scenewatch/internal/obs"
	"github.com/scenewatch/scenewatch/internal/rules"
	"github.com/scenewatch/scenewatch/internal/switcher"
	"github.com/scenewatch/scenewatch/internal/window"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start watching focus and switching scenes",
	Long: `Connect to OBS and start the focus poll loop.

Each tick samples the focused window, matches its title against the
configured application patterns, and switches the OBS scene bound to the
window's monitor. Identical focus never re-issues a command.`,
	Example: `  # Run with the default config
  scenewatch run

  # Run with a specific config file
  scenewatch run --config /path/to/config.yaml

  # Run with debug logging
  scenewatch run --verbose`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(logLevelFor(cfg.Settings.LogLevel), true)
	log := logger.WithComponent("run")

	resolver, err := buildResolver(cfg)
	if err != nil {
		return fmt.Errorf("failed to compile rules: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	// Initial connection, with configurable retry before giving up.
	client := obs.New(cfg.OBS.URL, cfg.OBS.Password)
	if err := connectWithRetry(ctx, client, cfg); err != nil {
		return err
	}
	defer client.Close()

	if scene, err := client.CurrentScene(ctx); err == nil {
		log.Info().Str("scene", scene).Msg("OBS program scene at startup")
	}

	source, err := window.NewX11Source()
	if err != nil {
		return fmt.Errorf("failed to initialize focus source: %w", err)
	}
	defer source.Close()

	engine := switcher.New(source, client, resolver, cfg.PollInterval())

	var server *api.Server
	if cfg.API.Enabled {
		server = api.NewServer(engine, cfg)
		go func() {
			if err := server.Start(cfg.API.Port); err != nil {
				log.Error().Err(err).Msg("Status API stopped")
			}
		}()
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()
		events := engine.Subscribe()
		defer engine.Unsubscribe(events)
		go history.Record(ctx, store, events)
	}

	// Hot reload: pattern and binding edits take effect without a restart.
	go func() {
		err := config.Watch(GetConfigFile(), ctx.Done(), func(next *config.Config) {
			resolver, err := buildResolver(next)
			if err != nil {
				log.Warn().Err(err).Msg("Reloaded config has invalid rules, keeping previous")
				return
			}
			engine.UpdateRules(resolver)
			if server != nil {
				server.SetConfig(next)
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config watcher unavailable")
		}
	}()

	if err := engine.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("Shutting down gracefully")
	return nil
}

func buildResolver(cfg *config.Config) (*rules.Resolver, error) {
	registry, err := rules.NewRegistry(cfg.Applications, cfg.MatchIgnoreCase())
	if err != nil {
		return nil, err
	}
	return rules.NewResolver(registry, cfg.MonitorScenes), nil
}

func connectWithRetry(ctx context.Context, client *obs.Client, cfg *config.Config) error {
	log := logger.WithComponent("run")

	var lastErr error
	for attempt := 1; attempt <= cfg.OBS.ConnectAttempts; attempt++ {
		if lastErr = client.Connect(ctx); lastErr == nil {
			return nil
		}
		log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", cfg.OBS.ConnectAttempts).
			Msg("OBS connection failed")
		if attempt == cfg.OBS.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.ConnectBackoff()):
		}
	}
	return fmt.Errorf("could not connect to obs after %d attempts: %w", cfg.OBS.ConnectAttempts, lastErr)
}
