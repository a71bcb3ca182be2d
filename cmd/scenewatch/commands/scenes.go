package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scenewatch/scenewatch/internal/config"
	"github.com/scenewatch/scenewatch/internal/logger"
	"github.com/scenewatch/scenewatch/internal/obs"
	"github.com/scenewatch/scenewatch/internal/rules"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List scenes known to OBS",
	Long: `Connect to OBS, list its scenes, and flag configured scenes that OBS
does not know. A bound scene missing from OBS makes every switch to it
fail at runtime.`,
	Example: `  # List scenes against the default config
  scenewatch scenes`,
	RunE: runScenes,
}

func init() {
	rootCmd.AddCommand(scenesCmd)
}

func runScenes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(logLevelFor(cfg.Settings.LogLevel), true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := obs.New(cfg.OBS.URL, cfg.OBS.Password)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	available, err := client.Scenes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scenes: %w", err)
	}
	current, err := client.CurrentScene(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current scene: %w", err)
	}

	known := make(map[string]struct{}, len(available))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tACTIVE")
	for _, scene := range available {
		known[scene] = struct{}{}
		active := ""
		if scene == current {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", scene, active)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	missing := 0
	for _, scene := range rules.Scenes(cfg.MonitorScenes) {
		if _, ok := known[scene]; !ok {
			missing++
			fmt.Printf("WARNING: configured scene %q not found in OBS\n", scene)
		}
	}
	if missing == 0 {
		fmt.Println("\nAll configured scenes exist in OBS.")
	}
	return nil
}
