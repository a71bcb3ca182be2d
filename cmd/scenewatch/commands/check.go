package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scenewatch/scenewatch/internal/config"
	"github.com/scenewatch/scenewatch/internal/rules"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Long: `Load the configuration, compile every pattern, and verify the monitor
bindings, without connecting to OBS or the display server.`,
	Example: `  # Check the default config
  scenewatch check

  # Check a specific file
  scenewatch check --config /path/to/config.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	if _, err := rules.NewRegistry(cfg.Applications, cfg.MatchIgnoreCase()); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	fmt.Printf("Config OK: %s\n\n", path)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APPLICATION\tPATTERNS")
	for _, app := range cfg.Applications {
		fmt.Fprintf(w, "%s\t%d\n", app.Name, len(app.Patterns))
	}
	fmt.Fprintln(w, "\nMONITOR\tSCENE")
	for _, ms := range cfg.MonitorScenes {
		fmt.Fprintf(w, "%d\t%s\n", ms.Monitor, ms.Scene)
	}
	return w.Flush()
}
