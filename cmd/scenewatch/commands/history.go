package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scenewatch/scenewatch/internal/config"
	"github.com/scenewatch/scenewatch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scene switches",
	Long:  `Read the switch history database and print recent activity and per-scene totals.`,
	Example: `  # Last 20 switches plus totals for the past day
  scenewatch history

  # Last 50 switches over the past week
  scenewatch history --limit 50 --since 168h`,
	RunE: runHistory,
}

var (
	historyLimit int
	historySince time.Duration
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of recent switches to show")
	historyCmd.Flags().DurationVar(&historySince, "since", 24*time.Hour, "window for per-scene totals")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMONITOR\tAPPLICATION\tSCENE\tOK")
	for _, rec := range records {
		ok := "yes"
		if !rec.Success {
			ok = "no: " + rec.Detail
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Monitor, rec.Application, rec.Scene, ok)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totals, err := store.Totals(time.Now().Add(-historySince))
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		return nil
	}

	fmt.Printf("\nTotals over the last %s:\n", historySince)
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tSWITCHES\tFAILURES\tLAST SEEN")
	for _, t := range totals {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			t.Scene, t.Switches, t.Failures, t.LastSeen.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
