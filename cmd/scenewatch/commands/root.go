package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "scenewatch",
		Short: "scenewatch - Focus-driven OBS scene switching",
		Long: `scenewatch watches which window is focused on your desktop and, when
its title matches a configured application pattern, switches the active
OBS scene bound to that window's monitor.

Features:
  • Title matching with ordered regex patterns per application
  • Per-monitor scene bindings (Xinerama monitor indices)
  • Idempotent switching - identical focus never re-issues a command
  • obs-websocket v5 with automatic reconnect
  • Config hot reload
  • Optional switch history and status API`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scenewatch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "shorthand for --log-level debug")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path, defaulting to
// ~/.config/scenewatch/config.yaml.
func GetConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(homeDir, ".config", "scenewatch", "config.yaml")
}

// logLevelFor resolves flag and config precedence: --verbose wins, then
// --log-level, then the config file's settings.log_level.
func logLevelFor(configured string) string {
	if verbose {
		return "debug"
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			return level
		}
	}
	if configured != "" {
		return configured
	}
	return "info"
}
