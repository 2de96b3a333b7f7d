// Package cli wires the studyfocus commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:   "studyfocus",
		Short: "studyfocus - Pomodoro focus cycles with session analytics",
		Long: `studyfocus runs a Pomodoro cycle engine that survives restarts, catches up
after sleep and records focus sessions to SQLite and an optional webhook.

Run it headless with a local HTTP control API, or as a desktop tray app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is config.yaml in the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(desktopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
