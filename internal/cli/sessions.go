package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studyfocus/internal/core/model"
	"studyfocus/internal/storage"
	"studyfocus/internal/ui/tray"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded focus sessions",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().Int("limit", 20, "Number of sessions to show")
}

func runSessions(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.OpenSessionStore(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), cfg.UserID, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	printSessions(cmd.OutOrStdout(), records)
	return nil
}

func printSessions(w io.Writer, records []model.SessionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}

	fmt.Fprintf(w, "Recent sessions (%d):\n\n", len(records))
	for _, record := range records {
		status := "partial"
		if record.Completed {
			status = "completed"
		} else if record.Final {
			status = "abandoned"
		}
		fmt.Fprintf(w, "  %s  %-11s  %6s  %-9s  %s\n",
			record.CreatedAt.Local().Format("2006-01-02 15:04"),
			tray.ModeLabel(record.SessionType),
			tray.FormatClock(record.DurationSeconds),
			status,
			record.Goal)
	}
}
