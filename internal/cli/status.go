package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"studyfocus/internal/core/model"
	"studyfocus/internal/core/pomodoro"
	"studyfocus/internal/storage"
	"studyfocus/internal/ui/tray"
	"studyfocus/internal/web"
)

const statusTimeout = 2 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer state",
	Long: `Show the timer state of the running instance. When no instance answers,
the last saved snapshot is shown instead.`,
	RunE: runStatus,
}

// statusReport is the state plus where it was read from.
type statusReport struct {
	Source  string        `json:"source"`
	SavedAt *time.Time    `json:"savedAt,omitempty"`
	State   web.StateView `json:"state"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	var report statusReport
	if cfg.Web.Enabled {
		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		view, err := fetchState(ctx, http.DefaultClient, "http://"+cfg.Web.Addr)
		cancel()
		if err == nil {
			report = statusReport{Source: "live", State: view}
		}
	}

	if report.Source == "" {
		kv, err := storage.NewFileStore(cfg.SnapshotDir())
		if err != nil {
			return err
		}
		settings, err := storage.LoadSettings(cfg.SettingsFile)
		if err != nil {
			return err
		}
		report = snapshotReport(storage.NewSnapshotStore(kv, cfg.UserID, nil, nil), settings)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printStatus(cmd.OutOrStdout(), report)
	return nil
}

// fetchState reads /api/state from a running instance at baseURL.
func fetchState(ctx context.Context, client *http.Client, baseURL string) (web.StateView, error) {
	var view web.StateView
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/state", nil)
	if err != nil {
		return view, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return view, fmt.Errorf("query running instance: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return view, fmt.Errorf("query running instance: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("decode state: %w", err)
	}
	return view, nil
}

// snapshotReport describes the saved snapshot, or the fresh state when
// there is none.
func snapshotReport(snapshots pomodoro.SnapshotStore, settings model.Settings) statusReport {
	snapshot, ok := snapshots.Load()
	if !ok {
		return statusReport{Source: "fresh", State: web.NewStateView(model.FreshState(settings), settings)}
	}
	savedAt := snapshot.SavedAt
	return statusReport{
		Source:  "snapshot",
		SavedAt: &savedAt,
		State:   web.NewStateView(snapshot.State.Normalize(settings), settings),
	}
}

func printStatus(w io.Writer, report statusReport) {
	view := report.State
	state := "stopped"
	switch {
	case view.Running:
		state = "running"
	case view.SessionStartTimestamp != nil:
		state = "paused"
	}

	fmt.Fprintf(w, "%s %s (%s)\n", tray.ModeLabel(view.Mode), tray.FormatClock(view.RemainingSeconds), state)
	fmt.Fprintf(w, "Session %d of %d, %d focus sessions completed\n",
		view.SessionIndex+1, view.SessionsUntilLongBreak, view.CompletedWorkSessions)
	fmt.Fprintf(w, "Focus today: %d min\n", view.TotalFocusSecondsToday/60)
	if view.Goal != "" {
		fmt.Fprintf(w, "Goal: %s\n", view.Goal)
	}
	switch report.Source {
	case "snapshot":
		fmt.Fprintf(w, "Not running; snapshot saved %s\n", report.SavedAt.Format("2006-01-02 15:04:05"))
	case "fresh":
		fmt.Fprintln(w, "Not running; no saved state")
	}
}
