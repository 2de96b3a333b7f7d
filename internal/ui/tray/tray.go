package tray

import (
	"fmt"

	"fyne.io/fyne/v2"

	"studyfocus/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences func()
	OnToggle      func()
	OnReset       func()
	OnMode        func(model.Mode)
	OnQuit        func()
}

// MenuHost is the part of desktop.App the tray needs.
type MenuHost interface {
	SetSystemTrayMenu(menu *fyne.Menu)
}

// Manager keeps the tray menu in sync with the timer.
type Manager struct {
	host       MenuHost
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	cycleItem  *fyne.MenuItem
	toggleItem *fyne.MenuItem
	resetItem  *fyne.MenuItem
	modeItem   *fyne.MenuItem
	menu       *fyne.Menu
}

// New creates a tray manager and installs its menu.
func New(host MenuHost, callbacks Callbacks) *Manager {
	manager := &Manager{
		host:      host,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Focus 25:00", nil)
	manager.statusItem.Disabled = true
	manager.cycleItem = fyne.NewMenuItem("Session 1 of 4", nil)
	manager.cycleItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start", func() {
		if manager.callbacks.OnToggle != nil {
			manager.callbacks.OnToggle()
		}
	})
	manager.resetItem = fyne.NewMenuItem("Reset", func() {
		if manager.callbacks.OnReset != nil {
			manager.callbacks.OnReset()
		}
	})

	manager.modeItem = fyne.NewMenuItem("Switch to", nil)
	manager.modeItem.ChildMenu = fyne.NewMenu("",
		manager.modeEntry(model.ModeWork),
		manager.modeEntry(model.ModeBreak),
		manager.modeEntry(model.ModeLongBreak),
	)

	preferences := fyne.NewMenuItem("Preferences", func() {
		if manager.callbacks.OnPreferences != nil {
			manager.callbacks.OnPreferences()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	quit.IsQuit = true

	manager.menu = fyne.NewMenu("studyfocus",
		manager.statusItem,
		manager.cycleItem,
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		manager.resetItem,
		manager.modeItem,
		fyne.NewMenuItemSeparator(),
		preferences,
		quit,
	)
	manager.refresh()
	return manager
}

// Menu returns the installed menu.
func (manager *Manager) Menu() *fyne.Menu {
	return manager.menu
}

// Update renders state into the menu labels.
func (manager *Manager) Update(state model.TimerState, settings model.Settings) {
	manager.statusItem.Label = StatusLabel(state)
	manager.cycleItem.Label = fmt.Sprintf("Session %d of %d, %d done",
		state.SessionIndex+1, settings.SessionsUntilLongBreak, state.CompletedWorkSessions)
	if state.Running {
		manager.toggleItem.Label = "Pause"
	} else {
		manager.toggleItem.Label = "Start"
	}
	for _, item := range manager.modeItem.ChildMenu.Items {
		item.Checked = item.Label == ModeLabel(state.Mode)
	}
	manager.refresh()
}

func (manager *Manager) modeEntry(mode model.Mode) *fyne.MenuItem {
	return fyne.NewMenuItem(ModeLabel(mode), func() {
		if manager.callbacks.OnMode != nil {
			manager.callbacks.OnMode(mode)
		}
	})
}

func (manager *Manager) refresh() {
	if manager.host != nil {
		manager.host.SetSystemTrayMenu(manager.menu)
	}
}

// ModeLabel is the human name of a mode.
func ModeLabel(mode model.Mode) string {
	switch mode {
	case model.ModeBreak:
		return "Short break"
	case model.ModeLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

// StatusLabel renders mode and remaining time, e.g. "Focus 24:59 (paused)".
func StatusLabel(state model.TimerState) string {
	label := fmt.Sprintf("%s %s", ModeLabel(state.Mode), FormatClock(state.RemainingSeconds))
	if !state.Running && state.SessionStartTimestamp != nil {
		label += " (paused)"
	}
	return label
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
