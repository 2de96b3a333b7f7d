// Package overlay shows the break reminder window while a break segment
// is current.
package overlay

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"studyfocus/internal/core/model"
	"studyfocus/internal/ui/tray"
)

// Actions defines the window button handlers.
type Actions struct {
	OnStart func()
	OnSkip  func()
}

// Window is the break reminder.
type Window struct {
	window      fyne.Window
	actions     Actions
	background  *canvas.Rectangle
	titleLabel  *canvas.Text
	hintLabel   *canvas.Text
	timerLabel  *canvas.Text
	startButton *widget.Button
	skipButton  *widget.Button
	visible     bool
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the hidden break window. opacity is the background alpha.
func New(app fyne.App, opacity uint8, actions Actions) *Window {
	window := app.NewWindow("studyfocus")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Undecorated window without native frame buttons.
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	overlay := &Window{
		window:     window,
		actions:    actions,
		background: canvas.NewRectangle(color.NRGBA{R: 18, G: 24, B: 38, A: opacity}),
		titleLabel: canvas.NewText("Short break", white),
		hintLabel:  canvas.NewText("Step away from the desk", white),
		timerLabel: canvas.NewText("05:00", color.NRGBA{R: 232, G: 190, B: 66, A: 255}),
	}
	overlay.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	overlay.titleLabel.TextSize = 21
	overlay.hintLabel.TextSize = 14
	overlay.timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	overlay.timerLabel.TextSize = 32

	overlay.startButton = widget.NewButton("Start break", func() {
		if overlay.actions.OnStart != nil {
			overlay.actions.OnStart()
		}
	})
	overlay.skipButton = widget.NewButton("Skip break", func() {
		if overlay.actions.OnSkip != nil {
			overlay.actions.OnSkip()
		}
	})

	content := container.NewPadded(container.NewVBox(
		overlay.titleLabel,
		overlay.hintLabel,
		overlay.timerLabel,
		container.NewHBox(overlay.startButton, layout.NewSpacer(), overlay.skipButton),
	))
	window.SetContent(container.NewStack(overlay.background, content))
	window.Resize(fyne.NewSize(320, 180))
	window.CenterOnScreen()
	return overlay
}

// Update shows the window during breaks and hides it during focus.
func (overlay *Window) Update(state model.TimerState) {
	if state.Mode == model.ModeWork {
		overlay.hide()
		return
	}

	overlay.titleLabel.Text = tray.ModeLabel(state.Mode)
	if state.Mode == model.ModeLongBreak {
		overlay.hintLabel.Text = "Cycle done. Take a real rest"
	} else {
		overlay.hintLabel.Text = "Step away from the desk"
	}
	overlay.timerLabel.Text = tray.FormatClock(state.RemainingSeconds)
	if state.Running {
		overlay.startButton.Hide()
	} else {
		overlay.startButton.Show()
	}
	overlay.titleLabel.Refresh()
	overlay.hintLabel.Refresh()
	overlay.timerLabel.Refresh()

	if !overlay.visible {
		overlay.visible = true
		overlay.window.Show()
	}
}

// Visible reports whether the window is shown.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

func (overlay *Window) hide() {
	if !overlay.visible {
		return
	}
	overlay.visible = false
	overlay.window.Hide()
}
