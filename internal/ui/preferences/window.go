package preferences

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"studyfocus/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	onSave     func(model.Settings) error
	work       *widget.Entry
	shortBreak *widget.Entry
	longBreak  *widget.Entry
	sessions   *widget.Entry
	autoBreaks *widget.Check
	autoFocus  *widget.Check
	errorLabel *widget.Label
}

// New creates a preferences window. onSave persists the settings; a
// returned error keeps the window open and is shown to the user.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings) error) *Window {
	window := app.NewWindow("studyfocus Settings")

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		work:       widget.NewEntry(),
		shortBreak: widget.NewEntry(),
		longBreak:  widget.NewEntry(),
		sessions:   widget.NewEntry(),
		autoBreaks: widget.NewCheck("Start breaks automatically", nil),
		autoFocus:  widget.NewCheck("Start the next focus session automatically", nil),
		errorLabel: widget.NewLabel(""),
	}
	prefs.errorLabel.Importance = widget.DangerImportance
	prefs.errorLabel.Wrapping = fyne.TextWrapWord
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Cycle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus length"), prefs.work, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break after"), prefs.sessions, widget.NewLabel("sessions")),
		prefs.autoBreaks,
		prefs.autoFocus,
		prefs.errorLabel,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.errorLabel.SetText("")
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 360))
	window.SetCloseIntercept(window.Hide)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces the form values, e.g. after the settings file
// changed on disk.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	form := FormFromSettings(settings)
	prefs.work.SetText(form.WorkMinutes)
	prefs.shortBreak.SetText(form.BreakMinutes)
	prefs.longBreak.SetText(form.LongBreakMinutes)
	prefs.sessions.SetText(form.Sessions)
	prefs.autoBreaks.SetChecked(form.AutoStartBreaks)
	prefs.autoFocus.SetChecked(form.AutoStartNextFocus)
}

func (prefs *Window) form() Form {
	return Form{
		WorkMinutes:        prefs.work.Text,
		BreakMinutes:       prefs.shortBreak.Text,
		LongBreakMinutes:   prefs.longBreak.Text,
		Sessions:           prefs.sessions.Text,
		AutoStartBreaks:    prefs.autoBreaks.Checked,
		AutoStartNextFocus: prefs.autoFocus.Checked,
	}
}

func (prefs *Window) handleSave() {
	settings, err := prefs.form().Settings()
	if err == nil && prefs.onSave != nil {
		err = prefs.onSave(settings)
	}
	if err != nil {
		prefs.errorLabel.SetText(err.Error())
		return
	}
	prefs.errorLabel.SetText("")
	prefs.window.Hide()
}
