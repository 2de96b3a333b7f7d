package platform

// Lifecycle is the part of fyne.Lifecycle that reports foreground changes.
type Lifecycle interface {
	SetOnEnteredForeground(func())
	SetOnExitedForeground(func())
}

// LifecycleSignal forwards desktop app foreground changes.
type LifecycleSignal struct {
	signalHub
}

// NewLifecycleSignal hooks lifecycle. It replaces any foreground callbacks
// already registered on it.
func NewLifecycleSignal(lifecycle Lifecycle) *LifecycleSignal {
	signal := &LifecycleSignal{}
	lifecycle.SetOnEnteredForeground(func() { signal.emit(true) })
	lifecycle.SetOnExitedForeground(func() { signal.emit(false) })
	return signal
}
