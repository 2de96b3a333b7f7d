package platform

import (
	"os"
	"sync"
)

// ResumeSignal turns process continuation into foreground transitions.
type ResumeSignal struct {
	signalHub

	signals   chan os.Signal
	done      chan struct{}
	closeOnce sync.Once
}
