//go:build unix

package platform

import (
	"os"
	"os/signal"
	"syscall"
)

// NewResumeSignal reports a background/foreground pair every time the
// process is continued after SIGSTOP or a terminal suspend. Close stops
// listening.
func NewResumeSignal() *ResumeSignal {
	resume := &ResumeSignal{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(resume.signals, syscall.SIGCONT)
	go resume.loop()
	return resume
}

func (resume *ResumeSignal) loop() {
	for {
		select {
		case <-resume.done:
			return
		case <-resume.signals:
			resume.emit(false)
			resume.emit(true)
		}
	}
}

// Close detaches the signal handler.
func (resume *ResumeSignal) Close() {
	resume.closeOnce.Do(func() {
		signal.Stop(resume.signals)
		close(resume.done)
	})
}
