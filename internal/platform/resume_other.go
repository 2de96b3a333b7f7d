//go:build !unix

package platform

// NewResumeSignal returns a signal that never fires; the host has no
// process continue notification.
func NewResumeSignal() *ResumeSignal {
	return &ResumeSignal{done: make(chan struct{})}
}

// Close is a no-op.
func (resume *ResumeSignal) Close() {
	resume.closeOnce.Do(func() {
		close(resume.done)
	})
}
