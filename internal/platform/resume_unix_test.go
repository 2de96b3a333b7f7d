//go:build unix

package platform

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeSignalOnSIGCONT(t *testing.T) {
	resume := NewResumeSignal()
	defer resume.Close()
	got := &recorded{}
	resume.Subscribe(got.add)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGCONT))
	assert.Eventually(t, func() bool { return len(got.get()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []bool{false, true}, got.get())

	resume.Close()
}
