package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleInstancePerUser(t *testing.T) {
	guard, err := AcquireSingleInstance("studyfocus-test", "alice")
	require.NoError(t, err)
	defer guard.Release()

	_, err = AcquireSingleInstance("studyfocus-test", "alice")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance("studyfocus-test", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, again.Address())
	require.NoError(t, again.Release())
}

func TestLockPortInRange(t *testing.T) {
	for _, key := range []string{"", "a", "studyfocus\x00bob"} {
		port := lockPort(key)
		assert.GreaterOrEqual(t, port, 20000)
		assert.LessOrEqual(t, port, 39999)
	}
}
