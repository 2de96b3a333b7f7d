package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	fake.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), fake.Now())
}

func TestFakeTickerCoalescesTicks(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	ticker := fake.NewTicker(200 * time.Millisecond)

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its period")
	default:
	}

	fake.Advance(time.Second)
	fake.Advance(time.Second)

	select {
	case at := <-ticker.C():
		assert.Equal(t, time.Unix(1, 0), at)
	default:
		t.Fatal("expected a pending tick")
	}
	select {
	case <-ticker.C():
		t.Fatal("expected a single coalesced tick")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	ticker := fake.NewTicker(time.Second)
	require.Equal(t, 1, fake.ActiveTickers())

	ticker.Stop()
	ticker.Stop()
	assert.Equal(t, 0, fake.ActiveTickers())

	fake.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeSetDoesNotFire(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	ticker := fake.NewTicker(time.Second)
	fake.Set(time.Unix(3600, 0))

	select {
	case <-ticker.C():
		t.Fatal("Set must not fire tickers")
	default:
	}
	assert.Equal(t, time.Unix(3600, 0), fake.Now())
}

func TestRealClock(t *testing.T) {
	c := New()
	before := time.Now()
	assert.False(t, c.Now().Before(before))

	ticker := c.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
