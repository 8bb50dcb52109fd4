// FILE: logvault/src/internal/auth/limiter_test.go
package auth

import (
	"testing"
	"time"

	"logvault/src/internal/config"
	"logvault/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestLimiter(t *testing.T, cfg config.LoginLimitConfig) (*LoginLimiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	l := NewLoginLimiter(cfg, newTestLogger())
	require.NotNil(t, l)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func limitConfig() config.LoginLimitConfig {
	return config.LoginLimitConfig{
		Enabled:           true,
		AttemptsPerMinute: 5,
		Burst:             3,
		MaxTrackedIPs:     100,
	}
}

func TestLoginLimiterBurstThenBlock(t *testing.T) {
	l, clock := newTestLimiter(t, limitConfig())
	addr := "10.0.0.1:40000"

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(addr), "attempt %d", i)
	}

	err := l.Allow(addr)
	assert.ErrorIs(t, err, core.ErrTooManyAttempts)

	// Blocked even though the bucket refills a little
	clock.Advance(30 * time.Second)
	assert.ErrorIs(t, l.Allow(addr), core.ErrTooManyAttempts)

	// Same IP from another port is the same client
	assert.ErrorIs(t, l.Allow("10.0.0.1:40001"), core.ErrTooManyAttempts)

	// Other clients are unaffected
	assert.NoError(t, l.Allow("10.0.0.2:40000"))

	// First block lasts 2 minutes
	clock.Advance(2 * time.Minute)
	assert.NoError(t, l.Allow(addr))

	stats := l.GetStats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 2, stats["tracked_ips"])
	assert.Equal(t, uint64(3), stats["throttled"])
}

func TestLoginLimiterSuccessClearsBlock(t *testing.T) {
	l, _ := newTestLimiter(t, limitConfig())
	addr := "10.0.0.1:40000"

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(addr))
	}
	require.Error(t, l.Allow(addr))

	l.RecordSuccess(addr)
	l.mu.Lock()
	state := l.attempts["10.0.0.1"]
	assert.Equal(t, 0, state.failCount)
	assert.True(t, state.blockedUntil.IsZero())
	l.mu.Unlock()
}

func TestLoginLimiterFailuresLengthenBlock(t *testing.T) {
	l, clock := newTestLimiter(t, limitConfig())
	addr := "10.0.0.3:1"

	require.NoError(t, l.Allow(addr))
	l.RecordFailure(addr)
	l.RecordFailure(addr)
	require.NoError(t, l.Allow(addr))
	require.NoError(t, l.Allow(addr))

	// failCount reaches 3 on the throttled attempt: 8 minute block
	require.Error(t, l.Allow(addr))
	clock.Advance(5 * time.Minute)
	assert.Error(t, l.Allow(addr))
	clock.Advance(4 * time.Minute)
	assert.NoError(t, l.Allow(addr))
}

func TestLoginLimiterEviction(t *testing.T) {
	cfg := limitConfig()
	cfg.MaxTrackedIPs = 2
	l, clock := newTestLimiter(t, cfg)

	require.NoError(t, l.Allow("10.0.0.1:1"))
	clock.Advance(time.Second)
	require.NoError(t, l.Allow("10.0.0.2:1"))
	clock.Advance(time.Second)
	require.NoError(t, l.Allow("10.0.0.3:1"))

	l.mu.Lock()
	assert.Len(t, l.attempts, 2)
	_, oldest := l.attempts["10.0.0.1"]
	assert.False(t, oldest)
	l.mu.Unlock()
	assert.Equal(t, uint64(1), l.GetStats()["evicted"])
}

func TestLoginLimiterCleanup(t *testing.T) {
	l, clock := newTestLimiter(t, limitConfig())
	require.NoError(t, l.Allow("10.0.0.1:1"))

	clock.Advance(2 * time.Hour)
	l.cleanup()

	assert.Equal(t, 0, l.GetStats()["tracked_ips"])
}

func TestLoginLimiterDisabled(t *testing.T) {
	cfg := limitConfig()
	cfg.Enabled = false
	l := NewLoginLimiter(cfg, newTestLogger())
	assert.Nil(t, l)

	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Allow("10.0.0.1:1"))
	}
	l.RecordFailure("10.0.0.1:1")
	l.RecordSuccess("10.0.0.1:1")
	l.Stop()
	assert.Equal(t, false, l.GetStats()["enabled"])
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.168.1.1", clientIP("192.168.1.1:8080"))
	assert.Equal(t, "::1", clientIP("[::1]:8080"))
	assert.Equal(t, "pipe", clientIP("pipe"))
}
