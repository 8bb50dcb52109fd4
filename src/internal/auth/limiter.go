// FILE: logvault/src/internal/auth/limiter.go
package auth

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"logvault/src/internal/config"
	"logvault/src/internal/core"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTTL         = time.Hour
	limiterEvictSample     = 20
	maxBlockShift          = 6 // 64 minutes
)

// Per-IP login attempt tracking
type ipAuthState struct {
	limiter      *rate.Limiter
	failCount    int
	lastAttempt  time.Time
	blockedUntil time.Time
}

// LoginLimiter throttles login attempts per client IP. A nil limiter allows everything.
type LoginLimiter struct {
	cfg    config.LoginLimitConfig
	logger *log.Logger
	now    func() time.Time

	attempts map[string]*ipAuthState
	mu       sync.Mutex

	throttled atomic.Uint64
	evicted   atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoginLimiter returns nil when login limiting is disabled
func NewLoginLimiter(cfg config.LoginLimitConfig, logger *log.Logger) *LoginLimiter {
	if !cfg.Enabled {
		return nil
	}

	l := &LoginLimiter{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		attempts: make(map[string]*ipAuthState),
		done:     make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	logger.Info("msg", "Login limiter initialized",
		"component", "auth",
		"attempts_per_minute", cfg.AttemptsPerMinute,
		"burst", cfg.Burst)

	return l
}

// Allow checks whether remoteAddr may attempt a login now
func (l *LoginLimiter) Allow(remoteAddr string) error {
	if l == nil {
		return nil
	}

	ip := clientIP(remoteAddr)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, exists := l.attempts[ip]
	if !exists {
		if len(l.attempts) >= int(l.cfg.MaxTrackedIPs) {
			l.evictOldest(now)
		}

		state = &ipAuthState{
			limiter:     rate.NewLimiter(rate.Limit(l.cfg.AttemptsPerMinute/60), int(l.cfg.Burst)),
			lastAttempt: now,
		}
		l.attempts[ip] = state
	}

	if now.Before(state.blockedUntil) {
		remaining := state.blockedUntil.Sub(now)
		l.throttled.Add(1)
		l.logger.Warn("msg", "IP temporarily blocked",
			"component", "auth",
			"ip", ip,
			"remaining", remaining)
		return fmt.Errorf("%w: blocked, try again in %v", core.ErrTooManyAttempts, remaining.Round(time.Second))
	}

	if !state.limiter.AllowN(now, 1) {
		state.failCount++
		l.throttled.Add(1)

		// Progressive blocking: 2^failCount minutes
		blockMinutes := 1 << min(state.failCount, maxBlockShift)
		state.blockedUntil = now.Add(time.Duration(blockMinutes) * time.Minute)

		l.logger.Warn("msg", "Login rate exceeded, blocking IP",
			"component", "auth",
			"ip", ip,
			"fail_count", state.failCount,
			"block_duration", time.Duration(blockMinutes)*time.Minute)

		return fmt.Errorf("%w: rate limit exceeded", core.ErrTooManyAttempts)
	}

	state.lastAttempt = now
	return nil
}

// RecordFailure counts a rejected credential against the IP
func (l *LoginLimiter) RecordFailure(remoteAddr string) {
	if l == nil {
		return
	}

	ip := clientIP(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if state, exists := l.attempts[ip]; exists {
		state.failCount++
		state.lastAttempt = l.now()
	}
}

// RecordSuccess clears the failure history of the IP
func (l *LoginLimiter) RecordSuccess(remoteAddr string) {
	if l == nil {
		return
	}

	ip := clientIP(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if state, exists := l.attempts[ip]; exists {
		state.failCount = 0
		state.blockedUntil = time.Time{}
	}
}

// Stop ends the cleanup goroutine
func (l *LoginLimiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

func (l *LoginLimiter) GetStats() map[string]any {
	if l == nil {
		return map[string]any{"enabled": false}
	}

	l.mu.Lock()
	tracked := len(l.attempts)
	l.mu.Unlock()

	return map[string]any{
		"enabled":     true,
		"tracked_ips": tracked,
		"throttled":   l.throttled.Load(),
		"evicted":     l.evicted.Load(),
	}
}

// evictOldest drops the least recently seen entry out of a small sample. Caller holds mu.
func (l *LoginLimiter) evictOldest(now time.Time) {
	var oldestIP string
	oldestTime := now

	sampled := 0
	for ip, state := range l.attempts {
		if state.lastAttempt.Before(oldestTime) || oldestIP == "" {
			oldestIP = ip
			oldestTime = state.lastAttempt
		}
		sampled++
		if sampled >= limiterEvictSample {
			break
		}
	}

	if oldestIP != "" {
		delete(l.attempts, oldestIP)
		l.evicted.Add(1)
		l.logger.Debug("msg", "Evicted old login attempt state",
			"component", "auth",
			"evicted_ip", oldestIP,
			"last_seen", oldestTime)
	}
}

func (l *LoginLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *LoginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, state := range l.attempts {
		if now.Sub(state.lastAttempt) > limiterIdleTTL && !now.Before(state.blockedUntil) {
			delete(l.attempts, ip)
			l.logger.Debug("msg", "Cleaned up login attempt state",
				"component", "auth",
				"ip", ip)
		}
	}
}

func clientIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || ip == "" {
		return remoteAddr
	}
	return ip
}
