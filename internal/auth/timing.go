package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for timing attack mitigation on the
// login failure path.
type TimingConfig struct {
	BaseDelayMs   int // base delay in milliseconds
	RandomDelayMs int // random jitter range in milliseconds
}

// DefaultTimingConfig returns the 100-500ms failed-login delay window.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		BaseDelayMs:   100,
		RandomDelayMs: 400,
	}
}

// TimingDelay applies a randomized delay so "unknown email" and "wrong
// password" take indistinguishable time. This is a coarse mitigation, not a
// guarantee.
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

// NewTimingDelay creates a new TimingDelay instance.
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
		sleep:  time.Sleep,
	}
}

// cryptoRandIntn returns a secure random number in [0, max). math/rand is
// avoided for anything the login path exposes to an attacker's stopwatch.
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}

// Wait sleeps for base + random jitter.
func (td *TimingDelay) Wait() {
	td.sleep(td.delay())
}

// WaitFrom sleeps only as long as needed for the total elapsed time since
// startTime to reach the target delay, so work already done (a bcrypt
// compare, a store lookup) counts toward it.
func (td *TimingDelay) WaitFrom(startTime time.Time) {
	target := td.delay()
	if elapsed := time.Since(startTime); elapsed < target {
		td.sleep(target - elapsed)
	}
}

func (td *TimingDelay) delay() time.Duration {
	base := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	var jitter time.Duration
	if td.config.RandomDelayMs > 0 {
		if n, err := cryptoRandIntn(td.config.RandomDelayMs); err == nil {
			jitter = time.Duration(n) * time.Millisecond
		}
	}
	return base + jitter
}
