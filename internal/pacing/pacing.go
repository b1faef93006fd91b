// Package pacing spaces out page loads so a run stays within the portal's
// tolerance.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Config sets the pauses taken during a run.
type Config struct {
	// RestEvery profiles the pacer rests for RestFor. Zero disables resting.
	RestEvery int           `mapstructure:"rest-every" validate:"gte=0"`
	RestFor   time.Duration `mapstructure:"rest-for" validate:"gte=0"`
	// BetweenKeywords is the pause after each search keyword.
	BetweenKeywords time.Duration `mapstructure:"between-keywords" validate:"gte=0"`
	// ProfileMin and ProfileMax bound the random pause after each profile.
	ProfileMin time.Duration `mapstructure:"profile-min" validate:"gte=0"`
	ProfileMax time.Duration `mapstructure:"profile-max" validate:"gtefield=ProfileMin"`
}

// DefaultConfig rests 240s every 33 profiles, waits 3s between keywords and
// 2-4s between profiles.
func DefaultConfig() Config {
	return Config{
		RestEvery:       33,
		RestFor:         240 * time.Second,
		BetweenKeywords: 3 * time.Second,
		ProfileMin:      2 * time.Second,
		ProfileMax:      4 * time.Second,
	}
}

// Pacer tracks processed profiles and sleeps accordingly. It is not safe for
// concurrent use.
type Pacer struct {
	cfg      Config
	logger   *zap.Logger
	profiles int
	jitter   func(n int64) int64
}

// New returns a pacer for cfg.
func New(cfg Config, logger *zap.Logger) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pacer{cfg: cfg, logger: logger, jitter: rand.Int64N}
}

// Profiles returns the number of profiles seen so far.
func (p *Pacer) Profiles() int {
	return p.profiles
}

// AfterProfile counts one opened profile, then waits the random profile pause
// or the long rest when the count reaches a multiple of RestEvery.
func (p *Pacer) AfterProfile(ctx context.Context) error {
	p.profiles++

	if p.cfg.RestEvery > 0 && p.profiles%p.cfg.RestEvery == 0 {
		p.logger.Info("resting", zap.Int("profiles", p.profiles), zap.Duration("for", p.cfg.RestFor))
		return WaitFor(ctx, p.cfg.RestFor)
	}

	return WaitFor(ctx, p.profilePause())
}

// AfterKeyword waits between two searches.
func (p *Pacer) AfterKeyword(ctx context.Context) error {
	return WaitFor(ctx, p.cfg.BetweenKeywords)
}

func (p *Pacer) profilePause() time.Duration {
	lo, hi := p.cfg.ProfileMin, p.cfg.ProfileMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.jitter(int64(hi-lo)+1))
}
