package ops

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often the console refreshes its snapshot when
// nobody is working.
const DefaultPollInterval = 5 * time.Minute

// Poller refreshes a console on a fixed interval.  A tick that finds a
// workflow in progress is skipped, not queued.
type Poller struct {
	console  *Console
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller returns a Poller for console.  A non-positive interval uses
// DefaultPollInterval.
func NewPoller(console *Console, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{console: console, interval: interval, logger: logger}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs one poll.  It reports whether a refresh was attempted.
func (p *Poller) Tick(ctx context.Context) bool {
	if p.console.Gate().Busy(ctx) {
		p.logger.Debug("poll skipped, workflow in progress")
		return false
	}
	if err := p.console.Refresh(ctx); err != nil {
		p.logger.Warn("background refresh failed", zap.Error(err))
	}
	return true
}
