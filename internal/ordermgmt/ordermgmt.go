// Package ordermgmt hosts the order management subsystem.
package ordermgmt

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/nixkryption/server/internal/config"
)

// Name identifies the subsystem on the command line and in reports.
const Name = "order-management"

// heartbeat is how often a debug-mode instance logs that it is alive.
const heartbeat = 30 * time.Second

// Run starts order management, calls ready once it is serving, and blocks
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, ready func() error) error {
	logger.Infow("order management started",
		"fixversion", cfg.FixVersion,
		"debug", cfg.Debug,
	)

	if err := ready(); err != nil {
		return fmt.Errorf("%s: report readiness: %w", Name, err)
	}

	var tick <-chan time.Time
	if cfg.Debug {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("order management stopping")
			return nil
		case <-tick:
			logger.Debug("order management alive")
		}
	}
}
