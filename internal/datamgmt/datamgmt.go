// Package datamgmt hosts the data management subsystem.
package datamgmt

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/nixkryption/server/internal/config"
)

// Name identifies the subsystem on the command line and in reports.
const Name = "data-management"

// Run starts data management, calls ready, and blocks until ctx is
// cancelled. Uptime is logged on the way out.
func Run(ctx context.Context, cfg *config.Config, ready func() error) error {
	started := time.Now()
	logger.Infow("data management started",
		"fixversion", cfg.FixVersion,
		"debug", cfg.Debug,
	)

	if err := ready(); err != nil {
		return fmt.Errorf("%s: report readiness: %w", Name, err)
	}

	<-ctx.Done()
	logger.Infow("data management stopping", "uptime", time.Since(started).String())
	return nil
}
