package server

import (
	"context"

	"github.com/nixkryption/server/internal/config"
	"github.com/nixkryption/server/internal/datamgmt"
	"github.com/nixkryption/server/internal/ordermgmt"
)

// SubsystemFunc is the body of a subsystem child process.
type SubsystemFunc func(ctx context.Context, cfg *config.Config, ready func() error) error

type subsystem struct {
	name string
	run  SubsystemFunc
}

// subsystems lists the hosted subsystems in launch registration order.
var subsystems = []subsystem{
	{name: ordermgmt.Name, run: ordermgmt.Run},
	{name: datamgmt.Name, run: datamgmt.Run},
}

// SubsystemNames returns the hosted subsystem names in registration order.
func SubsystemNames() []string {
	names := make([]string, len(subsystems))
	for i, s := range subsystems {
		names[i] = s.name
	}
	return names
}

func lookupSubsystem(name string) (SubsystemFunc, bool) {
	for _, s := range subsystems {
		if s.name == name {
			return s.run, true
		}
	}
	return nil, false
}
