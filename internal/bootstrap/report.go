package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nixkryption/server/pkg/infra/launcher"
)

// Outcome is the result of one launch: a handle on success, an error
// naming the subsystem on failure.
type Outcome struct {
	Name     string
	Handle   launcher.Handle
	Err      error
	Duration time.Duration
}

// OK reports whether the launch succeeded.
func (o Outcome) OK() bool { return o.Err == nil && o.Handle != nil }

// Report describes one Bootstrap run. Outcomes and Handles follow
// registration order.
type Report struct {
	ID        ulid.ULID
	State     State
	StartedAt time.Time
	Outcomes  []Outcome
	Handles   []launcher.Handle
}

// Lines returns "<name> <id>" for each launched subsystem.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Handles))
	for _, h := range r.Handles {
		lines = append(lines, fmt.Sprintf("%s %d", h.Name(), h.ID()))
	}
	return lines
}

func (r *Report) String() string {
	return strings.Join(r.Lines(), "\n")
}

// Failed returns the failed outcomes in registration order.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
