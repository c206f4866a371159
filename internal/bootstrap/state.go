package bootstrap

// State is a Supervisor lifecycle stage.
type State int32

const (
	StateInit State = iota
	StateConfigLoading
	StateConfigLoaded
	// StateConfigFailed is terminal; no subsystem was launched.
	StateConfigFailed
	StateLaunching
	StateAllLaunched
	// StatePartialFailure is terminal; launched subsystems have been stopped.
	StatePartialFailure
	// StateStopped follows a Shutdown after StateAllLaunched.
	StateStopped
)

var stateNames = [...]string{
	StateInit:           "Init",
	StateConfigLoading:  "ConfigLoading",
	StateConfigLoaded:   "ConfigLoaded",
	StateConfigFailed:   "ConfigFailed",
	StateLaunching:      "Launching",
	StateAllLaunched:    "AllLaunched",
	StatePartialFailure: "PartialFailure",
	StateStopped:        "Stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateConfigFailed || s == StatePartialFailure || s == StateStopped
}
