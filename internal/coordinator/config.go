package coordinator

import "time"

// Config holds the Loop's tunables, all with the documented defaults. A
// zero Config is not usable; construct with DefaultConfig and override only
// the fields a deployment needs to change.
type Config struct {
	MaxIterations  int
	HistoryLength  int
	LLMTimeout     time.Duration
	TurnBudget     time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		HistoryLength: 10,
		LLMTimeout:    60 * time.Second,
		TurnBudget:    300 * time.Second,
	}
}
