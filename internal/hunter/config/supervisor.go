package config

import (
	"fmt"
	"time"
)

const DefaultStatsInterval = 5 * time.Minute

type SupervisorConfig struct {
	StatsInterval Duration `toml:"stats_interval" comment:"how often the worker statistics are logged, 0 disables"`
}

func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{StatsInterval: Duration(DefaultStatsInterval)}
}

func (c SupervisorConfig) Verify() error {
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats_interval: %w", ErrInvalidDuration)
	}
	return nil
}
