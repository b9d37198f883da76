package config

import (
	"fmt"
	"time"
)

var (
	// HFDL ground station channels in Hz
	DefaultFrequencies = []int64{21982000, 13312000, 17919000, 11312000}

	DefaultCaptureDuration   = 10 * time.Second
	DefaultCooldownMin       = 5 * time.Second
	DefaultCooldownMax       = 10 * time.Second
	DefaultAcquireRetryDelay = 5 * time.Second
	DefaultStoreRetryDelay   = 10 * time.Second
)

type ScanConfig struct {
	Frequencies       []int64  `toml:"frequencies" comment:"frequencies to scan in Hz, one worker per receiver and frequency"`
	CaptureDuration   Duration `toml:"capture_duration" comment:"length of a single capture"`
	CooldownMin       Duration `toml:"cooldown_min" comment:"lower bound of the randomized pause between cycles"`
	CooldownMax       Duration `toml:"cooldown_max" comment:"upper bound of the randomized pause between cycles"`
	AcquireRetryDelay Duration `toml:"acquire_retry_delay" comment:"fixed pause after a failed capture"`
	StoreRetryDelay   Duration `toml:"store_retry_delay" comment:"pause after the database could not be reached"`
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Frequencies:       append([]int64(nil), DefaultFrequencies...),
		CaptureDuration:   Duration(DefaultCaptureDuration),
		CooldownMin:       Duration(DefaultCooldownMin),
		CooldownMax:       Duration(DefaultCooldownMax),
		AcquireRetryDelay: Duration(DefaultAcquireRetryDelay),
		StoreRetryDelay:   Duration(DefaultStoreRetryDelay),
	}
}

func (c ScanConfig) Verify() error {
	if len(c.Frequencies) == 0 {
		return ErrNoFrequencies
	}

	seen := make(map[int64]struct{}, len(c.Frequencies))
	for _, f := range c.Frequencies {
		if _, dup := seen[f]; dup || f <= 0 {
			return fmt.Errorf("%d: %w", f, ErrInvalidFrequency)
		}
		seen[f] = struct{}{}
	}

	if c.CaptureDuration <= 0 {
		return fmt.Errorf("capture_duration: %w", ErrInvalidDuration)
	}

	if c.CooldownMin < 0 || c.CooldownMin > c.CooldownMax {
		return ErrInvalidCooldown
	}

	if c.AcquireRetryDelay < 0 || c.StoreRetryDelay < 0 {
		return fmt.Errorf("retry delays: %w", ErrInvalidDuration)
	}

	return nil
}
