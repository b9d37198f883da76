package config

import "errors"

var (
	ErrNoReceivers        = errors.New("no receivers configured")
	ErrInvalidReceiver    = errors.New("receiver needs a host and a port between 1 and 65535")
	ErrDuplicateReceiver  = errors.New("receiver configured more than once")
	ErrNoFrequencies      = errors.New("no frequencies configured")
	ErrInvalidFrequency   = errors.New("frequencies must be positive and unique")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidCooldown    = errors.New("cooldown_min must not be negative or exceed cooldown_max")
	ErrNoRecorderScript   = errors.New("recorder script is not set")
	ErrInvalidDecoderMode = errors.New("decoder mode must be native or docker")
	ErrInvalidDriver      = errors.New("storage driver must be postgres or sqlite")
	ErrInvalidPaths       = errors.New("work_dir and archive_dir must be set and differ")
)
