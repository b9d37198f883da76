package config

import (
	"fmt"
	"time"
)

const (
	DefaultRecorderInterpreter = "python3"
	DefaultRecorderScript      = "kiwiclient/kiwirecorder.py"
	DefaultRecorderMode        = "usb"
	DefaultRecorderStation     = "FoxHunter"
	DefaultResampleRate        = 16000

	DefaultRecorderConnectTimeout = 30 * time.Second
	DefaultRecorderSocketTimeout  = 20 * time.Second
	DefaultRecorderTimeoutMargin  = 15 * time.Second
	DefaultRecorderGracePeriod    = 5 * time.Second
)

type RecorderConfig struct {
	Interpreter    string   `toml:"interpreter" comment:"runs the script, leave empty to execute it directly"`
	Script         string   `toml:"script" comment:"path to kiwirecorder.py"`
	Mode           string   `toml:"mode"`
	Station        string   `toml:"station" comment:"identification sent to the receiver"`
	ResampleRate   int      `toml:"resample_rate"`
	ConnectTimeout Duration `toml:"connect_timeout"`
	SocketTimeout  Duration `toml:"socket_timeout"`
	TimeoutMargin  Duration `toml:"timeout_margin" comment:"added to capture and connect time before the recorder is terminated"`
	GracePeriod    Duration `toml:"grace_period" comment:"time between SIGTERM and SIGKILL"`
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Interpreter:    DefaultRecorderInterpreter,
		Script:         DefaultRecorderScript,
		Mode:           DefaultRecorderMode,
		Station:        DefaultRecorderStation,
		ResampleRate:   DefaultResampleRate,
		ConnectTimeout: Duration(DefaultRecorderConnectTimeout),
		SocketTimeout:  Duration(DefaultRecorderSocketTimeout),
		TimeoutMargin:  Duration(DefaultRecorderTimeoutMargin),
		GracePeriod:    Duration(DefaultRecorderGracePeriod),
	}
}

func (c RecorderConfig) Verify() error {
	if c.Script == "" {
		return ErrNoRecorderScript
	}

	if c.Mode == "" || c.ResampleRate <= 0 {
		return fmt.Errorf("recorder mode and resample_rate are required")
	}

	if c.ConnectTimeout <= 0 || c.SocketTimeout <= 0 || c.TimeoutMargin <= 0 {
		return fmt.Errorf("recorder timeouts: %w", ErrInvalidDuration)
	}

	return nil
}
