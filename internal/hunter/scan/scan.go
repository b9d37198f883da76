// Package scan holds the units of work shared by all hunter stages.
package scan

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"go.uber.org/zap"
)

// Receiver is a KiwiSDR node, identified by host and port
type Receiver struct {
	Host string
	Port int
}

func (r Receiver) String() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Target is one receiver tuned to one frequency, owned by exactly one worker
type Target struct {
	Receiver
	FrequencyHz int64
}

// FrequencyKHz truncates to whole kHz, as used in file names and decoder arguments
func (t Target) FrequencyKHz() int64 {
	return t.FrequencyHz / 1000
}

// FrequencyKHzExact is the kHz value with fraction, handed to the recorder
func (t Target) FrequencyKHzExact() string {
	return strconv.FormatFloat(float64(t.FrequencyHz)/1000, 'f', -1, 64)
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%skHz", t.Receiver, t.FrequencyKHzExact())
}

// Fields returns the log fields identifying the target
func (t Target) Fields() []zap.Field {
	return []zap.Field{
		zap.String("receiver", t.Receiver.String()),
		zap.Int64("frequency_hz", t.FrequencyHz),
	}
}

// Artifact is a capture on disk, owned by the worker that created it until it is disposed of
type Artifact struct {
	Path      string
	CreatedAt time.Time
	Target    Target
}

// Targets builds the cross product of receivers and frequencies in configuration order
func Targets(receivers config.Receivers, frequencies []int64) []Target {
	targets := make([]Target, 0, len(receivers)*len(frequencies))
	for _, r := range receivers {
		for _, f := range frequencies {
			targets = append(targets, Target{
				Receiver:    Receiver{Host: r.Host, Port: r.Port},
				FrequencyHz: f,
			})
		}
	}
	return targets
}
