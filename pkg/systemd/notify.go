package systemd

import (
	"context"
	"errors"
	"time"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

var ErrNotifySocketUnavailable = errors.New("systemd-notify socket was not available")

// EntertainWatchdog sends a notification to the systemd watchdog
func EntertainWatchdog() error {
	log.Debug("Notifying systemd watchdog")
	return Notify(NotifyWatchdog)
}

// Notify sends the provided msg to the systemd socket
func Notify(msg string) error {
	sent, err := daemon.SdNotify(false, msg)
	if err != nil {
		return err
	}

	if !sent {
		return ErrNotifySocketUnavailable
	}

	return nil
}

// NotifyQuiet is Notify for callers that may run outside of systemd
func NotifyQuiet(msg string) {
	if err := Notify(msg); err != nil && !errors.Is(err, ErrNotifySocketUnavailable) {
		log.Warn("systemd notification failed", zap.String("msg", msg), zap.Error(err))
	}
}

// WatchdogInterval returns half of the configured watchdog timeout, or zero if the watchdog is off
func WatchdogInterval() time.Duration {
	timeout, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Warn("could not read systemd watchdog settings", zap.Error(err))
		return 0
	}

	return timeout / 2
}

// RunWatchdog pets the watchdog until ctx is done, it returns immediately if no watchdog is configured
func RunWatchdog(ctx context.Context) {
	interval := WatchdogInterval()
	if interval <= 0 {
		return
	}

	log.Info("systemd watchdog enabled", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := EntertainWatchdog(); err != nil {
				log.Warn("could not notify watchdog", zap.Error(err))
			}
		}
	}
}
