package systemd

import (
	"github.com/coreos/go-systemd/v22/daemon"
)

const (
	NotifySocketEnvVar = "NOTIFY_SOCKET"
	NotifyWatchdog     = daemon.SdNotifyWatchdog
	NotifyStopping     = daemon.SdNotifyStopping
	NotifyReady        = daemon.SdNotifyReady
)
