package config

import "fmt"

type ReceiverConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Receivers is the KiwiSDR pool, configured as [[receivers]]
type Receivers []ReceiverConfig

func DefaultReceivers() Receivers {
	return Receivers{
		{Host: "hackgreensdr.org", Port: 8073},
		{Host: "sk3w.se", Port: 8073},
		{Host: "sdr-bayern.spdns.de", Port: 8073},
		{Host: "21886.proxy.kiwisdr.com", Port: 8073},
	}
}

func (r Receivers) Verify() error {
	if len(r) == 0 {
		return ErrNoReceivers
	}

	seen := make(map[ReceiverConfig]struct{}, len(r))
	for _, rc := range r {
		if rc.Host == "" || rc.Port < 1 || rc.Port > 65535 {
			return fmt.Errorf("%s:%d: %w", rc.Host, rc.Port, ErrInvalidReceiver)
		}

		if _, dup := seen[rc]; dup {
			return fmt.Errorf("%s:%d: %w", rc.Host, rc.Port, ErrDuplicateReceiver)
		}
		seen[rc] = struct{}{}
	}

	return nil
}
