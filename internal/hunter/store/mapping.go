package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/misc"
)

var ErrNotAnObject = errors.New("not a JSON object")

// child returns the object stored under key, a missing key or null is an empty object
func child(m map[string]interface{}, key string) (map[string]interface{}, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return map[string]interface{}{}, false, nil
	}

	obj, isMap := v.(map[string]interface{})
	if !isMap {
		return nil, true, fmt.Errorf("%s: %w", key, ErrNotAnObject)
	}

	return obj, true, nil
}

// MapMessage turns a decoded hfdl record into a row. Missing identifiers default to "",
// a missing snr to 0. A position is only stored when lpdu.pos exists and must then be numeric.
func MapMessage(target scan.Target, capturedAt time.Time, msg decode.Message) (LogEntry, error) {
	if msg.Fields == nil {
		return LogEntry{}, fmt.Errorf("%s: %w", decode.ProtocolKey, ErrNotAnObject)
	}

	lpdu, _, err := child(msg.Fields, "lpdu")
	if err != nil {
		return LogEntry{}, err
	}

	perf, _, err := child(msg.Fields, "perf")
	if err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Time:        capturedAt,
		FrequencyHz: target.FrequencyHz,
		StationID:   target.Host,
		FlightID:    misc.ToString(lpdu["flight_id"]),
		Message:     append([]byte(nil), msg.Raw...),
	}

	src, _, err := child(lpdu, "src")
	if err != nil {
		return LogEntry{}, err
	}
	entry.AircraftReg = misc.ToString(src["id"])

	if entry.AircraftReg == "" {
		dst, _, err := child(lpdu, "dst")
		if err != nil {
			return LogEntry{}, err
		}
		entry.AircraftReg = misc.ToString(dst["id"])
	}

	if snr, ok := perf["snr"]; ok {
		entry.SNR, err = misc.ToFloat(snr)
		if err != nil {
			return LogEntry{}, fmt.Errorf("perf.snr: %w", err)
		}
	}

	pos, hasPos, err := child(lpdu, "pos")
	if err != nil {
		return LogEntry{}, err
	}

	if hasPos {
		lat, err := misc.ToFloat(pos["lat"])
		if err != nil {
			return LogEntry{}, fmt.Errorf("lpdu.pos.lat: %w", err)
		}

		lon, err := misc.ToFloat(pos["lon"])
		if err != nil {
			return LogEntry{}, fmt.Errorf("lpdu.pos.lon: %w", err)
		}

		entry.Lat = misc.Float64Pointer(lat)
		entry.Lon = misc.Float64Pointer(lon)
	}

	return entry, nil
}
