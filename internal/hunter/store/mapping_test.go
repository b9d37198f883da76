package store

import (
	"testing"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	TARGET   = scan.Target{Receiver: scan.Receiver{Host: "sk3w.se", Port: 8073}, FrequencyHz: 13312000}
	CAPTURED = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func message(t *testing.T, hfdl string) decode.Message {
	t.Helper()
	msg, ok := decode.ParseLine([]byte(`{"hfdl":` + hfdl + `}`))
	require.True(t, ok)
	return msg
}

func TestMapMessageFullRecord(t *testing.T) {
	msg := message(t, `{"perf":{"snr":12.5},"lpdu":{"flight_id":"QTR8X","src":{"id":"A7-BEF"},"dst":{"id":"GS-1"},"pos":{"lat":51.5,"lon":"-0.12"}}}`)

	entry, err := MapMessage(TARGET, CAPTURED, msg)
	require.NoError(t, err)

	assert.Equal(t, CAPTURED, entry.Time)
	assert.Equal(t, int64(13312000), entry.FrequencyHz)
	assert.Equal(t, "sk3w.se", entry.StationID)
	assert.Equal(t, "QTR8X", entry.FlightID)
	assert.Equal(t, "A7-BEF", entry.AircraftReg)
	assert.Equal(t, 12.5, entry.SNR)
	require.NotNil(t, entry.Lat)
	require.NotNil(t, entry.Lon)
	assert.Equal(t, 51.5, *entry.Lat)
	assert.Equal(t, -0.12, *entry.Lon)
	assert.JSONEq(t, string(msg.Raw), string(entry.Message))
}

func TestMapMessageDefaults(t *testing.T) {
	entry, err := MapMessage(TARGET, CAPTURED, message(t, `{"freq":13312000}`))
	require.NoError(t, err)

	assert.Empty(t, entry.FlightID)
	assert.Empty(t, entry.AircraftReg)
	assert.Zero(t, entry.SNR)
	assert.Nil(t, entry.Lat)
	assert.Nil(t, entry.Lon)
}

func TestMapMessageNullPositionIsAbsent(t *testing.T) {
	entry, err := MapMessage(TARGET, CAPTURED, message(t, `{"lpdu":{"src":{"id":"A7-BEF"},"pos":null}}`))
	require.NoError(t, err)

	assert.Equal(t, "A7-BEF", entry.AircraftReg)
	assert.Nil(t, entry.Lat)
	assert.Nil(t, entry.Lon)
}

func TestMapMessageRegistrationFallback(t *testing.T) {
	entry, err := MapMessage(TARGET, CAPTURED, message(t, `{"lpdu":{"src":{"type":"Ground station"},"dst":{"id":"N123AB"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "N123AB", entry.AircraftReg)
}

func TestMapMessageNumericStrings(t *testing.T) {
	entry, err := MapMessage(TARGET, CAPTURED, message(t, `{"perf":{"snr":" 7.25 "}}`))
	require.NoError(t, err)
	assert.Equal(t, 7.25, entry.SNR)
}

func TestMapMessageRejects(t *testing.T) {
	tests := []struct {
		name string
		hfdl string
	}{
		{"not an object", `"text"`},
		{"lpdu not an object", `{"lpdu":[1,2]}`},
		{"snr not numeric", `{"perf":{"snr":"strong"}}`},
		{"pos without lat", `{"lpdu":{"pos":{"lon":1.0}}}`},
		{"pos with bad lon", `{"lpdu":{"pos":{"lat":1.0,"lon":"east"}}}`},
		{"pos not an object", `{"lpdu":{"pos":"51N"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapMessage(TARGET, CAPTURED, message(t, tt.hfdl))
			assert.Error(t, err)
		})
	}
}
