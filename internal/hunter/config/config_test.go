package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[client]
debug = true

[scan]
frequencies = [8977000, 10081000]
capture_duration = "12s"
cooldown_min = "1s"
cooldown_max = "2s"

[[receivers]]
host = "kiwi.example.org"
port = 8073

[[receivers]]
host = "10.0.0.7"
port = 8074

[decoder]
mode = "native"
timeout = "45s"

[decoder.converter]
enabled = true
sample_rate = 12000

[storage]
driver = "sqlite"
path = "hunt.db"

[paths]
work_dir = "/tmp/work"
archive_dir = "/tmp/archive"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0640))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	log.Init(true)

	m := NewManager()
	require.NoError(t, m.Load(writeConfig(t, sampleConfig), false))

	c := m.Snapshot()
	assert.True(t, c.Client.Debug)
	assert.Equal(t, []int64{8977000, 10081000}, c.Scan.Frequencies)
	assert.Equal(t, 12*time.Second, c.Scan.CaptureDuration.Value())
	assert.Equal(t, time.Second, c.Scan.CooldownMin.Value())

	// Not mentioned in the file, so the defaults stay
	assert.Equal(t, DefaultAcquireRetryDelay, c.Scan.AcquireRetryDelay.Value())
	assert.Equal(t, DefaultStoreRetryDelay, c.Scan.StoreRetryDelay.Value())
	assert.Equal(t, DefaultRecorderStation, c.Recorder.Station)
	assert.Equal(t, DefaultDockerImage, c.Decoder.Docker.Image)
	assert.Equal(t, DefaultStatsInterval, c.Supervisor.StatsInterval.Value())

	assert.Equal(t, Receivers{{Host: "kiwi.example.org", Port: 8073}, {Host: "10.0.0.7", Port: 8074}}, c.Receivers)
	assert.Equal(t, 45*time.Second, c.Decoder.Timeout.Value())
	assert.True(t, c.Decoder.Converter.Enabled)
	assert.Equal(t, 12000, c.Decoder.Converter.SampleRate)
	assert.Equal(t, DefaultSoxBinary, c.Decoder.Converter.Binary)
	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, "hunt.db", c.Storage.Path)
	assert.Equal(t, "/tmp/archive", c.Paths.ArchiveDir)
}

func TestLoadMissingListsUseDefaults(t *testing.T) {
	log.Init(true)

	m := NewManager()
	require.NoError(t, m.Load(writeConfig(t, "[client]\ndebug = false\n"), false))

	c := m.Snapshot()
	assert.Equal(t, DefaultFrequencies, c.Scan.Frequencies)
	assert.Equal(t, DefaultReceivers(), c.Receivers)
	assert.Equal(t, DefaultArchiveDir, c.Paths.ArchiveDir)
}

func TestLoadMissingFile(t *testing.T) {
	log.Init(true)
	missing := filepath.Join(t.TempDir(), "nope.toml")

	assert.Error(t, NewManager().Load(missing, false))

	// Empty configs are fine when allowed
	m := NewManager()
	assert.NoError(t, m.Load(missing, true))
	assert.Equal(t, *New(), m.Snapshot())
}

func TestLoadRejectsInvalidSections(t *testing.T) {
	log.Init(true)

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"bad port", "[[receivers]]\nhost = \"a\"\nport = 0", ErrInvalidReceiver},
		{"duplicate receiver", "[[receivers]]\nhost = \"a\"\nport = 1\n[[receivers]]\nhost = \"a\"\nport = 1", ErrDuplicateReceiver},
		{"duplicate frequency", "[scan]\nfrequencies = [1, 1]", ErrInvalidFrequency},
		{"cooldown order", "[scan]\ncooldown_min = \"10s\"\ncooldown_max = \"5s\"", ErrInvalidCooldown},
		{"zero capture", "[scan]\ncapture_duration = \"0s\"", ErrInvalidDuration},
		{"decoder mode", "[decoder]\nmode = \"wasm\"", ErrInvalidDecoderMode},
		{"driver", "[storage]\ndriver = \"mysql\"", ErrInvalidDriver},
		{"same dirs", "[paths]\nwork_dir = \"a\"\narchive_dir = \"a/\"", ErrInvalidPaths},
		{"no script", "[recorder]\nscript = \"\"", ErrNoRecorderScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewManager().Load(writeConfig(t, tt.content), false)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestVerifyEmptyLists(t *testing.T) {
	assert.ErrorIs(t, Receivers{}.Verify(), ErrNoReceivers)

	scan := DefaultScanConfig()
	scan.Frequencies = nil
	assert.ErrorIs(t, scan.Verify(), ErrNoFrequencies)
}

func TestLoadBrokenToml(t *testing.T) {
	log.Init(true)
	assert.Error(t, NewManager().Load(writeConfig(t, "[scan\n"), false))
}

func TestSnapshotIsACopy(t *testing.T) {
	log.Init(true)

	m := NewManager()
	require.NoError(t, m.Load(writeConfig(t, sampleConfig), false))

	c := m.Snapshot()
	c.Scan.Frequencies[0] = 1
	c.Receivers[0].Host = "changed"

	fresh := m.Snapshot()
	assert.Equal(t, int64(8977000), fresh.Scan.Frequencies[0])
	assert.Equal(t, "kiwi.example.org", fresh.Receivers[0].Host)
}

func TestSetAndSave(t *testing.T) {
	log.Init(true)

	path := writeConfig(t, sampleConfig)
	m := NewManager()
	require.NoError(t, m.Load(path, false))

	m.Supervisor().Set(func(c *SupervisorConfig) {
		c.StatsInterval = Duration(time.Minute)
	})
	require.NoError(t, m.Supervisor().Save())

	reloaded := NewManager()
	require.NoError(t, reloaded.Load(path, false))
	assert.Equal(t, time.Minute, reloaded.Supervisor().C().StatsInterval.Value())
	assert.Equal(t, m.Snapshot().Receivers, reloaded.Snapshot().Receivers)
}

func TestParseCLIFlags(t *testing.T) {
	flags := ParseCLIFlagsFrom(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", "x.toml", "-debug"})
	assert.Equal(t, CLIFlags{ConfigPath: "x.toml", Debug: true}, flags)

	flags = ParseCLIFlagsFrom(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	assert.Equal(t, CLIFlags{ConfigPath: DefaultConfigPath, Debug: false}, flags)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Value())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
