package main

import (
	"path/filepath"
	"testing"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/LeoCommon/foxhunter/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleKeepsDefaultsAndFillsOmitted(t *testing.T) {
	log.Init(true)

	data, err := sample()
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "url = 'URL'")
	assert.Contains(t, text, "hackgreensdr.org")
	assert.Contains(t, text, "mode = 'native'")
}

func TestSampleLoads(t *testing.T) {
	log.Init(true)

	data, err := sample()
	require.NoError(t, err)

	path := test.WriteFile(t, filepath.Join(t.TempDir(), "config.toml"), string(data))
	m := config.NewManager()
	require.NoError(t, m.Load(path, false))

	assert.Equal(t, config.New().Scan.Frequencies, m.Scan().C().Frequencies)
	assert.Equal(t, config.DriverPostgres, m.Storage().C().Driver)
}
