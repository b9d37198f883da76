package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/LeoCommon/foxhunter/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Manager, string) {
	t.Helper()

	log.Init(true)
	archive := filepath.Join(t.TempDir(), "safe_store")
	require.NoError(t, os.MkdirAll(archive, 0750))

	return NewManager(archive), t.TempDir()
}

func TestArchiveMovesCapture(t *testing.T) {
	m, work := setup(t)
	a := scan.Artifact{Path: test.WriteFile(t, filepath.Join(work, "rec_1.wav"), "RIFF")}

	dest, err := m.Archive(a)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.ArchiveDir(), "rec_1.wav"), dest)
	assert.FileExists(t, dest)
	assert.NoFileExists(t, a.Path)
}

func TestArchiveOverwritesSameName(t *testing.T) {
	m, work := setup(t)
	test.WriteFile(t, filepath.Join(m.ArchiveDir(), "rec_1.wav"), "old")

	a := scan.Artifact{Path: test.WriteFile(t, filepath.Join(work, "rec_1.wav"), "new")}
	dest, err := m.Archive(a)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestArchiveMissingCapture(t *testing.T) {
	m, work := setup(t)

	_, err := m.Archive(scan.Artifact{Path: filepath.Join(work, "gone.wav")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeleteIsIdempotent(t *testing.T) {
	m, work := setup(t)
	a := scan.Artifact{Path: test.WriteFile(t, filepath.Join(work, "rec_2.wav"), "RIFF")}

	assert.NoError(t, m.Delete(a))
	assert.NoFileExists(t, a.Path)
	assert.NoError(t, m.Delete(a))
}

func TestKeepLeavesCapture(t *testing.T) {
	m, work := setup(t)
	a := scan.Artifact{Path: test.WriteFile(t, filepath.Join(work, "rec_3.wav"), "RIFF")}

	assert.Equal(t, Kept, m.Keep(a))
	assert.FileExists(t, a.Path)
	assert.Equal(t, "kept", Kept.String())
	assert.Equal(t, "archived", Archived.String())
}
