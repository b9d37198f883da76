// Package artifact decides what happens to a capture once its cycle is over.
package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/file"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"go.uber.org/zap"
)

type Disposition int

const (
	Archived Disposition = iota
	Deleted
	Kept
)

func (d Disposition) String() string {
	switch d {
	case Archived:
		return "archived"
	case Deleted:
		return "deleted"
	case Kept:
		return "kept"
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

type Manager struct {
	archiveDir string
}

func NewManager(archiveDir string) *Manager {
	return &Manager{archiveDir: archiveDir}
}

func (m *Manager) ArchiveDir() string {
	return m.archiveDir
}

// Archive moves the capture into the archive directory under its own name.
// An older archived file with the same name is replaced.
func (m *Manager) Archive(a scan.Artifact) (string, error) {
	dest := filepath.Join(m.archiveDir, filepath.Base(a.Path))
	if err := file.MoveFile(a.Path, dest); err != nil {
		return "", fmt.Errorf("archive %s: %w", a.Path, err)
	}

	log.Debug("artifact archived", zap.String("path", dest))
	return dest, nil
}

// Delete removes the capture, one that is already gone is fine
func (m *Manager) Delete(a scan.Artifact) error {
	if err := file.Remove(a.Path); err != nil {
		return fmt.Errorf("delete %s: %w", a.Path, err)
	}

	log.Debug("artifact deleted", zap.String("path", a.Path))
	return nil
}

// Keep leaves the capture untouched, the owner has to dispose of it later
func (m *Manager) Keep(a scan.Artifact) Disposition {
	log.Debug("artifact kept", zap.String("path", a.Path))
	return Kept
}
