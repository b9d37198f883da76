package config

import "path/filepath"

const (
	DefaultWorkDir    = "recordings"
	DefaultArchiveDir = "safe_store"
)

type PathsConfig struct {
	WorkDir    string `toml:"work_dir" comment:"fresh captures land here"`
	ArchiveDir string `toml:"archive_dir" comment:"captures that produced stored messages are kept here"`
}

func DefaultPathsConfig() PathsConfig {
	return PathsConfig{
		WorkDir:    DefaultWorkDir,
		ArchiveDir: DefaultArchiveDir,
	}
}

func (c PathsConfig) Verify() error {
	if c.WorkDir == "" || c.ArchiveDir == "" {
		return ErrInvalidPaths
	}

	if filepath.Clean(c.WorkDir) == filepath.Clean(c.ArchiveDir) {
		return ErrInvalidPaths
	}

	return nil
}
