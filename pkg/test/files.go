package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteScript places an executable shell script named name inside dir and returns its path.
// Tests use it to stand in for external tools like the recorder or decoder.
func WriteScript(t *testing.T, dir string, name string, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0750)
	require.NoError(t, err, "could not write fake tool %s", name)

	return path
}

// WriteFile creates a file with the given content, creating parent directories as needed.
func WriteFile(t *testing.T, path string, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0640))

	return path
}
