package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile creates name inside a fresh temporary directory with content.
// It returns the absolute path and fails the test immediately on error.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	absDir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	path := filepath.Join(absDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "Failed to write %s", name)
	return path
}
