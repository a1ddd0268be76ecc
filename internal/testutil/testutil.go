// Package testutil provides shared test helpers for config files and a fake drill server.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a config file pointing at serverURL with all state kept under tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir, serverURL string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "reports"), 0755))

	configContent := fmt.Sprintf(`server:
  base_url: %s
session:
  backend: file
  file: %s
database:
  driver: sqlite
  path: %s
practice:
  api_variant: problem
  operations:
    - add
outputs:
  report_directory: %s
`,
		serverURL,
		filepath.Join(tmpDir, "session.yml"),
		filepath.Join(tmpDir, "mathdrill.db"),
		filepath.Join(tmpDir, "reports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithSQLSession creates a config file that keeps the session in sqlite.
func SetupTestConfigWithSQLSession(t *testing.T, tmpDir, serverURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir, serverURL)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = []byte(strings.Replace(string(content), "backend: file", "backend: sql", 1))
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}
