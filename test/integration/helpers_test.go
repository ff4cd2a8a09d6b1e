//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/viper"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	ConfigDir string // DEVKIT_CONFIG_DIR
	BinDir    string // prepended to PATH; manual installs write here
	ScriptDir string // install scripts run by the manual backend
}

// setupTestEnv creates isolated temp directories and puts BinDir first on
// PATH so tools installed by the tests are found by the real detector.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("integration tests drive /bin/sh scripts")
	}

	env := &testEnv{
		ConfigDir: t.TempDir(),
		BinDir:    t.TempDir(),
		ScriptDir: t.TempDir(),
	}

	t.Setenv("DEVKIT_CONFIG_DIR", env.ConfigDir)
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	viper.Reset()
	t.Cleanup(viper.Reset)

	return env
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}
