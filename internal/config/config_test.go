package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtemp moves the test into a fresh directory and resets viper's global
// state so config files from the repository never leak into tests.
func chtemp(t *testing.T) string {
	t.Helper()
	viper.Reset()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		viper.Reset()
	})
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, filepath.Join(".codemigrate", "rules.yaml"), cfg.RulesFile)
	assert.Equal(t, []string{"js", "jsx", "ts", "tsx"}, cfg.Extensions)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "error", cfg.FailOn)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.True(t, cfg.Parallel)
	assert.True(t, cfg.ContinueOnError)
	assert.True(t, cfg.Backup.Enabled)
	assert.Contains(t, cfg.Exclude, "node_modules/**")
}

func TestLoadConfigRootOverride(t *testing.T) {
	chtemp(t)

	cfg, err := LoadConfig("/some/project")
	require.NoError(t, err)
	assert.Equal(t, "/some/project", cfg.Root)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := chtemp(t)

	content := `{
  "extensions": ["py"],
  "format": "json",
  "output": "report.json",
  "concurrency": 4,
  "backup": {"enabled": false, "dir": "custom/backups"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codemigraterc.json"), []byte(content), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"py"}, cfg.Extensions)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "report.json", cfg.Output)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, "custom/backups", cfg.Backup.Dir)

	// Unspecified keys keep their defaults.
	assert.Equal(t, "error", cfg.FailOn)
}

func TestLoadConfigYAMLFile(t *testing.T) {
	dir := chtemp(t)

	content := "extensions:\n  - ts\nfailOn: warning\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codemigraterc.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"ts"}, cfg.Extensions)
	assert.Equal(t, "warning", cfg.FailOn)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad format", `{"format": "xml"}`},
		{"bad failOn", `{"failOn": "fatal"}`},
		{"zero concurrency", `{"concurrency": 0}`},
		{"negative maxFileSize", `{"maxFileSize": -1}`},
		{"non-console format without output", `{"format": "json"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chtemp(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".codemigraterc.json"), []byte(tt.content), 0o644))

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := chtemp(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Extensions = []string{"go"}

	path := filepath.Join(dir, "nested", "config.json")
	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"go"`)
}
