package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "erdgen.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"port":"9090","sourceDir":"java","resolveEmbedded":false}`), 0o644))
	cfg, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "java", cfg.SourceDir)
	assert.False(t, cfg.ResolveEmbedded)
	assert.Equal(t, "reference/types", cfg.TypesDir, "unset keys keep defaults")

	yamlPath := filepath.Join(dir, "erdgen.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("port: \"7070\"\nextensions: [.java, .kt]\nwatch: true\n"), 0o644))
	t.Setenv("ERDGEN_PORT", "6060")
	t.Setenv("ERDGEN_WATCH", "no")
	t.Setenv("ERDGEN_EXTENSIONS", ".java, .groovy")
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
	assert.False(t, cfg.Watch)
	assert.Equal(t, []string{".java", ".groovy"}, cfg.Extensions)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "bad.json")
}

func TestLoadWithPath_Flags(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other.yml")
	require.NoError(t, os.WriteFile(other, []byte("sourceDir: from-file\nlabel: kind\n"), 0o644))

	cfg, err := LoadWithPath("erdgen.json", []string{
		"-config", other, "-port", "8181", "-watch", "true", "-ext", ".java,.kt", "-log-level", "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SourceDir)
	assert.Equal(t, "kind", cfg.Label)
	assert.Equal(t, "8181", cfg.Port)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.ResolveEmbedded, "flags not given keep file/default values")
	assert.Equal(t, []string{".java", ".kt"}, cfg.Extensions)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadWithPath_Invalid(t *testing.T) {
	_, err := LoadWithPath("", []string{"-watch", "maybe"})
	assert.ErrorContains(t, err, "-watch")

	_, err = LoadWithPath("", []string{"-label", "fancy", "-port", "http"})
	assert.ErrorContains(t, err, "label")
	assert.ErrorContains(t, err, "port")

	_, err = LoadWithPath("", []string{"-unknown"})
	assert.Error(t, err)
}
