package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reseal_v1.yaml")

	data, err := yaml.Marshal(DefaultResealV1())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultResealV1(), cfg)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	bad := DefaultResealV1()
	bad.Trigger.EventMode = "momentum"
	data, err := yaml.Marshal(bad)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadDirSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()

	good, err := yaml.Marshal(DefaultResealV1())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), good, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{not yaml"), 0o644))

	disabled := DefaultFirstSealGuardV1()
	disabled.Enabled = false
	off, err := yaml.Marshal(disabled)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "off.yaml"), off, 0o644))

	reg := NewRegistry(testLogger())
	loaded, err := LoadDir(dir, reg, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, loaded)
	assert.Equal(t, []string{"reseal_v1"}, reg.List())
}
