package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
	assert.Equal(t, 0.2, config.Training.TestSize)
	assert.Equal(t, int64(42), config.Training.RandomState)
	assert.Equal(t, "Yes", config.Data.PositiveLabel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
training:
  n_estimators: 10
http:
  port: 9090
  read_timeout: 3s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, config.Training.NEstimators)
	assert.Equal(t, 0.2, config.Training.TestSize, "unset keys keep defaults")
	assert.Equal(t, 9090, config.Http.Port)
	assert.Equal(t, 3*time.Second, config.Http.ReadTimeout)
	assert.Equal(t, "debug", config.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  test_size: 1.5\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
