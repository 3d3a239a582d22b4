package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"engine": { "maxVerticalLevel": 8 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hdar.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 8, viper.GetInt("engine.maxVerticalLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hdar.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./arlogs", viper.GetString("logsDir"))
	assert.Equal(t, 5, viper.GetInt("engine.maxVerticalLevel"))
	assert.Equal(t, 100, viper.GetInt("engine.maxVisibleAnnotations"))
	assert.Equal(t, 0.0, viper.GetFloat64("engine.maxDistance"))
	assert.Equal(t, 75.0, viper.GetFloat64("tracker.reloadDistanceFilter"))
	assert.Equal(t, false, viper.GetBool("tracker.zeroAltitude"))
	assert.Equal(t, "memory", viper.GetString("recorder.backend"))
	assert.Equal(t, "./arsessions", viper.GetString("recorder.outputDir"))
	assert.Equal(t, true, viper.GetBool("recorder.compressOutput"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("recorder.flushInterval"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestMemory_FromViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("recorder.outputDir", "/tmp/sessions")
	viper.Set("recorder.compressOutput", false)

	m := Memory()
	assert.Equal(t, "/tmp/sessions", m.OutputDir)
	assert.False(t, m.CompressOutput)
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-5, 0, 10))
	assert.Equal(t, 10, ClampInt(500, 0, 10))
	assert.Equal(t, 7, ClampInt(7, 0, 10))
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat(-1, 0, 500))
	assert.Equal(t, 500.0, ClampFloat(1e6, 0, 500))
	assert.Equal(t, 75.0, ClampFloat(75, 0, 500))
}

func TestClampSmoothingFactor(t *testing.T) {
	assert.Equal(t, 1.0, ClampSmoothingFactor(0))
	assert.Equal(t, 1.0, ClampSmoothingFactor(-0.5))
	assert.Equal(t, 1.0, ClampSmoothingFactor(1.5))
	assert.Equal(t, 0.25, ClampSmoothingFactor(0.25))
	assert.Equal(t, 1.0, ClampSmoothingFactor(1))
}
