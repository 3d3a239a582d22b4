package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds in-memory/JSON recorder backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./arlogs")

	viper.SetDefault("engine.maxVerticalLevel", 5)
	viper.SetDefault("engine.maxVisibleAnnotations", 100)
	viper.SetDefault("engine.maxDistance", 0.0)
	viper.SetDefault("engine.headingSmoothingFactor", 0.25)
	viper.SetDefault("engine.annotationViewWidth", 150.0)
	viper.SetDefault("engine.annotationViewHeight", 50.0)

	viper.SetDefault("tracker.reloadDistanceFilter", 75.0)
	viper.SetDefault("tracker.zeroAltitude", false)
	viper.SetDefault("tracker.notifyFailureOnTimeout", true)

	viper.SetDefault("recorder.backend", "memory")
	viper.SetDefault("recorder.outputDir", "./arsessions")
	viper.SetDefault("recorder.compressOutput", true)
	viper.SetDefault("recorder.flushInterval", "5s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "hdar")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "hdar-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetConfigName("hdar.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Memory returns the recorder memory backend settings.
func Memory() MemoryConfig {
	return MemoryConfig{
		OutputDir:      viper.GetString("recorder.outputDir"),
		CompressOutput: viper.GetBool("recorder.compressOutput"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// ClampInt bounds v to [min,max]. Out-of-range knob values are clamped,
// never rejected.
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampFloat bounds v to [min,max].
func ClampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampSmoothingFactor bounds a heading smoothing factor to (0,1]. Values
// at or below zero fall back to 1, which disables smoothing.
func ClampSmoothingFactor(v float64) float64 {
	if v <= 0 || v > 1 {
		return 1
	}
	return v
}
