package recorder

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/javaboyjunior/HDAugmentedReality/internal/config"
	"github.com/javaboyjunior/HDAugmentedReality/internal/recorder/gormdb"
	"github.com/javaboyjunior/HDAugmentedReality/internal/recorder/memory"
)

// NewBackend creates a session storage backend from configuration.
func NewBackend(log zerolog.Logger) (Backend, error) {
	kind := viper.GetString("recorder.backend")
	switch kind {
	case "memory":
		mc := config.Memory()
		return memory.New(memory.Options{
			OutputDir:      mc.OutputDir,
			CompressOutput: mc.CompressOutput,
		}), nil
	case "gorm":
		b := gormdb.New(log)
		b.SetFlushInterval(viper.GetDuration("recorder.flushInterval"))
		return b, nil
	default:
		return nil, fmt.Errorf("unknown recorder backend: %s", kind)
	}
}
