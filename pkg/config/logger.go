package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Development gets the colored console
// encoder, everything else JSON.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	var lcf zap.Config
	if cfg.IsDevelopment() {
		lcf = zap.NewDevelopmentConfig()
		lcf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		lcf.DisableCaller = true
	} else {
		lcf = zap.NewProductionConfig()
	}
	lcf.Level.SetLevel(level)
	return lcf.Build()
}
