package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON production logging for prod
// environments, human-readable development logging otherwise.
func NewLogger(cfg AppConfig) (*zap.Logger, error) {
	if cfg.Env == "prod" {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zc.Build()
	}
	return zap.NewDevelopment()
}
