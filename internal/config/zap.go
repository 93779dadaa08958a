package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds a JSON logger on stderr. Unknown or empty levels fall back to info, console
// switches to the human readable encoder used by the terminal client.
func NewZap(levelStr string, console bool) *zap.Logger {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.StacktraceKey = ""
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	if console {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return log
}
