package config

import (
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// NewKoanf loads path (a dotenv file, optional) and then the process environment, which wins on conflicts.
func NewKoanf(log *zap.Logger, path string) *koanf.Koanf {
	k := koanf.New(".")

	err := k.Load(file.Provider(path), dotenv.Parser())
	if err != nil {
		log.Debug("env file not found, using environment variables", zap.String("path", path), zap.Error(err))
	}

	err = k.Load(env.Provider("", ".", nil), nil)
	if err != nil {
		log.Fatal("failed to load environment variables", zap.Error(err))
	}

	return k
}
