package config

import (
	"fmt"

	"go.uber.org/zap"
)

// setLogger builds the zap logger for the given environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return c.Build()
	case "development":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		return c.Build()
	case "production":
		return zap.NewProduction()
	}
	return nil, fmt.Errorf("unknown environment %q", env)
}
