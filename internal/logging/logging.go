package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide logger. The dev environment gets the
// human-readable console encoder; everything else logs structured JSON.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return logger, nil
}
