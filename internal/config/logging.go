package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// InitLogger configures the shared logrus instance. Production emits JSON
// for log aggregation; development keeps human-readable text output.
func InitLogger(cfg *Config) *logrus.Logger {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// GetLogger returns the shared logger, initializing a default one when
// InitLogger has not run yet (tests, tooling).
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
