package main

import (
	"io"

	log "github.com/sirupsen/logrus"
)

func newLogger(out io.Writer, level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(log.WarnLevel)
	if level == "" {
		return logger
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		logger.Warnf("invalid log level %s, defaulting to warn", level)
		return logger
	}
	logger.SetLevel(parsed)
	return logger
}
